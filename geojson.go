package geoparquet

import (
	"encoding/json"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON properties are schemaless, so the attribute schema is inferred by
// scanning every feature and promoting to the more general column kind when
// features disagree. Nested objects and arrays land in a string column as
// their JSON encoding.

type columnKind int

const (
	kindBool columnKind = iota
	kindInt
	kindFloat
	kindString
	kindJSON
)

func inferKind(value interface{}) columnKind {
	switch v := value.(type) {
	case bool:
		return kindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindInt
	case float32, float64:
		return kindFloat
	case string:
		return kindString
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return kindInt
		}
		return kindFloat
	default:
		return kindJSON
	}
}

// promoteKind returns the more general kind when two features disagree.
func promoteKind(a, b columnKind) columnKind {
	switch {
	case a == b:
		return a
	case a == kindJSON || b == kindJSON:
		return kindJSON
	case a == kindString || b == kindString:
		return kindString
	case a == kindBool || b == kindBool:
		return kindString
	default: // int vs float
		return kindFloat
	}
}

func arrowType(k columnKind) arrow.DataType {
	switch k {
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

// FromGeoJSON converts a feature collection into a Table. Property columns
// are sorted by name so the schema is deterministic; properties missing from
// a feature become nulls. Every feature must carry a geometry.
func FromGeoJSON(fc *geojson.FeatureCollection, crs string, opts *Options) (*Table, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, ErrNilGeometry
	}
	opts = opts.withDefaults()

	kinds := make(map[string]columnKind)
	names := make([]string, 0)
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			return nil, ErrNilGeometry
		}
		for name, value := range f.Properties {
			if value == nil {
				continue
			}
			k := inferKind(value)
			if prev, ok := kinds[name]; ok {
				kinds[name] = promoteKind(prev, k)
			} else {
				kinds[name] = k
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrowType(kinds[name]), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)
	rb := array.NewRecordBuilder(opts.Allocator, schema)
	defer rb.Release()

	geoms := make([]orb.Geometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		geoms = append(geoms, f.Geometry)
		for i, name := range names {
			appendProperty(rb.Field(i), kinds[name], f.Properties[name])
		}
	}

	rec := rb.NewRecord()
	defer rec.Release()
	return NewTable(rec, DefaultGeometryName, geoms, crs)
}

// appendProperty writes one property value into its column builder, falling
// back to null when the value does not fit the promoted column kind.
func appendProperty(b array.Builder, kind columnKind, value interface{}) {
	if value == nil {
		b.AppendNull()
		return
	}
	switch kind {
	case kindBool:
		if v, ok := value.(bool); ok {
			b.(*array.BooleanBuilder).Append(v)
			return
		}
	case kindInt:
		if v, ok := toInt64(value); ok {
			b.(*array.Int64Builder).Append(v)
			return
		}
	case kindFloat:
		if v, ok := toFloat64(value); ok {
			b.(*array.Float64Builder).Append(v)
			return
		}
	case kindString:
		b.(*array.StringBuilder).Append(toString(value))
		return
	case kindJSON:
		if raw, err := json.Marshal(value); err == nil {
			b.(*array.StringBuilder).Append(string(raw))
			return
		}
	}
	b.AppendNull()
}

// ToGeoJSON converts a table back into a feature collection. Attribute
// columns with types this package never writes are skipped.
func ToGeoJSON(t *Table) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for row := 0; row < t.NumRows(); row++ {
		f := geojson.NewFeature(t.Geoms[row])
		for col := 0; col < int(t.Attrs.NumCols()); col++ {
			if value, ok := columnValue(t.Attrs.Column(col), row); ok {
				f.Properties[t.Attrs.ColumnName(col)] = value
			}
		}
		fc.Append(f)
	}
	return fc, nil
}

// columnValue extracts a Go value from a column at one row.
func columnValue(col arrow.Array, row int) (interface{}, bool) {
	if col.IsNull(row) {
		return nil, false
	}
	switch c := col.(type) {
	case *array.Boolean:
		return c.Value(row), true
	case *array.Int32:
		return int64(c.Value(row)), true
	case *array.Int64:
		return c.Value(row), true
	case *array.Float32:
		return float64(c.Value(row)), true
	case *array.Float64:
		return c.Value(row), true
	case *array.String:
		return c.Value(row), true
	case *array.Binary:
		return c.Value(row), true
	default:
		return nil, false
	}
}

// Numeric conversion helpers for property values.

func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return int64(val), true
	case float32:
		return int64(val), true
	case float64:
		return int64(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
