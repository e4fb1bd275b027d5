package geoparquet

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
)

// Encode replaces the table's geometry column with its WKB form and attaches
// the metadata envelope to the schema. The input table is left untouched:
// attribute columns are shared, never copied or mutated, and the returned
// record carries its own references.
//
// Any row that fails to encode aborts the whole transform with an error
// naming the column and row. A CRS that cannot be normalised does not abort;
// it is recorded verbatim with crs_format unknown.
func Encode(t *Table, opts *Options) (arrow.Record, error) {
	opts = opts.withDefaults()

	encoded := make([][]byte, len(t.Geoms))
	err := mapRows(opts.Pool, len(t.Geoms), func(i int) error {
		data, err := encodeGeometry(t.Geoms[i])
		if err != nil {
			return fmt.Errorf("column %q row %d: %w", t.GeomName, i, err)
		}
		encoded[i] = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	builder := array.NewBinaryBuilder(opts.Allocator, arrow.BinaryTypes.Binary)
	defer builder.Release()
	for _, data := range encoded {
		builder.Append(data)
	}
	geomCol := builder.NewBinaryArray()
	defer geomCol.Release()

	geomField := arrow.Field{Name: t.GeomName, Type: arrow.BinaryTypes.Binary}
	fields, cols := spliceColumn(t.Attrs, geomField, geomCol, t.GeomIndex)

	envelope := buildMetadata(t.GeomName, t.CRS, t.Geoms)
	md, err := envelope.appendTo(t.Attrs.Schema().Metadata())
	if err != nil {
		return nil, err
	}
	schema := arrow.NewSchema(fields, &md)

	return array.NewRecord(schema, cols, t.Attrs.NumRows()), nil
}

// Decode reverses Encode. The metadata envelope is read first; a record with
// no envelope fails with ErrNoGeometryMetadata, and an envelope naming a
// column the record does not have fails with ErrGeometryColumnNotFound before
// any geometry bytes are touched. The envelope's CRS is authoritative for the
// returned table; the stored geometry_types are informational and are not
// re-validated against the data.
func Decode(rec arrow.Record, opts *Options) (*Table, error) {
	opts = opts.withDefaults()

	meta, err := ExtractMetadata(rec.Schema())
	if err != nil {
		return nil, err
	}
	field, ok := meta.Primary()
	if !ok {
		return nil, ErrNoGeometryMetadata
	}

	idx := -1
	for i := 0; i < int(rec.NumCols()); i++ {
		if rec.ColumnName(i) == field.FieldName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrGeometryColumnNotFound, field.FieldName)
	}
	binCol, ok := rec.Column(idx).(*array.Binary)
	if !ok {
		return nil, fmt.Errorf("%w: column %q has type %s",
			ErrNotBinaryColumn, field.FieldName, rec.Column(idx).DataType())
	}

	geoms := make([]orb.Geometry, binCol.Len())
	err = mapRows(opts.Pool, binCol.Len(), func(i int) error {
		geom, err := decodeGeometry(binCol.Value(i))
		if err != nil {
			return fmt.Errorf("column %q row %d: %w", field.FieldName, i, err)
		}
		geoms[i] = geom
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Rebuild the attribute record without the geometry column and without
	// the envelope key, so a re-encode starts from clean metadata.
	fields := make([]arrow.Field, 0, rec.NumCols()-1)
	cols := make([]arrow.Array, 0, rec.NumCols()-1)
	for i := 0; i < int(rec.NumCols()); i++ {
		if i == idx {
			continue
		}
		fields = append(fields, rec.Schema().Field(i))
		cols = append(cols, rec.Column(i))
	}
	md := dropMetadataKey(rec.Schema().Metadata(), MetadataKey)
	schema := arrow.NewSchema(fields, &md)
	attrs := array.NewRecord(schema, cols, rec.NumRows())

	return &Table{
		Attrs:     attrs,
		Geoms:     geoms,
		GeomName:  field.FieldName,
		GeomIndex: idx,
		CRS:       field.CRS,
	}, nil
}

// spliceColumn returns the record's fields and columns with one extra column
// inserted at position idx. Positions out of range append at the end.
func spliceColumn(rec arrow.Record, field arrow.Field, col arrow.Array, idx int) ([]arrow.Field, []arrow.Array) {
	n := int(rec.NumCols())
	if idx < 0 || idx > n {
		idx = n
	}
	fields := make([]arrow.Field, 0, n+1)
	cols := make([]arrow.Array, 0, n+1)
	for i := 0; i < n; i++ {
		if i == idx {
			fields = append(fields, field)
			cols = append(cols, col)
		}
		fields = append(fields, rec.Schema().Field(i))
		cols = append(cols, rec.Column(i))
	}
	if idx == n {
		fields = append(fields, field)
		cols = append(cols, col)
	}
	return fields, cols
}
