package geoparquet

import (
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
)

// newTestAttrs builds an attribute record with an id column and, optionally,
// extra schema metadata.
func newTestAttrs(t *testing.T, ids []int64, md *arrow.Metadata) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}, md)
	rb := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer rb.Release()
	rb.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	return rb.NewRecord()
}

// newTestTable builds the reference three-row table: two points and a square.
func newTestTable(t *testing.T, crs string) *Table {
	t.Helper()
	attrs := newTestAttrs(t, []int64{1, 2, 3}, nil)
	defer attrs.Release()
	geoms := []orb.Geometry{
		orb.Point{0, 0},
		orb.Point{1, 1},
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
	}
	table, err := NewTable(attrs, "geom", geoms, crs)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	table := newTestTable(t, "EPSG:4326")
	defer table.Release()

	rec, err := Encode(table, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	defer rec.Release()

	if rec.NumCols() != 2 {
		t.Fatalf("expected 2 columns, got %d", rec.NumCols())
	}
	if rec.ColumnName(1) != "geom" {
		t.Errorf("expected geometry column at position 1, got %q", rec.ColumnName(1))
	}
	if _, ok := rec.Column(1).(*array.Binary); !ok {
		t.Fatalf("expected binary geometry column, got %s", rec.Column(1).DataType())
	}
	if rec.Schema().Metadata().FindKey(MetadataKey) < 0 {
		t.Fatal("expected metadata envelope on the encoded schema")
	}

	got, err := Decode(rec, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	defer got.Release()

	if got.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.NumRows())
	}
	ids := got.Attrs.Column(0).(*array.Int64)
	for i, want := range []int64{1, 2, 3} {
		if ids.Value(i) != want {
			t.Errorf("id row %d: expected %d, got %d", i, want, ids.Value(i))
		}
	}
	for i := range table.Geoms {
		if !orb.Equal(got.Geoms[i], table.Geoms[i]) {
			t.Errorf("geometry row %d differs after round trip", i)
		}
	}
	if !strings.Contains(got.CRS, `ID["EPSG",4326]`) {
		t.Errorf("expected envelope CRS to be the normalised WKT2, got %q", got.CRS)
	}
	if got.GeomName != "geom" {
		t.Errorf("expected geometry column name geom, got %q", got.GeomName)
	}
}

func TestEncode_InputUntouched(t *testing.T) {
	table := newTestTable(t, "EPSG:4326")
	defer table.Release()

	rec, err := Encode(table, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	rec.Release()

	if len(table.Geoms) != 3 {
		t.Fatalf("geometry column changed length: %d", len(table.Geoms))
	}
	if _, ok := table.Geoms[0].(orb.Point); !ok {
		t.Error("geometry values were replaced in the input table")
	}
	if table.Attrs.Schema().Metadata().FindKey(MetadataKey) >= 0 {
		t.Error("metadata envelope leaked into the input table's schema")
	}
	ids := table.Attrs.Column(0).(*array.Int64)
	if ids.Value(0) != 1 || ids.Value(2) != 3 {
		t.Error("attribute column changed")
	}
}

func TestEncode_MetadataIsolation(t *testing.T) {
	md := arrow.NewMetadata([]string{"pandas"}, []string{`{"index_columns":[]}`})
	attrs := newTestAttrs(t, []int64{1}, &md)
	defer attrs.Release()
	table, err := NewTable(attrs, "geom", []orb.Geometry{orb.Point{0, 0}}, "EPSG:4326")
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	defer table.Release()

	rec, err := Encode(table, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	defer rec.Release()

	outMD := rec.Schema().Metadata()
	idx := outMD.FindKey("pandas")
	if idx < 0 {
		t.Fatal("pre-existing metadata key was dropped")
	}
	if outMD.Values()[idx] != `{"index_columns":[]}` {
		t.Errorf("pre-existing metadata value changed: %q", outMD.Values()[idx])
	}
	if outMD.FindKey(MetadataKey) < 0 {
		t.Fatal("expected the envelope key alongside the pre-existing one")
	}
}

func TestEncode_NilGeometryNamesRow(t *testing.T) {
	attrs := newTestAttrs(t, []int64{1, 2}, nil)
	defer attrs.Release()
	table, err := NewTable(attrs, "geom", []orb.Geometry{orb.Point{0, 0}, nil}, "EPSG:4326")
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	defer table.Release()

	_, err = Encode(table, nil)
	if !errors.Is(err, ErrNilGeometry) {
		t.Fatalf("expected ErrNilGeometry, got %v", err)
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("expected error to name the failing row, got %v", err)
	}
	if !strings.Contains(err.Error(), `"geom"`) {
		t.Errorf("expected error to name the column, got %v", err)
	}
}

func TestDecode_NoEnvelope(t *testing.T) {
	rec := newTestAttrs(t, []int64{1}, nil)
	defer rec.Release()

	_, err := Decode(rec, nil)
	if !errors.Is(err, ErrNoGeometryMetadata) {
		t.Fatalf("expected ErrNoGeometryMetadata, got %v", err)
	}
}

func TestDecode_MissingColumn(t *testing.T) {
	value := `{"geometry_fields":[{"field_name":"geom","geometry_format":"wkb","geometry_types":["Point"],"crs":"EPSG:4326","crs_format":"WKT2_2019"}]}`
	md := arrow.NewMetadata([]string{MetadataKey}, []string{value})
	rec := newTestAttrs(t, []int64{1}, &md)
	defer rec.Release()

	_, err := Decode(rec, nil)
	if !errors.Is(err, ErrGeometryColumnNotFound) {
		t.Fatalf("expected ErrGeometryColumnNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "geom") {
		t.Errorf("expected error to name the missing column, got %v", err)
	}
}

func TestDecode_BadWKBNamesRow(t *testing.T) {
	table := newTestTable(t, "EPSG:4326")
	defer table.Release()

	rec, err := Encode(table, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	defer rec.Release()

	// Rebuild the geometry column with junk bytes in the middle row.
	builder := array.NewBinaryBuilder(memory.DefaultAllocator, arrow.BinaryTypes.Binary)
	defer builder.Release()
	orig := rec.Column(1).(*array.Binary)
	for i := 0; i < orig.Len(); i++ {
		if i == 1 {
			builder.Append([]byte("junk"))
			continue
		}
		builder.Append(orig.Value(i))
	}
	junkCol := builder.NewBinaryArray()
	defer junkCol.Release()
	broken := array.NewRecord(rec.Schema(), []arrow.Array{rec.Column(0), junkCol}, rec.NumRows())
	defer broken.Release()

	_, err = Decode(broken, nil)
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("expected error to name the failing row, got %v", err)
	}
}

func TestEncodeDecode_WithPool(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()
	opts := DefaultOptions()
	opts.Pool = pool

	const n = 100
	ids := make([]int64, n)
	geoms := make([]orb.Geometry, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(i)
		geoms[i] = orb.Point{float64(i), float64(-i)}
	}
	attrs := newTestAttrs(t, ids, nil)
	defer attrs.Release()
	table, err := NewTable(attrs, "geom", geoms, "EPSG:4326")
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	defer table.Release()

	rec, err := Encode(table, opts)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	defer rec.Release()

	got, err := Decode(rec, opts)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	defer got.Release()

	for i := 0; i < n; i++ {
		want := orb.Point{float64(i), float64(-i)}
		if !orb.Equal(got.Geoms[i], want) {
			t.Fatalf("row %d: expected %v, got %v", i, want, got.Geoms[i])
		}
	}
}

func TestNewTable_Validation(t *testing.T) {
	attrs := newTestAttrs(t, []int64{1, 2}, nil)
	defer attrs.Release()

	if _, err := NewTable(attrs, "geom", []orb.Geometry{orb.Point{0, 0}}, ""); !errors.Is(err, ErrRowCountMismatch) {
		t.Errorf("expected ErrRowCountMismatch, got %v", err)
	}
	geoms := []orb.Geometry{orb.Point{0, 0}, orb.Point{1, 1}}
	if _, err := NewTable(attrs, "id", geoms, ""); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("expected ErrDuplicateColumn, got %v", err)
	}
}
