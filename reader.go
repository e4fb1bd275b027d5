package geoparquet

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// arrowSchemaKey is the footer key pqarrow reserves for the serialised Arrow
// schema; it is an implementation detail and never surfaces as user metadata.
const arrowSchemaKey = "ARROW:schema"

// Read loads a GeoParquet file and decodes its geometry column. The source
// must support random access; *os.File and *bytes.Reader both qualify.
func Read(r parquet.ReaderAtSeeker, opts *Options) (*Table, error) {
	opts = opts.withDefaults()

	rec, err := ReadRecord(r, opts)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return Decode(rec, opts)
}

// ReadFile loads a GeoParquet file from path.
func ReadFile(path string, opts *Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoparquet: %w", err)
	}
	defer f.Close()
	return Read(f, opts)
}

// ReadRecord loads a Parquet file as a single Arrow record without touching
// the geometry column. The footer's key-value metadata, where Write persists
// the envelope and any pass-through keys, is merged into the record's schema
// metadata. Plain Parquet files with no geometry metadata read fine through
// this path; pair it with ExtractMetadata to inspect the envelope, which is
// empty for such files.
func ReadRecord(r parquet.ReaderAtSeeker, opts *Options) (arrow.Record, error) {
	opts = opts.withDefaults()

	pf, err := file.NewParquetReader(r,
		file.WithReadProps(parquet.NewReaderProperties(opts.Allocator)))
	if err != nil {
		return nil, fmt.Errorf("geoparquet: reading parquet: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, opts.Allocator)
	if err != nil {
		return nil, fmt.Errorf("geoparquet: reading parquet: %w", err)
	}
	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("geoparquet: reading parquet: %w", err)
	}
	defer tbl.Release()

	return recordFromTable(tbl, pf.MetaData().KeyValueMetadata(), opts)
}

// recordFromTable flattens a possibly chunked Arrow table into one record and
// folds the footer key-value metadata into its schema.
func recordFromTable(tbl arrow.Table, kv metadata.KeyValueMetadata, opts *Options) (arrow.Record, error) {
	cols := make([]arrow.Array, tbl.NumCols())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range cols {
		field := tbl.Schema().Field(i)
		chunks := tbl.Column(i).Data().Chunks()
		if len(chunks) == 0 {
			b := array.NewBuilder(opts.Allocator, field.Type)
			cols[i] = b.NewArray()
			b.Release()
			continue
		}
		merged, err := array.Concatenate(chunks, opts.Allocator)
		if err != nil {
			return nil, fmt.Errorf("geoparquet: column %q: %w", field.Name, err)
		}
		cols[i] = merged
	}

	md := tbl.Schema().Metadata()
	for i, key := range kv.Keys() {
		if key == arrowSchemaKey {
			continue
		}
		md = mergeMetadata(md, key, kv.Values()[i])
	}
	schema := arrow.NewSchema(tbl.Schema().Fields(), &md)
	return array.NewRecord(schema, cols, tbl.NumRows()), nil
}
