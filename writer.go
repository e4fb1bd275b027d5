package geoparquet

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Write encodes the table and writes it as GeoParquet. Every schema-metadata
// key of the encoded record, the metadata envelope included, is appended to
// the Parquet footer's key-value metadata so a later Read recovers it byte
// for byte. Write never closes w; the caller owns the destination.
//
// Atomicity is whatever the destination writer provides; a crash mid-write
// leaves whatever partial state the writer leaves.
func Write(w io.Writer, t *Table, opts *Options) error {
	opts = opts.withDefaults()

	rec, err := Encode(t, opts)
	if err != nil {
		return err
	}
	defer rec.Release()

	tbl := array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec})
	defer tbl.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(opts.Compression),
		parquet.WithAllocator(opts.Allocator),
	)
	arrProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(opts.Allocator),
		pqarrow.WithStoreSchema(),
	)
	// The parquet writer closes its sink when the sink is an io.Closer; the
	// embedding strips Close so w stays open.
	fw, err := pqarrow.NewFileWriter(rec.Schema(), struct{ io.Writer }{w}, props, arrProps)
	if err != nil {
		return fmt.Errorf("geoparquet: writing parquet: %w", err)
	}
	if err := fw.WriteTable(tbl, opts.ChunkSize); err != nil {
		fw.Close()
		return fmt.Errorf("geoparquet: writing parquet: %w", err)
	}
	md := rec.Schema().Metadata()
	for i, key := range md.Keys() {
		if err := fw.AppendKeyValueMetadata(key, md.Values()[i]); err != nil {
			fw.Close()
			return fmt.Errorf("geoparquet: writing parquet: %w", err)
		}
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("geoparquet: writing parquet: %w", err)
	}
	return nil
}

// WriteFile writes the table as a GeoParquet file at path.
func WriteFile(path string, t *Table, opts *Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("geoparquet: %w", err)
	}
	if err := Write(f, t, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
