// Package geoparquet reads and writes GeoParquet files with orb geometry
// types. Geometry columns are serialised as well-known binary inside an
// ordinary Parquet binary column, and a JSON envelope in the Arrow schema
// metadata makes the file self-describing: which column holds geometry, its
// encoding, the geometry kinds it contains, and its coordinate reference
// system. Every other column and every unrelated schema-metadata key passes
// through the round trip unmodified.
package geoparquet

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/compress"
)

// MetadataKey is the reserved schema-metadata key holding the geometry
// envelope. Its value is UTF-8 JSON of the form
//
//	{"geometry_fields": [{"field_name": ..., "geometry_format": "wkb",
//	  "geometry_types": [...], "crs": ..., "crs_format": ...}]}
//
// The key name plus that value layout is the on-disk contract of this
// package (format version "geoparquet-go/1"). Only the first entry of
// geometry_fields is honoured on read.
const MetadataKey = "geometry_fields"

// EncodingWKB tags the binary encoding used for geometry columns. WKB is the
// only encoding this package writes.
const EncodingWKB = "wkb"

// Tags recorded in the envelope's crs_format field.
const (
	CRSFormatWKT2    = "WKT2_2019"
	CRSFormatWKT1    = "WKT1_GDAL"
	CRSFormatProj4   = "PROJ4"
	CRSFormatUnknown = "unknown"
)

// Common errors returned by this package.
var (
	ErrNilGeometry            = errors.New("geoparquet: nil geometry")
	ErrRowCountMismatch       = errors.New("geoparquet: geometry count does not match row count")
	ErrDuplicateColumn        = errors.New("geoparquet: geometry column name collides with an attribute column")
	ErrNoGeometryMetadata     = errors.New("geoparquet: schema carries no geometry metadata")
	ErrGeometryColumnNotFound = errors.New("geoparquet: geometry column named in metadata not present in table")
	ErrNotBinaryColumn        = errors.New("geoparquet: geometry column is not a binary column")
	ErrUnknownCRS             = errors.New("geoparquet: unrecognized CRS description")
)

// Options configures encoding, decoding and file I/O.
type Options struct {
	// Pool runs per-row geometry encode/decode in parallel. A nil pool means
	// rows are processed sequentially. The pool is owned by the caller:
	// create it once, share it across calls, Close it when done.
	Pool *Pool

	// Compression selects the Parquet column compression codec.
	Compression compress.Compression

	// ChunkSize is the maximum number of rows per Parquet row group.
	ChunkSize int64

	// Allocator is the Arrow allocator used for columns built by this
	// package.
	Allocator memory.Allocator
}

// DefaultOptions returns options with Snappy compression, 64Ki-row chunks,
// the default allocator and no worker pool.
func DefaultOptions() *Options {
	return &Options{
		Compression: compress.Codecs.Snappy,
		ChunkSize:   64 * 1024,
		Allocator:   memory.DefaultAllocator,
	}
}

// withDefaults fills unset fields so a partially populated Options is usable.
func (o *Options) withDefaults() *Options {
	if o == nil {
		return DefaultOptions()
	}
	out := *o
	if out.ChunkSize <= 0 {
		out.ChunkSize = 64 * 1024
	}
	if out.Allocator == nil {
		out.Allocator = memory.DefaultAllocator
	}
	return &out
}
