package geoparquet

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paulmach/orb"
)

// DefaultGeometryName is the geometry column name used when the caller does
// not choose one.
const DefaultGeometryName = "geometry"

// Table is a columnar table with a single geometry column. Attribute columns
// are held as an Arrow record; the geometry column is kept decoded as orb
// geometries, together with the position it occupies in the on-disk schema
// and the CRS description for the whole column.
type Table struct {
	Attrs     arrow.Record
	Geoms     []orb.Geometry
	GeomName  string
	GeomIndex int
	CRS       string
}

// NewTable builds a table from attribute columns and a geometry column; the
// geometry column is placed after the attribute columns on disk. The record
// is retained, never mutated; callers keep their own reference.
func NewTable(attrs arrow.Record, geomName string, geoms []orb.Geometry, crs string) (*Table, error) {
	if attrs == nil {
		return nil, errors.New("geoparquet: nil attribute record")
	}
	if geomName == "" {
		geomName = DefaultGeometryName
	}
	if int64(len(geoms)) != attrs.NumRows() {
		return nil, fmt.Errorf("%w: %d geometries, %d rows", ErrRowCountMismatch, len(geoms), attrs.NumRows())
	}
	for i := 0; i < int(attrs.NumCols()); i++ {
		if attrs.ColumnName(i) == geomName {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, geomName)
		}
	}
	attrs.Retain()
	return &Table{
		Attrs:     attrs,
		Geoms:     geoms,
		GeomName:  geomName,
		GeomIndex: int(attrs.NumCols()),
		CRS:       crs,
	}, nil
}

// NumRows returns the number of rows in the table.
func (t *Table) NumRows() int { return len(t.Geoms) }

// Release drops the table's hold on its attribute columns.
func (t *Table) Release() {
	if t.Attrs != nil {
		t.Attrs.Release()
		t.Attrs = nil
	}
}
