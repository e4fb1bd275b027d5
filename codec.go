package geoparquet

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// encodeGeometry serialises a single geometry as well-known binary. Each
// value is encoded independently, so a column may mix points, polygons and
// any other supported kind. Nil geometries are rejected rather than encoded
// as empty bytes.
func encodeGeometry(geom orb.Geometry) ([]byte, error) {
	if geom == nil {
		return nil, ErrNilGeometry
	}
	data, err := wkb.Marshal(geom)
	if err != nil {
		return nil, fmt.Errorf("geoparquet: encoding %s as WKB: %w", geom.GeoJSONType(), err)
	}
	return data, nil
}

// decodeGeometry parses a well-known binary byte string back into a geometry.
func decodeGeometry(data []byte) (orb.Geometry, error) {
	geom, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("geoparquet: decoding WKB: %w", err)
	}
	return geom, nil
}

// geometryTypes returns the distinct GeoJSON type labels present in geoms,
// sorted so the metadata envelope is deterministic regardless of row order.
func geometryTypes(geoms []orb.Geometry) []string {
	seen := make(map[string]bool, 4)
	types := make([]string, 0, 4)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		name := g.GeoJSONType()
		if !seen[name] {
			seen[name] = true
			types = append(types, name)
		}
	}
	sort.Strings(types)
	return types
}
