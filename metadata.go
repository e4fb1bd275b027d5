package geoparquet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paulmach/orb"
)

// GeometryField describes one geometry column in the metadata envelope.
type GeometryField struct {
	FieldName      string   `json:"field_name"`
	GeometryFormat string   `json:"geometry_format"`
	GeometryTypes  []string `json:"geometry_types"`
	CRS            string   `json:"crs"`
	CRSFormat      string   `json:"crs_format"`
}

// Metadata is the geometry envelope stored under MetadataKey in the schema
// metadata. It is structurally a list to leave room for multiple geometry
// columns, but only the first entry is read back.
type Metadata struct {
	GeometryFields []GeometryField `json:"geometry_fields"`
}

// Primary returns the first registered geometry field. Additional entries are
// ignored, not an error.
func (m *Metadata) Primary() (GeometryField, bool) {
	if m == nil || len(m.GeometryFields) == 0 {
		return GeometryField{}, false
	}
	return m.GeometryFields[0], true
}

// buildMetadata constructs the envelope for a geometry column. CRS capture is
// best effort: an unrecognised description is stored verbatim with crs_format
// marked unknown instead of failing the encode. Only CRS classification
// failures are recovered here; nothing else is swallowed.
func buildMetadata(fieldName, crs string, geoms []orb.Geometry) *Metadata {
	text, format, err := NormalizeCRS(crs)
	if errors.Is(err, ErrUnknownCRS) {
		text, format = crs, CRSFormatUnknown
	}
	return &Metadata{
		GeometryFields: []GeometryField{{
			FieldName:      fieldName,
			GeometryFormat: EncodingWKB,
			GeometryTypes:  geometryTypes(geoms),
			CRS:            text,
			CRSFormat:      format,
		}},
	}
}

// ExtractMetadata reads the geometry envelope from a schema's metadata. A nil
// schema, a schema with no metadata, or one without the reserved key yields
// an empty envelope rather than an error.
func ExtractMetadata(schema *arrow.Schema) (*Metadata, error) {
	meta := &Metadata{}
	if schema == nil {
		return meta, nil
	}
	md := schema.Metadata()
	idx := md.FindKey(MetadataKey)
	if idx < 0 {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(md.Values()[idx]), meta); err != nil {
		return nil, fmt.Errorf("geoparquet: metadata key %q: %w", MetadataKey, err)
	}
	return meta, nil
}

// appendTo merges the envelope into existing schema metadata. The reserved
// key is overwritten or inserted; every other key/value pair is preserved
// unchanged.
func (m *Metadata) appendTo(md arrow.Metadata) (arrow.Metadata, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return arrow.Metadata{}, fmt.Errorf("geoparquet: encoding metadata key %q: %w", MetadataKey, err)
	}
	return mergeMetadata(md, MetadataKey, string(raw)), nil
}

// mergeMetadata inserts or overwrites a single key, key-wise.
func mergeMetadata(md arrow.Metadata, key, value string) arrow.Metadata {
	keys := make([]string, 0, md.Len()+1)
	values := make([]string, 0, md.Len()+1)
	replaced := false
	for i, k := range md.Keys() {
		v := md.Values()[i]
		if k == key {
			v = value
			replaced = true
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	if !replaced {
		keys = append(keys, key)
		values = append(values, value)
	}
	return arrow.NewMetadata(keys, values)
}

// dropMetadataKey removes a single key, preserving all others.
func dropMetadataKey(md arrow.Metadata, key string) arrow.Metadata {
	keys := make([]string, 0, md.Len())
	values := make([]string, 0, md.Len())
	for i, k := range md.Keys() {
		if k == key {
			continue
		}
		keys = append(keys, k)
		values = append(values, md.Values()[i])
	}
	return arrow.NewMetadata(keys, values)
}
