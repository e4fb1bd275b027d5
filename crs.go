package geoparquet

import (
	"fmt"
	"strconv"
	"strings"
)

// WGS84 is the CRS description recorded by default for geographic data.
const WGS84 = "EPSG:4326"

// wkt2Registry maps common EPSG codes to their WKT2 definitions. Serving the
// handful of codes that cover the vast majority of real datasets keeps CRS
// resolution dependency-free; any other description is stored verbatim with
// crs_format marked unknown.
var wkt2Registry = map[int]string{
	4326:  `GEOGCRS["WGS 84",DATUM["World Geodetic System 1984",ELLIPSOID["WGS 84",6378137,298.257223563,LENGTHUNIT["metre",1]]],PRIMEM["Greenwich",0,ANGLEUNIT["degree",0.0174532925199433]],CS[ellipsoidal,2],AXIS["geodetic latitude (Lat)",north,ORDER[1],ANGLEUNIT["degree",0.0174532925199433]],AXIS["geodetic longitude (Lon)",east,ORDER[2],ANGLEUNIT["degree",0.0174532925199433]],ID["EPSG",4326]]`,
	4269:  `GEOGCRS["NAD83",DATUM["North American Datum 1983",ELLIPSOID["GRS 1980",6378137,298.257222101,LENGTHUNIT["metre",1]]],PRIMEM["Greenwich",0,ANGLEUNIT["degree",0.0174532925199433]],CS[ellipsoidal,2],AXIS["geodetic latitude (Lat)",north,ORDER[1],ANGLEUNIT["degree",0.0174532925199433]],AXIS["geodetic longitude (Lon)",east,ORDER[2],ANGLEUNIT["degree",0.0174532925199433]],ID["EPSG",4269]]`,
	4258:  `GEOGCRS["ETRS89",DATUM["European Terrestrial Reference System 1989",ELLIPSOID["GRS 1980",6378137,298.257222101,LENGTHUNIT["metre",1]]],PRIMEM["Greenwich",0,ANGLEUNIT["degree",0.0174532925199433]],CS[ellipsoidal,2],AXIS["geodetic latitude (Lat)",north,ORDER[1],ANGLEUNIT["degree",0.0174532925199433]],AXIS["geodetic longitude (Lon)",east,ORDER[2],ANGLEUNIT["degree",0.0174532925199433]],ID["EPSG",4258]]`,
	27700: `PROJCRS["OSGB36 / British National Grid",BASEGEOGCRS["OSGB36",DATUM["Ordnance Survey of Great Britain 1936",ELLIPSOID["Airy 1830",6377563.396,299.3249646,LENGTHUNIT["metre",1]]],PRIMEM["Greenwich",0,ANGLEUNIT["degree",0.0174532925199433]],ID["EPSG",4277]],CONVERSION["British National Grid",METHOD["Transverse Mercator",ID["EPSG",9807]],PARAMETER["Latitude of natural origin",49,ANGLEUNIT["degree",0.0174532925199433]],PARAMETER["Longitude of natural origin",-2,ANGLEUNIT["degree",0.0174532925199433]],PARAMETER["Scale factor at natural origin",0.9996012717,SCALEUNIT["unity",1]],PARAMETER["False easting",400000,LENGTHUNIT["metre",1]],PARAMETER["False northing",-100000,LENGTHUNIT["metre",1]]],CS[Cartesian,2],AXIS["easting (E)",east,ORDER[1],LENGTHUNIT["metre",1]],AXIS["northing (N)",north,ORDER[2],LENGTHUNIT["metre",1]],ID["EPSG",27700]]`,
	3857:  `PROJCRS["WGS 84 / Pseudo-Mercator",BASEGEOGCRS["WGS 84",DATUM["World Geodetic System 1984",ELLIPSOID["WGS 84",6378137,298.257223563,LENGTHUNIT["metre",1]]],PRIMEM["Greenwich",0,ANGLEUNIT["degree",0.0174532925199433]]],CONVERSION["Popular Visualisation Pseudo-Mercator",METHOD["Popular Visualisation Pseudo Mercator",ID["EPSG",1024]],PARAMETER["Latitude of natural origin",0,ANGLEUNIT["degree",0.0174532925199433]],PARAMETER["Longitude of natural origin",0,ANGLEUNIT["degree",0.0174532925199433]],PARAMETER["False easting",0,LENGTHUNIT["metre",1]],PARAMETER["False northing",0,LENGTHUNIT["metre",1]]],CS[Cartesian,2],AXIS["easting (X)",east,ORDER[1],LENGTHUNIT["metre",1]],AXIS["northing (Y)",north,ORDER[2],LENGTHUNIT["metre",1]],ID["EPSG",3857]]`,
}

// wkt2Keywords open a WKT2 definition; wkt1Keywords open the older GDAL-style
// WKT1 form, which is recognised and tagged but not rewritten.
var (
	wkt2Keywords = []string{"GEOGCRS", "PROJCRS", "GEODCRS", "VERTCRS", "COMPOUNDCRS", "BOUNDCRS", "ENGCRS"}
	wkt1Keywords = []string{"GEOGCS", "PROJCS", "GEOCCS", "VERT_CS", "COMPD_CS", "LOCAL_CS"}
)

// NormalizeCRS resolves a CRS description into a canonical text form plus the
// tag naming that form. EPSG references ("EPSG:4326", "epsg:4326", "4326")
// are expanded to WKT2 from the built-in registry; WKT and proj-parameter
// strings are recognised and passed through with the matching tag.
// ErrUnknownCRS is returned when the description cannot be classified;
// encoding recovers from that by storing the description verbatim with
// crs_format set to unknown, it never aborts.
func NormalizeCRS(input string) (text string, format string, err error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", "", fmt.Errorf("%w: empty description", ErrUnknownCRS)
	}
	if code, ok := parseEPSG(s); ok {
		if wkt, ok := wkt2Registry[code]; ok {
			return wkt, CRSFormatWKT2, nil
		}
		return "", "", fmt.Errorf("%w: EPSG:%d not in registry", ErrUnknownCRS, code)
	}
	switch {
	case hasWKTPrefix(s, wkt2Keywords):
		return s, CRSFormatWKT2, nil
	case hasWKTPrefix(s, wkt1Keywords):
		return s, CRSFormatWKT1, nil
	case strings.HasPrefix(s, "+proj=") || strings.HasPrefix(s, "+init="):
		return s, CRSFormatProj4, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownCRS, input)
}

// parseEPSG reads "EPSG:n" (any case) or a bare numeric code.
func parseEPSG(s string) (int, bool) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if !strings.EqualFold(s[:i], "epsg") {
			return 0, false
		}
		s = s[i+1:]
	}
	code, err := strconv.Atoi(s)
	if err != nil || code <= 0 {
		return 0, false
	}
	return code, true
}

func hasWKTPrefix(s string, keywords []string) bool {
	upper := strings.ToUpper(s)
	for _, kw := range keywords {
		if strings.HasPrefix(upper, kw+"[") {
			return true
		}
	}
	return false
}
