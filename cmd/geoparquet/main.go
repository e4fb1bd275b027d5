// Command geoparquet converts between GeoJSON and GeoParquet files and
// inspects GeoParquet geometry metadata.
//
// Usage:
//
//	geoparquet [flags] convert <in.geojson|in.parquet> <out>
//	geoparquet [flags] describe <file.parquet>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/darcy-r/geoparquet"
	"github.com/paulmach/orb/geojson"
)

func main() {
	crs := flag.String("crs", geoparquet.WGS84, "CRS description recorded when converting GeoJSON input")
	workers := flag.Int("workers", 4, "worker count for geometry encoding and decoding")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
	}

	switch args[0] {
	case "convert":
		if len(args) != 3 {
			usage()
		}
		if err := convert(args[1], args[2], *crs, *workers); err != nil {
			log.Fatalf("convert: %v", err)
		}
	case "describe":
		if err := describe(args[1]); err != nil {
			log.Fatalf("describe: %v", err)
		}
	default:
		usage()
	}
}

func convert(in, out, crs string, workers int) error {
	pool := geoparquet.NewPool(workers)
	defer pool.Close()
	opts := geoparquet.DefaultOptions()
	opts.Pool = pool

	switch {
	case strings.HasSuffix(in, ".geojson") || strings.HasSuffix(in, ".json"):
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return err
		}
		table, err := geoparquet.FromGeoJSON(fc, crs, opts)
		if err != nil {
			return err
		}
		defer table.Release()
		return geoparquet.WriteFile(out, table, opts)

	case strings.HasSuffix(in, ".parquet"):
		table, err := geoparquet.ReadFile(in, opts)
		if err != nil {
			return err
		}
		defer table.Release()
		fc, err := geoparquet.ToGeoJSON(table)
		if err != nil {
			return err
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return err
		}
		return os.WriteFile(out, data, 0o644)
	}
	return fmt.Errorf("cannot tell the format of %q from its extension", in)
}

func describe(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rec, err := geoparquet.ReadRecord(f, nil)
	if err != nil {
		return err
	}
	defer rec.Release()

	meta, err := geoparquet.ExtractMetadata(rec.Schema())
	if err != nil {
		return err
	}

	fmt.Printf("rows: %d\n", rec.NumRows())
	fmt.Printf("columns:\n")
	for i := 0; i < int(rec.NumCols()); i++ {
		fmt.Printf("  %s: %s\n", rec.ColumnName(i), rec.Column(i).DataType())
	}
	field, ok := meta.Primary()
	if !ok {
		fmt.Println("geometry: none (plain parquet file)")
		return nil
	}
	fmt.Printf("geometry column: %s\n", field.FieldName)
	fmt.Printf("geometry format: %s\n", field.GeometryFormat)
	fmt.Printf("geometry types: %s\n", strings.Join(field.GeometryTypes, ", "))
	fmt.Printf("crs format: %s\n", field.CRSFormat)
	fmt.Printf("crs: %s\n", field.CRS)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  geoparquet [flags] convert <in.geojson|in.parquet> <out>")
	fmt.Fprintln(os.Stderr, "  geoparquet [flags] describe <file.parquet>")
	flag.PrintDefaults()
	os.Exit(2)
}
