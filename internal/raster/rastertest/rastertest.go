// Package rastertest writes small GeoTIFF fixtures for tests.
package rastertest

import (
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/raster"
)

// UTM zone 35N, the projection of the Sentinel-2 tiles over Latvia.
const Projection = `PROJCS["WGS 84 / UTM zone 35N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",27],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","32635"]]`

// Metadata returns a 10 m UInt16 footprint of the given size.
func Metadata(width, height int) raster.Metadata {
	return raster.Metadata{
		Width:           width,
		Height:          height,
		Projection:      Projection,
		GeoTransform:    [6]float64{600000, 10, 0, 6300000, 0, -10},
		HasGeoTransform: true,
		DataType:        godal.UInt16,
		BandCount:       1,
	}
}

// Grid builds a grid from row slices.
func Grid(rows ...[]float64) raster.Grid {
	g := raster.NewGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		copy(g.Data[y*g.Width:], row)
	}
	return g
}

// Fill builds a grid with every pixel set to v.
func Fill(width, height int, v float64) raster.Grid {
	g := raster.NewGrid(width, height)
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

// WriteBand writes a single-band GeoTIFF named name into dir and returns its path.
func WriteBand(t testing.TB, dir, name string, meta raster.Metadata, grid raster.Grid) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := raster.Create(path, meta, 1)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer w.Discard()
	if err := w.WriteBand(1, grid); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
	return path
}

// ReadAll reads every band of the raster at path.
func ReadAll(t testing.TB, path string) (raster.Metadata, []raster.Grid) {
	t.Helper()
	ds, err := godal.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	meta := raster.Metadata{
		Width:      st.SizeX,
		Height:     st.SizeY,
		Projection: ds.Projection(),
		DataType:   st.DataType,
		BandCount:  st.NBands,
	}
	if gt, err := ds.GeoTransform(); err == nil {
		meta.GeoTransform = gt
		meta.HasGeoTransform = true
	}
	var grids []raster.Grid
	for i, band := range ds.Bands() {
		if i == 0 {
			meta.NoData, meta.HasNoData = band.NoData()
		}
		g := raster.NewGrid(st.SizeX, st.SizeY)
		if err := band.Read(0, 0, g.Data, g.Width, g.Height); err != nil {
			t.Fatalf("read band %d of %s: %v", i+1, path, err)
		}
		grids = append(grids, g)
	}
	return meta, grids
}
