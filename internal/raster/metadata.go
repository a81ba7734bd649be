package raster

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
)

// Metadata is the spatial footprint and pixel layout of a raster. Outputs copy
// it verbatim from a reference band.
type Metadata struct {
	Width           int
	Height          int
	Projection      string
	GeoTransform    [6]float64
	HasGeoTransform bool
	DataType        godal.DataType
	NoData          float64
	HasNoData       bool
	BandCount       int
}

// Validate rejects layouts that cannot back a raster file.
func (m Metadata) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidMetadata, m.Width, m.Height)
	}
	if m.DataType == godal.Unknown {
		return fmt.Errorf("%w: unknown pixel data type", ErrInvalidMetadata)
	}
	return nil
}

// SameFootprint reports whether both rasters cover the same pixels in the same
// coordinate system: size, projection and geotransform are all equal.
func (m Metadata) SameFootprint(o Metadata) bool {
	return m.Width == o.Width &&
		m.Height == o.Height &&
		m.Projection == o.Projection &&
		m.HasGeoTransform == o.HasGeoTransform &&
		m.GeoTransform == o.GeoTransform
}

// Bounds returns the raster extent in the coordinates of its projection.
// Without a geotransform the extent is given in pixel space.
func (m Metadata) Bounds() orb.Bound {
	xs, ys := m.corners()
	return boundOf(xs, ys)
}

// LonLatBounds returns the extent reprojected to WGS84 longitude/latitude,
// as the box around the four transformed corners.
func (m Metadata) LonLatBounds() (orb.Bound, error) {
	if !m.HasGeoTransform || m.Projection == "" {
		return orb.Bound{}, fmt.Errorf("%w: no projection or geotransform", ErrNotGeoreferenced)
	}

	srcSR, err := godal.NewSpatialRefFromWKT(m.Projection)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("%w: %v", ErrNotGeoreferenced, err)
	}
	defer srcSR.Close()
	dstSR, err := godal.NewSpatialRefFromEPSG(4326) // WGS84
	if err != nil {
		return orb.Bound{}, fmt.Errorf("failed to create WGS84 spatial ref: %w", err)
	}
	defer dstSR.Close()
	tr, err := godal.NewTransform(srcSR, dstSR)
	if err != nil {
		return orb.Bound{}, fmt.Errorf("%w: %v", ErrNotGeoreferenced, err)
	}
	defer tr.Close()

	// godal spatial refs keep x as longitude
	xs, ys := m.corners()
	if err := tr.TransformEx(xs, ys, nil, nil); err != nil {
		return orb.Bound{}, fmt.Errorf("transform error: %w", err)
	}
	return boundOf(xs, ys), nil
}

// corners returns the x and y coordinates of the four raster corners.
func (m Metadata) corners() ([]float64, []float64) {
	gt := m.GeoTransform
	if !m.HasGeoTransform {
		gt = [6]float64{0, 1, 0, 0, 0, 1}
	}
	w, h := float64(m.Width), float64(m.Height)
	pixels := [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}}

	xs := make([]float64, len(pixels))
	ys := make([]float64, len(pixels))
	for i, c := range pixels {
		xs[i] = gt[0] + c[0]*gt[1] + c[1]*gt[2]
		ys[i] = gt[3] + c[0]*gt[4] + c[1]*gt[5]
	}
	return xs, ys
}

func boundOf(xs, ys []float64) orb.Bound {
	bound := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for i := range xs {
		bound = bound.Extend(orb.Point{xs[i], ys[i]})
	}
	return bound
}
