// Package raster reads single-band rasters and writes georeferenced outputs
// through GDAL.
package raster

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/sirupsen/logrus"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/catalog"
)

var registerOnce sync.Once

func registerDrivers() {
	registerOnce.Do(godal.RegisterAll)
}

// quietErrors drops GDAL warnings and turns everything else into an error.
func quietErrors() godal.ErrorHandler {
	return func(ec godal.ErrorCategory, code int, msg string) error {
		if ec < godal.CE_Failure {
			return nil
		}
		return fmt.Errorf("gdal error %d: %s", code, msg)
	}
}

// Band is an opened raster source for one spectral channel. The caller owns it
// and must Close it.
type Band struct {
	path string
	ds   *godal.Dataset
	meta Metadata
}

// Open opens the first band of the raster file at path.
func Open(path string) (*Band, error) {
	registerDrivers()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableBand, path, err)
	}
	ds, err := godal.Open(path, godal.ErrLogger(quietErrors()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableBand, path, err)
	}

	structure := ds.Structure()
	if structure.NBands < 1 || structure.SizeX < 1 || structure.SizeY < 1 {
		ds.Close()
		return nil, fmt.Errorf("%w: %s has no raster data", ErrUnreadableBand, path)
	}

	band := ds.Bands()[0]
	meta := Metadata{
		Width:      structure.SizeX,
		Height:     structure.SizeY,
		Projection: ds.Projection(),
		DataType:   band.Structure().DataType,
		BandCount:  1,
	}
	if gt, err := ds.GeoTransform(); err == nil {
		meta.GeoTransform = gt
		meta.HasGeoTransform = true
	}
	meta.NoData, meta.HasNoData = band.NoData()

	logrus.WithFields(logrus.Fields{
		"path":   path,
		"width":  meta.Width,
		"height": meta.Height,
	}).Debug("opened band")

	return &Band{path: path, ds: ds, meta: meta}, nil
}

func (b *Band) Path() string {
	return b.path
}

// Metadata describes the band's footprint; BandCount is always 1.
func (b *Band) Metadata() Metadata {
	return b.meta
}

// Read decodes the full pixel array. The source file is not modified between
// reads, so repeated calls return identical grids.
func (b *Band) Read() (Grid, error) {
	if b.ds == nil {
		return Grid{}, fmt.Errorf("%w: %s", ErrClosed, b.path)
	}
	grid := NewGrid(b.meta.Width, b.meta.Height)
	if err := b.ds.Bands()[0].Read(0, 0, grid.Data, grid.Width, grid.Height); err != nil {
		return Grid{}, fmt.Errorf("%w: failed to read %s: %v", ErrUnreadableBand, b.path, err)
	}
	return grid, nil
}

// Close releases the file handle. Closing twice is a no-op.
func (b *Band) Close() error {
	if b.ds == nil {
		return nil
	}
	err := b.ds.Close()
	b.ds = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", b.path, err)
	}
	return nil
}

// SceneBands holds the bands opened from a scene, in selection order.
type SceneBands struct {
	Bands []*Band
}

// OpenScene opens the selected bands of a scene. On error every band opened so
// far is closed again.
func OpenScene(scene catalog.Scene, indices ...int) (*SceneBands, error) {
	if err := scene.Require(indices...); err != nil {
		return nil, err
	}
	opened := &SceneBands{}
	for _, i := range indices {
		path, _ := scene.BandPath(i)
		band, err := Open(path)
		if err != nil {
			opened.Close()
			return nil, fmt.Errorf("band %d of scene %s: %w", i, scene.ID, err)
		}
		opened.Bands = append(opened.Bands, band)
	}
	return opened, nil
}

// Close closes every band and reports all failures.
func (s *SceneBands) Close() error {
	var errs []error
	for _, b := range s.Bands {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
