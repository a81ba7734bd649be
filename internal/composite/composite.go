// Package composite stacks selected scene bands into one multi-band raster.
package composite

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/catalog"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/raster"
)

// Composite writes the scene bands listed in bandIndices (1-based, in catalog
// order) as bands 1..n of outputPath. The first selected band supplies the
// footprint and pixel type. Which source band becomes red, green or blue is
// entirely up to the caller.
func Composite(scene catalog.Scene, bandIndices []int, outputPath string) (raster.Metadata, error) {
	if err := scene.Require(bandIndices...); err != nil {
		return raster.Metadata{}, fmt.Errorf("composite: %w", err)
	}

	first, err := openBand(scene, bandIndices[0])
	if err != nil {
		return raster.Metadata{}, err
	}
	defer first.Close()

	w, err := raster.Create(outputPath, first.Metadata(), len(bandIndices))
	if err != nil {
		return raster.Metadata{}, err
	}
	defer w.Discard()

	for i, idx := range bandIndices {
		if err := copyBand(scene, idx, first, w, i+1); err != nil {
			return raster.Metadata{}, err
		}
	}
	if err := w.Close(); err != nil {
		return raster.Metadata{}, err
	}

	logrus.WithFields(logrus.Fields{
		"scene": scene.ID,
		"bands": bandIndices,
		"path":  outputPath,
	}).Info("composite written")
	return w.Metadata(), nil
}

func openBand(scene catalog.Scene, idx int) (*raster.Band, error) {
	path, err := scene.BandPath(idx)
	if err != nil {
		return nil, err
	}
	band, err := raster.Open(path)
	if err != nil {
		return nil, fmt.Errorf("band %d of scene %s: %w", idx, scene.ID, err)
	}
	return band, nil
}

// copyBand reads scene band idx and writes it as output band dst. The already
// opened first band is reused instead of being opened twice.
func copyBand(scene catalog.Scene, idx int, first *raster.Band, w *raster.Writer, dst int) error {
	band := first
	if dst > 1 {
		var err error
		if band, err = openBand(scene, idx); err != nil {
			return err
		}
		defer band.Close()
	}

	grid, err := band.Read()
	if err != nil {
		return err
	}
	if err := w.WriteBand(dst, grid); err != nil {
		return fmt.Errorf("band %d of scene %s: %w", idx, scene.ID, err)
	}
	return nil
}
