package spectral

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/sirupsen/logrus"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/catalog"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/raster"
)

// Preset names a normalized difference over two scene bands (1-based).
// The index is (B - A) / (B + A).
type Preset struct {
	Name string
	A    int
	B    int
}

// NDVI is the vegetation index (NIR - red) / (NIR + red).
func NDVI(red, nir int) Preset {
	return Preset{Name: "ndvi", A: red, B: nir}
}

// NDWI is the water index (NIR - green) / (NIR + green).
func NDWI(green, nir int) Preset {
	return Preset{Name: "ndwi", A: green, B: nir}
}

// Summary describes a written index raster.
type Summary struct {
	Name     string
	Path     string
	Mean     float64
	Valid    int
	Invalid  int
	Metadata raster.Metadata
}

// Calculate computes the preset's index for scene and writes it to outputPath as
// a single-band Float64 raster with the footprint of band B.
func Calculate(scene catalog.Scene, preset Preset, outputPath string) (Summary, error) {
	bands, err := raster.OpenScene(scene, preset.A, preset.B)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", preset.Name, err)
	}
	defer bands.Close()
	bandA, bandB := bands.Bands[0], bands.Bands[1]
	if !bandA.Metadata().SameFootprint(bandB.Metadata()) {
		logrus.WithFields(logrus.Fields{
			"index": preset.Name,
			"a":     bandA.Path(),
			"b":     bandB.Path(),
		}).Warn("index bands differ in footprint, output follows band B")
	}

	a, err := bandA.Read()
	if err != nil {
		return Summary{}, err
	}
	b, err := bandB.Read()
	if err != nil {
		return Summary{}, err
	}

	product, err := NormalizedDifference(a, b)
	if err != nil {
		return Summary{}, fmt.Errorf("%s: %w", preset.Name, err)
	}
	for _, src := range []struct {
		band *raster.Band
		grid raster.Grid
	}{{bandA, a}, {bandB, b}} {
		if meta := src.band.Metadata(); meta.HasNoData {
			product.MaskNoData(src.grid, meta.NoData)
		}
	}

	meta := bandB.Metadata()
	meta.DataType = godal.Float64
	meta.NoData, meta.HasNoData = Invalid(), true

	w, err := raster.Create(outputPath, meta, 1)
	if err != nil {
		return Summary{}, err
	}
	defer w.Discard()
	if err := w.WriteBand(1, product.Grid); err != nil {
		return Summary{}, err
	}
	if err := w.Close(); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Name:     preset.Name,
		Path:     outputPath,
		Mean:     SummaryStatistic(product),
		Valid:    product.ValidCount(),
		Invalid:  product.InvalidCount,
		Metadata: w.Metadata(),
	}
	logrus.WithFields(logrus.Fields{
		"index":   preset.Name,
		"path":    outputPath,
		"mean":    summary.Mean,
		"invalid": summary.Invalid,
	}).Info("index written")
	return summary, nil
}
