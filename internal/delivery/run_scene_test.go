package delivery

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/catalog"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/properties"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/raster/rastertest"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/report"
)

type recordingNotifier struct {
	errors    []string
	successes []string
}

func (n *recordingNotifier) Error(msg string) error {
	n.errors = append(n.errors, msg)
	return nil
}

func (n *recordingNotifier) Success(msg string) error {
	n.successes = append(n.successes, msg)
	return nil
}

func testConfig(t *testing.T) properties.Config {
	t.Helper()
	root := t.TempDir()
	cfg := properties.Default()
	cfg.RootPath = root
	cfg.ImageDir = filepath.Join(root, "data", "image")
	cfg.OutputDir = filepath.Join(root, "data", "processed")
	return cfg
}

// writeScene writes bands B01..Bn, band i filled with i*10.
func writeScene(t *testing.T, cfg properties.Config, id string, n int) {
	t.Helper()
	dir := filepath.Join(cfg.ImageDir, cfg.ScenePrefix+id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	meta := rastertest.Metadata(2, 2)
	for i := 1; i <= n; i++ {
		rastertest.WriteBand(t, dir, fmt.Sprintf("B%02d.tif", i), meta, rastertest.Fill(2, 2, float64(i*10)))
	}
}

func TestParseProduct(t *testing.T) {
	p, err := ParseProduct(" NDVI ")
	require.NoError(t, err)
	assert.Equal(t, NDVI, p)

	_, err = ParseProduct("evi")
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestOutputPath(t *testing.T) {
	cfg := properties.Default()
	cfg.OutputDir = "/data/processed"
	assert.Equal(t, filepath.Join("/data/processed", "ndwi", "sentinelLV_ndwi.tif"), OutputPath(cfg, "LV", NDWI))
	assert.Equal(t, filepath.Join("/data/processed", "rgb", "sentinelLV_rgb.tif"), OutputPath(cfg, "LV", RGB))
}

func TestEnsureLayout(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, EnsureLayout(cfg))
	require.NoError(t, EnsureLayout(cfg))
	for _, sub := range []string{"rgb", "ndvi", "ndwi", "reports"} {
		assert.DirExists(t, filepath.Join(cfg.OutputDir, sub))
	}
}

func TestRun_AllProducts(t *testing.T) {
	cfg := testConfig(t)
	writeScene(t, cfg, "LV", 8)
	notifier := &recordingNotifier{}
	var progress bytes.Buffer
	r := NewRunner(cfg, WithNotifier(notifier), WithProgress(&progress))

	run, err := r.Run("LV")
	require.NoError(t, err)
	assert.Empty(t, run.Error)
	assert.NotEmpty(t, run.RunID)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	for _, p := range AllProducts {
		assert.FileExists(t, OutputPath(cfg, "LV", p))
	}
	assert.Equal(t, OutputPath(cfg, "LV", RGB), run.Composite)

	require.Len(t, run.Indexes, 2)
	// NDVI: red=40, nir=80 -> 40/120
	assert.Equal(t, "ndvi", run.Indexes[0].Name)
	require.NotNil(t, run.Indexes[0].Mean)
	assert.InDelta(t, 1.0/3.0, *run.Indexes[0].Mean, 1e-9)
	assert.Equal(t, 4, run.Indexes[0].Valid)
	// NDWI: green=30, nir=80 -> 50/110
	assert.Equal(t, "ndwi", run.Indexes[1].Name)
	require.NotNil(t, run.Indexes[1].Mean)
	assert.InDelta(t, 50.0/110.0, *run.Indexes[1].Mean, 1e-9)

	assert.Equal(t, 600000.0, run.Footprint.Min[0])
	assert.Equal(t, 6300000.0, run.Footprint.Max[1])

	_, grids := rastertest.ReadAll(t, run.Composite)
	require.Len(t, grids, 3)
	assert.Equal(t, 40.0, grids[0].At(0, 0))
	assert.Equal(t, 30.0, grids[1].At(0, 0))
	assert.Equal(t, 20.0, grids[2].At(0, 0))

	stored, ok := r.LastReport("LV")
	require.True(t, ok)
	assert.Equal(t, run.RunID, stored.RunID)

	rows, err := report.ReadSummary(SummaryPath(cfg))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	require.NotNil(t, run.LonLat)
	raw, err := os.ReadFile(filepath.Join(ReportDir(cfg), "sentinelLV_footprint.geojson"))
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	bound := fc.Features[0].Geometry.Bound()
	assert.Equal(t, *run.LonLat, bound)
	for _, p := range []orb.Point{bound.Min, bound.Max} {
		assert.True(t, p[0] >= -180 && p[0] <= 180, "longitude %f", p[0])
		assert.True(t, p[1] >= -90 && p[1] <= 90, "latitude %f", p[1])
	}
	assert.InDelta(t, 28.64, bound.Min[0], 0.2)
	assert.InDelta(t, 56.82, bound.Max[1], 0.2)

	require.Len(t, notifier.successes, 1)
	assert.Contains(t, notifier.successes[0], "Mean NDVI of raster: 0.333333")
	assert.Empty(t, notifier.errors)
}

func TestRun_SelectedProducts(t *testing.T) {
	cfg := testConfig(t)
	writeScene(t, cfg, "LV", 8)
	r := NewRunner(cfg)

	run, err := r.Run("LV", NDWI)
	require.NoError(t, err)
	assert.Empty(t, run.Composite)
	require.Len(t, run.Indexes, 1)
	assert.FileExists(t, OutputPath(cfg, "LV", NDWI))
	assert.NoFileExists(t, OutputPath(cfg, "LV", NDVI))
	assert.NoFileExists(t, OutputPath(cfg, "LV", RGB))
}

func TestRun_SceneNotFound(t *testing.T) {
	cfg := testConfig(t)
	notifier := &recordingNotifier{}
	r := NewRunner(cfg, WithNotifier(notifier))

	run, err := r.Run("XX")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.NotEmpty(t, run.Error)
	require.Len(t, notifier.errors, 1)
	assert.Contains(t, notifier.errors[0], "XX")

	_, ok := r.LastReport("XX")
	assert.False(t, ok)
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestRun_StopsAtFirstFailureKeepingEarlierProducts(t *testing.T) {
	cfg := testConfig(t)
	// Four bands cover the composite but not the NIR band of either index.
	writeScene(t, cfg, "LV", 4)
	notifier := &recordingNotifier{}
	r := NewRunner(cfg, WithNotifier(notifier))

	run, err := r.Run("LV")
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrInsufficientBands))

	assert.FileExists(t, OutputPath(cfg, "LV", RGB))
	assert.NoFileExists(t, OutputPath(cfg, "LV", NDVI))
	assert.NoFileExists(t, OutputPath(cfg, "LV", NDWI))
	assert.Empty(t, run.Indexes)
	assert.Contains(t, run.Error, "ndvi")

	stored, ok := r.LastReport("LV")
	require.True(t, ok)
	assert.Equal(t, run.Error, stored.Error)
	assert.Len(t, notifier.errors, 1)
	assert.Empty(t, notifier.successes)
}

func TestRun_AllInvalidIndexHasNoMean(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.ImageDir, "sentinelZERO")
	require.NoError(t, os.MkdirAll(dir, 0755))
	meta := rastertest.Metadata(2, 1)
	for i := 1; i <= 8; i++ {
		rastertest.WriteBand(t, dir, fmt.Sprintf("B%02d.tif", i), meta, rastertest.Fill(2, 1, 0))
	}

	run, err := NewRunner(cfg).Run("ZERO", NDVI)
	require.NoError(t, err)
	require.Len(t, run.Indexes, 1)
	assert.Nil(t, run.Indexes[0].Mean)
	assert.Equal(t, 2, run.Indexes[0].Invalid)
	assert.Contains(t, FormatRun(*run), "n/a (no valid pixels)")

	_, grids := rastertest.ReadAll(t, OutputPath(cfg, "ZERO", NDVI))
	assert.True(t, math.IsNaN(grids[0].At(0, 0)))
}

func TestFormatRun(t *testing.T) {
	mean := 0.125
	out := FormatRun(report.Run{
		RunID:     "r1",
		SceneID:   "LV",
		Composite: "/out/rgb/sentinelLV_rgb.tif",
		Indexes:   []report.Index{{Name: "ndvi", Path: "/out/ndvi/sentinelLV_ndvi.tif", Mean: &mean, Valid: 3, Invalid: 1}},
		Error:     "ndwi: boom",
	})
	assert.Contains(t, out, "Scene LV (run r1)")
	assert.Contains(t, out, "True color composite: /out/rgb/sentinelLV_rgb.tif")
	assert.Contains(t, out, "Mean NDVI of raster: 0.125000 (3 valid, 1 invalid pixels)")
	assert.Contains(t, out, "Failed: ndwi: boom")
}

func TestRun_UnprojectedSceneSkipsFootprintFile(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.ImageDir, "sentinelRAW")
	require.NoError(t, os.MkdirAll(dir, 0755))
	meta := rastertest.Metadata(2, 2)
	meta.Projection = ""
	meta.HasGeoTransform = false
	for i := 1; i <= 8; i++ {
		rastertest.WriteBand(t, dir, fmt.Sprintf("B%02d.tif", i), meta, rastertest.Fill(2, 2, float64(i*10)))
	}

	run, err := NewRunner(cfg).Run("RAW", NDVI)
	require.NoError(t, err)
	assert.Nil(t, run.LonLat)
	assert.Equal(t, 2.0, run.Footprint.Max[0])
	assert.NoFileExists(t, filepath.Join(ReportDir(cfg), "sentinelRAW_footprint.geojson"))

	_, ok := NewRunner(cfg).LastReport("RAW")
	assert.True(t, ok)
}
