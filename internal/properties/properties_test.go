package properties

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"ROOT_PATH", "IMAGE_DIR", "OUTPUT_DIR", "SCENE_PREFIX", "LOG_LEVEL",
		"BAND_EXTENSIONS", "COMPOSITE_BANDS", "NDVI_BANDS", "NDWI_BANDS",
		"DISCORD_ERROR_NOTIFICATION_URL", "DISCORD_SUCCESS_NOTIFICATION_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	t.Setenv("ROOT_PATH", root)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.RootPath)
	assert.Equal(t, filepath.Join(root, "data", "image"), cfg.ImageDir)
	assert.Equal(t, filepath.Join(root, "data", "processed"), cfg.OutputDir)
	assert.Equal(t, "sentinel", cfg.ScenePrefix)
	assert.Equal(t, []int{4, 3, 2}, cfg.CompositeBands)
	assert.Equal(t, BandPair{A: 4, B: 8}, cfg.NDVI)
	assert.Equal(t, BandPair{A: 3, B: 8}, cfg.NDWI)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "maxsatt.toml")
	content := `
root_path = "/srv/maxsatt"
scene_prefix = "landsat"
extensions = [".TIF"]

[bands]
composite = [3, 2, 1]
ndvi = [3, 4]
ndwi = [2, 4]

[discord]
error_url = "http://example.test/error"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/maxsatt", cfg.RootPath)
	assert.Equal(t, "landsat", cfg.ScenePrefix)
	assert.Equal(t, []string{".TIF"}, cfg.Extensions)
	assert.Equal(t, []int{3, 2, 1}, cfg.CompositeBands)
	assert.Equal(t, BandPair{A: 3, B: 4}, cfg.NDVI)
	assert.Equal(t, BandPair{A: 2, B: 4}, cfg.NDWI)
	assert.Equal(t, "http://example.test/error", cfg.DiscordErrorURL)
	assert.Empty(t, cfg.DiscordSuccessURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "maxsatt.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bands]\ncomposite = [1, 2, 3]\n"), 0644))

	t.Setenv("ROOT_PATH", dir)
	t.Setenv("COMPOSITE_BANDS", "4, 3, 2, 8")
	t.Setenv("NDVI_BANDS", "5,9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 2, 8}, cfg.CompositeBands)
	assert.Equal(t, BandPair{A: 5, B: 9}, cfg.NDVI)
}

func TestLoad_InvalidBands(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"non numeric composite", "COMPOSITE_BANDS", "4,x,2"},
		{"zero composite band", "COMPOSITE_BANDS", "0,1"},
		{"ndvi pair too long", "NDVI_BANDS", "4,8,2"},
		{"ndwi same band", "NDWI_BANDS", "8,8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ROOT_PATH", t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseBands(t *testing.T) {
	bands, err := ParseBands(" 4,3 ,2 ")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3, 2}, bands)

	_, err = ParseBands(" , ")
	assert.Error(t, err)
}
