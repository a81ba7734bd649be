package properties

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// BandPair selects the two scene bands feeding a normalized difference.
// A is subtracted from B: (B - A) / (B + A).
type BandPair struct {
	A int
	B int
}

// Config is the explicit configuration value handed to every operation.
type Config struct {
	RootPath    string
	ImageDir    string
	OutputDir   string
	ScenePrefix string
	Extensions  []string

	CompositeBands []int
	NDVI           BandPair
	NDWI           BandPair

	DiscordErrorURL   string
	DiscordSuccessURL string

	LogLevel string
}

type fileConfig struct {
	RootPath    string   `toml:"root_path"`
	ImageDir    string   `toml:"image_dir"`
	OutputDir   string   `toml:"output_dir"`
	ScenePrefix string   `toml:"scene_prefix"`
	Extensions  []string `toml:"extensions"`
	LogLevel    string   `toml:"log_level"`
	Bands       struct {
		Composite []int `toml:"composite"`
		NDVI      []int `toml:"ndvi"`
		NDWI      []int `toml:"ndwi"`
	} `toml:"bands"`
	Discord struct {
		ErrorURL   string `toml:"error_url"`
		SuccessURL string `toml:"success_url"`
	} `toml:"discord"`
}

// Default returns the configuration used when nothing else is supplied.
// Band numbers follow the Sentinel-2 file ordering: 2=blue, 3=green, 4=red, 8=NIR.
func Default() Config {
	return Config{
		ScenePrefix:    "sentinel",
		Extensions:     []string{".jp2", ".tif", ".tiff"},
		CompositeBands: []int{4, 3, 2},
		NDVI:           BandPair{A: 4, B: 8},
		NDWI:           BandPair{A: 3, B: 8},
		LogLevel:       "info",
	}
}

// Load builds a Config from the defaults, the optional TOML file at
// configFile and finally the environment.
func Load(configFile string) (Config, error) {
	cfg := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
		if err := fc.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config file %s: %w", configFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.RootPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		cfg.RootPath = wd
	}
	if cfg.ImageDir == "" {
		cfg.ImageDir = filepath.Join(cfg.RootPath, "data", "image")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.RootPath, "data", "processed")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) error {
	setString(&cfg.RootPath, fc.RootPath)
	setString(&cfg.ImageDir, fc.ImageDir)
	setString(&cfg.OutputDir, fc.OutputDir)
	setString(&cfg.ScenePrefix, fc.ScenePrefix)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.DiscordErrorURL, fc.Discord.ErrorURL)
	setString(&cfg.DiscordSuccessURL, fc.Discord.SuccessURL)
	if len(fc.Extensions) > 0 {
		cfg.Extensions = fc.Extensions
	}
	if len(fc.Bands.Composite) > 0 {
		cfg.CompositeBands = fc.Bands.Composite
	}
	var err error
	if len(fc.Bands.NDVI) > 0 {
		if cfg.NDVI, err = toPair(fc.Bands.NDVI); err != nil {
			return fmt.Errorf("bands.ndvi: %w", err)
		}
	}
	if len(fc.Bands.NDWI) > 0 {
		if cfg.NDWI, err = toPair(fc.Bands.NDWI); err != nil {
			return fmt.Errorf("bands.ndwi: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.RootPath, os.Getenv("ROOT_PATH"))
	setString(&cfg.ImageDir, os.Getenv("IMAGE_DIR"))
	setString(&cfg.OutputDir, os.Getenv("OUTPUT_DIR"))
	setString(&cfg.ScenePrefix, os.Getenv("SCENE_PREFIX"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&cfg.DiscordErrorURL, os.Getenv("DISCORD_ERROR_NOTIFICATION_URL"))
	setString(&cfg.DiscordSuccessURL, os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL"))

	if v := os.Getenv("BAND_EXTENSIONS"); v != "" {
		cfg.Extensions = splitList(v)
	}
	if v := os.Getenv("COMPOSITE_BANDS"); v != "" {
		bands, err := ParseBands(v)
		if err != nil {
			return fmt.Errorf("COMPOSITE_BANDS: %w", err)
		}
		cfg.CompositeBands = bands
	}
	for name, dst := range map[string]*BandPair{"NDVI_BANDS": &cfg.NDVI, "NDWI_BANDS": &cfg.NDWI} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		bands, err := ParseBands(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if *dst, err = toPair(bands); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Validate checks the band selections.
func (c Config) Validate() error {
	if len(c.CompositeBands) == 0 {
		return errors.New("composite band selection is empty")
	}
	for _, b := range c.CompositeBands {
		if b < 1 {
			return fmt.Errorf("composite band %d must be a positive band number", b)
		}
	}
	for name, p := range map[string]BandPair{"ndvi": c.NDVI, "ndwi": c.NDWI} {
		if p.A < 1 || p.B < 1 {
			return fmt.Errorf("%s bands must be positive band numbers, got %d,%d", name, p.A, p.B)
		}
		if p.A == p.B {
			return fmt.Errorf("%s bands must differ, got %d twice", name, p.A)
		}
	}
	if len(c.Extensions) == 0 {
		return errors.New("no band file extensions configured")
	}
	return nil
}

// ParseBands parses a comma separated list of band numbers such as "4,3,2".
func ParseBands(s string) ([]int, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, errors.New("empty band list")
	}
	bands := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid band number %q", p)
		}
		bands = append(bands, n)
	}
	return bands, nil
}

func toPair(bands []int) (BandPair, error) {
	if len(bands) != 2 {
		return BandPair{}, fmt.Errorf("expected exactly 2 bands, got %d", len(bands))
	}
	return BandPair{A: bands[0], B: bands[1]}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
