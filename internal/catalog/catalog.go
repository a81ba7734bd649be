// Package catalog discovers the band files that make up one downloaded scene.
//
// All bands of a scene are expected to share dimensions, CRS and geotransform
// since they come from the same acquisition. The catalog does not open any
// raster to verify this.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/properties"
)

var (
	// ErrNotFound indicates no scene directory exists for the identifier.
	ErrNotFound = errors.New("scene not found")

	// ErrEmptyScene indicates the scene directory holds no band files.
	ErrEmptyScene = errors.New("scene has no band files")

	// ErrAlreadyExists indicates imagery for the identifier was already downloaded.
	ErrAlreadyExists = errors.New("scene already exists")

	// ErrInsufficientBands indicates an operation selected a band beyond the scene's band count.
	ErrInsufficientBands = errors.New("scene has too few bands")

	// ErrInvalidBandIndex indicates a band selection that is not a positive band number.
	ErrInvalidBandIndex = errors.New("invalid band index")
)

// Scene is the ordered set of band files of a single acquisition.
type Scene struct {
	ID    string
	Dir   string
	Bands []string
}

// BandPath returns the path of band i, counting from 1 in catalog order.
func (s Scene) BandPath(i int) (string, error) {
	if i < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidBandIndex, i)
	}
	if i > len(s.Bands) {
		return "", fmt.Errorf("%w: band %d requested, scene %s has %d", ErrInsufficientBands, i, s.ID, len(s.Bands))
	}
	return s.Bands[i-1], nil
}

// Require checks that every index selects an existing band.
func (s Scene) Require(indices ...int) error {
	if len(indices) == 0 {
		return fmt.Errorf("%w: no bands selected", ErrInvalidBandIndex)
	}
	for _, i := range indices {
		if _, err := s.BandPath(i); err != nil {
			return err
		}
	}
	return nil
}

// Catalog resolves scene identifiers to band files under an image directory.
type Catalog struct {
	imageDir   string
	prefix     string
	extensions []string
}

func New(cfg properties.Config) *Catalog {
	exts := make([]string, 0, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts = append(exts, strings.ToLower(e))
	}
	return &Catalog{
		imageDir:   cfg.ImageDir,
		prefix:     cfg.ScenePrefix,
		extensions: exts,
	}
}

// SceneDir is the directory a scene with the given identifier is stored in.
func (c *Catalog) SceneDir(id string) string {
	return filepath.Join(c.imageDir, c.prefix+id)
}

// Find lists the band files of the scene ordered by file name, which for
// standard product naming is ascending band number.
func (c *Catalog) Find(id string) (Scene, error) {
	if strings.TrimSpace(id) == "" {
		return Scene{}, fmt.Errorf("%w: empty scene id", ErrNotFound)
	}
	sceneDir := c.SceneDir(id)
	info, err := os.Stat(sceneDir)
	if err != nil || !info.IsDir() {
		return Scene{}, fmt.Errorf("%w: %s", ErrNotFound, sceneDir)
	}

	dir, err := bandDir(sceneDir)
	if err != nil {
		return Scene{}, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Scene{}, fmt.Errorf("failed to list scene directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !c.eligible(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return Scene{}, fmt.Errorf("%w: %s", ErrEmptyScene, dir)
	}
	sort.Strings(names)

	bands := make([]string, len(names))
	for i, name := range names {
		bands[i] = filepath.Join(dir, name)
	}
	return Scene{ID: id, Dir: dir, Bands: bands}, nil
}

// List returns the identifiers of all scenes present in the image directory.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.imageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list image directory: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), c.prefix) {
			continue
		}
		if id := strings.TrimPrefix(entry.Name(), c.prefix); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// EnsureAbsent returns ErrAlreadyExists when imagery for id is already on disk.
func (c *Catalog) EnsureAbsent(id string) error {
	if _, err := os.Stat(c.SceneDir(id)); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, c.SceneDir(id))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check scene directory: %w", err)
	}
	return nil
}

func (c *Catalog) eligible(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range c.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// bandDir follows the SAFE layout GRANULE/<granule>/IMG_DATA when present and
// falls back to the scene directory itself.
func bandDir(sceneDir string) (string, error) {
	granuleRoot := filepath.Join(sceneDir, "GRANULE")
	entries, err := os.ReadDir(granuleRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return sceneDir, nil
		}
		return "", fmt.Errorf("failed to list granules: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		imgData := filepath.Join(granuleRoot, entry.Name(), "IMG_DATA")
		if info, err := os.Stat(imgData); err == nil && info.IsDir() {
			return imgData, nil
		}
	}
	return "", fmt.Errorf("%w: no IMG_DATA directory under %s", ErrEmptyScene, granuleRoot)
}
