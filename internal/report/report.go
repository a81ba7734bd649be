// Package report persists what each processing run produced.
package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Index is the outcome of one normalized-difference product.
// Mean is nil when the product has no valid pixel.
type Index struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Mean    *float64 `json:"mean"`
	Valid   int      `json:"valid_pixels"`
	Invalid int      `json:"invalid_pixels"`
}

// Run is the report of one scene run.
type Run struct {
	RunID      string    `json:"run_id"`
	SceneID    string    `json:"scene_id"`
	SceneDir   string    `json:"scene_dir"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Composite  string    `json:"composite,omitempty"`
	Indexes    []Index   `json:"indexes"`
	Footprint  orb.Bound `json:"footprint"`
	// LonLat is the footprint in WGS84 longitude/latitude, nil when the
	// products carry no projection.
	LonLat *orb.Bound `json:"footprint_lonlat,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// ErrNoLonLat indicates a run whose footprint could not be placed on the globe.
var ErrNoLonLat = errors.New("run has no lon/lat footprint")

// MeanValue converts a summary mean into the nullable report form.
func MeanValue(mean float64) *float64 {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil
	}
	return &mean
}

// SummaryRow is one line of the cumulative summary.csv.
type SummaryRow struct {
	RunID    string `csv:"run_id"`
	SceneID  string `csv:"scene_id"`
	Product  string `csv:"product"`
	Path     string `csv:"path"`
	Mean     string `csv:"mean"`
	Valid    int    `csv:"valid_pixels"`
	Invalid  int    `csv:"invalid_pixels"`
	Finished string `csv:"finished_at"`
}

// Rows flattens the run's index results.
func (r Run) Rows() []*SummaryRow {
	rows := make([]*SummaryRow, 0, len(r.Indexes))
	for _, idx := range r.Indexes {
		mean := "NaN"
		if idx.Mean != nil {
			mean = fmt.Sprintf("%.6f", *idx.Mean)
		}
		rows = append(rows, &SummaryRow{
			RunID:    r.RunID,
			SceneID:  r.SceneID,
			Product:  idx.Name,
			Path:     idx.Path,
			Mean:     mean,
			Valid:    idx.Valid,
			Invalid:  idx.Invalid,
			Finished: r.FinishedAt.Format(time.RFC3339),
		})
	}
	return rows
}

// AppendSummary appends rows to the CSV at path, writing the header when the
// file is new or empty.
func AppendSummary(path string, rows []*SummaryRow) error {
	if len(rows) == 0 {
		return nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat summary file: %w", err)
	}
	if info.Size() == 0 {
		err = gocsv.MarshalFile(&rows, file)
	} else {
		err = gocsv.MarshalWithoutHeaders(&rows, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write summary rows: %w", err)
	}
	return nil
}

// ReadSummary loads every row of the CSV at path.
func ReadSummary(path string) ([]*SummaryRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary file: %w", err)
	}
	defer file.Close()

	var rows []*SummaryRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse summary file: %w", err)
	}
	return rows, nil
}

// WriteFootprint writes the run's lon/lat footprint as a one-feature GeoJSON
// collection.
func WriteFootprint(path string, r Run) error {
	if r.LonLat == nil {
		return fmt.Errorf("%w: scene %s", ErrNoLonLat, r.SceneID)
	}
	feature := geojson.NewFeature(r.LonLat.ToPolygon())
	feature.Properties["scene_id"] = r.SceneID
	feature.Properties["run_id"] = r.RunID

	fc := geojson.NewFeatureCollection()
	fc.Append(feature)
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode footprint: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create footprint directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
