package delivery

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/catalog"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/composite"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/properties"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/raster"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/report"
	"github.com/forest-guardian/maxsatt-scene-cli/internal/spectral"
)

type Product string

const (
	RGB  Product = "rgb"
	NDVI Product = "ndvi"
	NDWI Product = "ndwi"
)

// AllProducts is the order a full run produces its outputs in.
var AllProducts = []Product{RGB, NDVI, NDWI}

var ErrUnknownProduct = errors.New("unknown product")

func ParseProduct(s string) (Product, error) {
	p := Product(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllProducts {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProduct, s)
}

// Notifier receives run outcomes.
type Notifier interface {
	Error(message string) error
	Success(message string) error
}

type Runner struct {
	cfg      properties.Config
	catalog  *catalog.Catalog
	reports  *report.Store[report.Run]
	notifier Notifier
	progress io.Writer
}

type Option func(*Runner)

func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithProgress shows a progress bar on w.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) { r.progress = w }
}

func NewRunner(cfg properties.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		catalog:  catalog.New(cfg),
		reports:  report.NewStore[report.Run](ReportDir(cfg)),
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Catalog() *catalog.Catalog {
	return r.catalog
}

// EnsureLayout creates one output directory per product plus the report directory.
func EnsureLayout(cfg properties.Config) error {
	dirs := []string{ReportDir(cfg)}
	for _, p := range AllProducts {
		dirs = append(dirs, filepath.Join(cfg.OutputDir, string(p)))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
	}
	return nil
}

// OutputPath is where product p of a scene is written, e.g.
// <output>/ndvi/sentinelLV_ndvi.tif.
func OutputPath(cfg properties.Config, sceneID string, p Product) string {
	name := fmt.Sprintf("%s%s_%s.tif", cfg.ScenePrefix, sceneID, p)
	return filepath.Join(cfg.OutputDir, string(p), name)
}

func ReportDir(cfg properties.Config) string {
	return filepath.Join(cfg.OutputDir, "reports")
}

func SummaryPath(cfg properties.Config) string {
	return filepath.Join(ReportDir(cfg), "summary.csv")
}

func (r *Runner) reportKey(sceneID string) string {
	return r.cfg.ScenePrefix + sceneID
}

// Run produces the requested products for one scene, all of them when none
// are given. It stops at the first failing product; outputs finished before
// it stay in place.
func (r *Runner) Run(sceneID string, products ...Product) (*report.Run, error) {
	if len(products) == 0 {
		products = AllProducts
	}
	run := &report.Run{
		RunID:     uuid.NewString(),
		SceneID:   sceneID,
		StartedAt: time.Now().UTC(),
	}
	log := logrus.WithFields(logrus.Fields{"scene": sceneID, "run": run.RunID})

	scene, err := r.catalog.Find(sceneID)
	if err != nil {
		return run, r.fail(run, err, false)
	}
	run.SceneDir = scene.Dir
	log.WithField("bands", len(scene.Bands)).Debug("scene found")

	if err := EnsureLayout(r.cfg); err != nil {
		return run, r.fail(run, err, false)
	}

	bar := progressbar.NewOptions(len(products),
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription(fmt.Sprintf("Processing %s", sceneID)),
		progressbar.OptionShowCount(),
	)
	for _, p := range products {
		bar.Describe(fmt.Sprintf("Processing %s %s", sceneID, p))
		if err := r.produce(scene, p, run); err != nil {
			bar.Exit()
			return run, r.fail(run, fmt.Errorf("%s: %w", p, err), true)
		}
		bar.Add(1)
	}
	bar.Finish()

	run.FinishedAt = time.Now().UTC()
	if err := r.persist(*run); err != nil {
		return run, err
	}
	log.Info("scene processed")

	if err := r.notify().Success(FormatRun(*run)); err != nil {
		log.WithError(err).Warn("failed to send success notification")
	}
	return run, nil
}

func (r *Runner) produce(scene catalog.Scene, p Product, run *report.Run) error {
	path := OutputPath(r.cfg, scene.ID, p)
	switch p {
	case RGB:
		meta, err := composite.Composite(scene, r.cfg.CompositeBands, path)
		if err != nil {
			return err
		}
		run.Composite = path
		setFootprint(run, meta)
		return nil
	case NDVI, NDWI:
		preset := spectral.NDVI(r.cfg.NDVI.A, r.cfg.NDVI.B)
		if p == NDWI {
			preset = spectral.NDWI(r.cfg.NDWI.A, r.cfg.NDWI.B)
		}
		summary, err := spectral.Calculate(scene, preset, path)
		if err != nil {
			return err
		}
		run.Indexes = append(run.Indexes, report.Index{
			Name:    summary.Name,
			Path:    summary.Path,
			Mean:    report.MeanValue(summary.Mean),
			Valid:   summary.Valid,
			Invalid: summary.Invalid,
		})
		setFootprint(run, summary.Metadata)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProduct, p)
	}
}

// setFootprint records the product extent, projected and in lon/lat. Products
// without a projection keep only the projected extent.
func setFootprint(run *report.Run, meta raster.Metadata) {
	run.Footprint = meta.Bounds()
	lonLat, err := meta.LonLatBounds()
	if err != nil {
		logrus.WithError(err).WithField("scene", run.SceneID).Debug("footprint has no lon/lat extent")
		run.LonLat = nil
		return
	}
	run.LonLat = &lonLat
}

// fail records err on the run, persisting the report when the scene was found,
// and returns err unchanged.
func (r *Runner) fail(run *report.Run, err error, persist bool) error {
	run.Error = err.Error()
	run.FinishedAt = time.Now().UTC()
	log := logrus.WithFields(logrus.Fields{"scene": run.SceneID, "run": run.RunID})
	if persist {
		if perr := r.persist(*run); perr != nil {
			log.WithError(perr).Warn("failed to persist report")
		}
	}
	if nerr := r.notify().Error(fmt.Sprintf("Scene %s: %s", run.SceneID, err)); nerr != nil {
		log.WithError(nerr).Warn("failed to send error notification")
	}
	return err
}

func (r *Runner) persist(run report.Run) error {
	key := r.reportKey(run.SceneID)
	if err := r.reports.Set(key, run); err != nil {
		return err
	}
	if err := report.AppendSummary(SummaryPath(r.cfg), run.Rows()); err != nil {
		return err
	}
	if run.LonLat != nil {
		footprint := filepath.Join(ReportDir(r.cfg), key+"_footprint.geojson")
		if err := report.WriteFootprint(footprint, run); err != nil {
			return fmt.Errorf("failed to write footprint: %w", err)
		}
	}
	return nil
}

// LastReport returns the most recent stored report for a scene.
func (r *Runner) LastReport(sceneID string) (report.Run, bool) {
	return r.reports.Get(r.reportKey(sceneID))
}

func (r *Runner) notify() Notifier {
	if r.notifier == nil {
		return nopNotifier{}
	}
	return r.notifier
}

type nopNotifier struct{}

func (nopNotifier) Error(string) error   { return nil }
func (nopNotifier) Success(string) error { return nil }

// FormatRun renders a run report for humans.
func FormatRun(run report.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scene %s (run %s)\n", run.SceneID, run.RunID)
	if run.Composite != "" {
		fmt.Fprintf(&b, "True color composite: %s\n", run.Composite)
	}
	for _, idx := range run.Indexes {
		mean := "n/a (no valid pixels)"
		if idx.Mean != nil {
			mean = fmt.Sprintf("%.6f", *idx.Mean)
		}
		fmt.Fprintf(&b, "Mean %s of raster: %s (%d valid, %d invalid pixels)\n",
			strings.ToUpper(idx.Name), mean, idx.Valid, idx.Invalid)
		fmt.Fprintf(&b, "  %s\n", idx.Path)
	}
	if run.Error != "" {
		fmt.Fprintf(&b, "Failed: %s\n", run.Error)
	}
	return strings.TrimRight(b.String(), "\n")
}
