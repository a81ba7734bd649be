package raster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Writer builds a GeoTIFF at a hidden temporary path next to the output and
// renames it into place on Close, so a failed write never replaces an earlier
// good file.
//
//	w, err := raster.Create(path, meta, n)
//	if err != nil { ... }
//	defer w.Discard()
//	... w.WriteBand(i, grid) for i in 1..n ...
//	return w.Close()
type Writer struct {
	path    string
	tmpPath string
	meta    Metadata
	ds      *godal.Dataset
	written []bool
	done    bool
}

// Create opens a new raster with bandCount bands. Size, projection, geotransform,
// data type and nodata are copied from meta.
func Create(outputPath string, meta Metadata, bandCount int) (*Writer, error) {
	registerDrivers()

	if bandCount < 1 {
		return nil, fmt.Errorf("%w: band count %d", ErrInvalidMetadata, bandCount)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Dir(outputPath)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPath, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrPath, dir)
	}

	meta.BandCount = bandCount
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(outputPath), uuid.NewString()))

	ds, err := godal.Create(godal.GTiff, tmpPath, bandCount, meta.DataType, meta.Width, meta.Height)
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: cannot create %s: %v", ErrPath, outputPath, err)
	}

	w := &Writer{
		path:    outputPath,
		tmpPath: tmpPath,
		meta:    meta,
		ds:      ds,
		written: make([]bool, bandCount),
	}
	if err := w.applyMetadata(); err != nil {
		w.Discard()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"path":  outputPath,
		"bands": bandCount,
	}).Debug("created raster")
	return w, nil
}

func (w *Writer) applyMetadata() error {
	if w.meta.HasGeoTransform {
		if err := w.ds.SetGeoTransform(w.meta.GeoTransform); err != nil {
			return fmt.Errorf("failed to set geotransform: %w", err)
		}
	}
	if w.meta.Projection != "" {
		if err := w.ds.SetProjection(w.meta.Projection); err != nil {
			return fmt.Errorf("failed to set projection: %w", err)
		}
	}
	if w.meta.HasNoData {
		for i, band := range w.ds.Bands() {
			if err := band.SetNoData(w.meta.NoData); err != nil {
				return fmt.Errorf("failed to set nodata on band %d: %w", i+1, err)
			}
		}
	}
	return nil
}

// Metadata is the layout the output is written with.
func (w *Writer) Metadata() Metadata {
	return w.meta
}

// WriteBand writes grid as band i, counting from 1.
func (w *Writer) WriteBand(i int, grid Grid) error {
	if w.ds == nil {
		return fmt.Errorf("%w: %s", ErrClosed, w.path)
	}
	if i < 1 || i > w.meta.BandCount {
		return fmt.Errorf("%w: band %d of %d", ErrBandIndexOutOfRange, i, w.meta.BandCount)
	}
	if err := grid.validate(); err != nil {
		return err
	}
	if grid.Width != w.meta.Width || grid.Height != w.meta.Height {
		return fmt.Errorf("%w: got %dx%d, raster is %dx%d",
			ErrShapeMismatch, grid.Width, grid.Height, w.meta.Width, w.meta.Height)
	}
	if err := w.ds.Bands()[i-1].Write(0, 0, grid.Data, grid.Width, grid.Height); err != nil {
		return fmt.Errorf("failed to write band %d of %s: %w", i, w.path, err)
	}
	w.written[i-1] = true
	return nil
}

// Close flushes the raster and moves it to the output path. If any band was
// left unwritten, or flushing fails, the temporary file is removed instead.
func (w *Writer) Close() error {
	if w.done {
		return nil
	}
	for i, ok := range w.written {
		if !ok {
			w.Discard()
			return fmt.Errorf("%w: band %d of %s was never written", ErrIncomplete, i+1, w.path)
		}
	}

	err := w.ds.Close()
	w.ds = nil
	if err != nil {
		w.Discard()
		return fmt.Errorf("failed to finalize %s: %w", w.path, err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		w.Discard()
		return fmt.Errorf("failed to move raster into place: %w", err)
	}
	w.done = true

	logrus.WithField("path", w.path).Debug("raster written")
	return nil
}

// Discard abandons the raster and removes its temporary file. It does nothing
// after a successful Close, so it can always be deferred.
func (w *Writer) Discard() error {
	if w.done {
		return nil
	}
	w.done = true

	var errs []error
	if w.ds != nil {
		if err := w.ds.Close(); err != nil {
			errs = append(errs, err)
		}
		w.ds = nil
	}
	if err := os.Remove(w.tmpPath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	os.Remove(w.tmpPath + ".aux.xml")
	if err := errors.Join(errs...); err != nil {
		logrus.WithError(err).WithField("path", w.path).Warn("failed to discard raster")
		return err
	}
	return nil
}
