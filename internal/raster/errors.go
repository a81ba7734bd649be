package raster

import "errors"

var (
	// ErrUnreadableBand indicates a band file that is missing, corrupt or in an unsupported format.
	ErrUnreadableBand = errors.New("unreadable band")

	// ErrPath indicates an output directory that does not exist or is not writable.
	ErrPath = errors.New("invalid output path")

	// ErrInvalidMetadata indicates an output layout with no bands or an empty raster.
	ErrInvalidMetadata = errors.New("invalid raster metadata")

	// ErrBandIndexOutOfRange indicates a write to a band outside [1, bandCount].
	ErrBandIndexOutOfRange = errors.New("band index out of range")

	// ErrShapeMismatch indicates a pixel grid whose size differs from the raster's.
	ErrShapeMismatch = errors.New("pixel grid shape mismatch")

	// ErrIncomplete indicates a raster closed before every band was written.
	ErrIncomplete = errors.New("raster incomplete")

	// ErrNotGeoreferenced indicates a raster without a usable projection or geotransform.
	ErrNotGeoreferenced = errors.New("raster not georeferenced")

	// ErrClosed indicates use of a band or writer after it was closed.
	ErrClosed = errors.New("raster closed")
)
