// Package spectral computes normalized-difference indices from scene bands.
package spectral

import (
	"fmt"
	"math"

	"github.com/forest-guardian/maxsatt-scene-cli/internal/raster"
)

// Invalid returns the marker of a pixel whose index is undefined: a zero
// denominator or a nodata input. It is written to outputs as the band's
// nodata value.
func Invalid() float64 {
	return math.NaN()
}

// IsInvalid reports whether v carries the invalid marker.
func IsInvalid(v float64) bool {
	return math.IsNaN(v)
}

// Product is a computed index grid.
type Product struct {
	raster.Grid
	InvalidCount int
}

func (p Product) ValidCount() int {
	return len(p.Data) - p.InvalidCount
}

// NormalizedDifference computes (b - a) / (b + a) for every pixel. Pixels
// where a + b == 0 are marked Invalid.
func NormalizedDifference(a, b raster.Grid) (Product, error) {
	if !a.SameShape(b) || len(a.Data) != len(b.Data) {
		return Product{}, fmt.Errorf("%w: %dx%d and %dx%d",
			raster.ErrShapeMismatch, a.Width, a.Height, b.Width, b.Height)
	}

	p := Product{Grid: raster.NewGrid(a.Width, a.Height)}
	for i := range p.Data {
		denominator := b.Data[i] + a.Data[i]
		if denominator == 0 {
			p.Data[i] = Invalid()
			p.InvalidCount++
			continue
		}
		v := (b.Data[i] - a.Data[i]) / denominator
		if IsInvalid(v) {
			p.InvalidCount++
		}
		p.Data[i] = v
	}
	return p, nil
}

// MaskNoData marks every pixel where src equals nodata as invalid.
func (p *Product) MaskNoData(src raster.Grid, nodata float64) {
	for i, v := range src.Data {
		if IsInvalid(p.Data[i]) {
			continue
		}
		if v == nodata || (math.IsNaN(nodata) && math.IsNaN(v)) {
			p.Data[i] = Invalid()
			p.InvalidCount++
		}
	}
}

// SummaryStatistic is the arithmetic mean over valid pixels. It is NaN when
// no pixel is valid.
func SummaryStatistic(p Product) float64 {
	var sum float64
	var n int
	for _, v := range p.Data {
		if IsInvalid(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
