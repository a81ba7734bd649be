package raster

import "fmt"

// Grid is a row-major 2-D pixel array widened to float64.
type Grid struct {
	Width  int
	Height int
	Data   []float64
}

func NewGrid(width, height int) Grid {
	return Grid{Width: width, Height: height, Data: make([]float64, width*height)}
}

func (g Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

func (g Grid) SameShape(o Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

func (g Grid) validate() error {
	if g.Width < 0 || g.Height < 0 || len(g.Data) != g.Width*g.Height {
		return fmt.Errorf("%w: %dx%d grid holds %d pixels", ErrShapeMismatch, g.Width, g.Height, len(g.Data))
	}
	return nil
}
