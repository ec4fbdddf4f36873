// Package interp provides bilinear interpolation on regular lat/lon grids.
package interp

import (
	"fmt"
	"math"
	"sort"
)

// Grid2D is a regular 2D grid. Values[i][j] corresponds to (X[j], Y[i]);
// missing cells are NaN.
type Grid2D struct {
	X      []float64 // X coordinates (longitudes), strictly increasing.
	Y      []float64 // Y coordinates (latitudes), strictly increasing.
	Values [][]float64
}

// Validate checks grid shape and coordinate ordering.
func (g *Grid2D) Validate() error {
	if len(g.X) < 2 {
		return fmt.Errorf("grid must have at least 2 X coordinates")
	}
	if len(g.Y) < 2 {
		return fmt.Errorf("grid must have at least 2 Y coordinates")
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("number of value rows (%d) must match Y coordinates (%d)", len(g.Values), len(g.Y))
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(g.X))
		}
	}
	for i := 1; i < len(g.X); i++ {
		if g.X[i] <= g.X[i-1] {
			return fmt.Errorf("X coordinates must be strictly increasing")
		}
	}
	for i := 1; i < len(g.Y); i++ {
		if g.Y[i] <= g.Y[i-1] {
			return fmt.Errorf("Y coordinates must be strictly increasing")
		}
	}
	return nil
}

// InterpolateAt performs bilinear interpolation at (x, y). Fill cells (NaN)
// are excluded by renormalizing the corner weights, so a point near a data
// void still interpolates from its valid corners. Returns NaN when all four
// surrounding corners are missing, and an error when the point is outside
// the grid.
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	if x < g.X[0] || x > g.X[len(g.X)-1] {
		return 0, fmt.Errorf("x coordinate %.6f is outside grid range [%.6f, %.6f]", x, g.X[0], g.X[len(g.X)-1])
	}
	if y < g.Y[0] || y > g.Y[len(g.Y)-1] {
		return 0, fmt.Errorf("y coordinate %.6f is outside grid range [%.6f, %.6f]", y, g.Y[0], g.Y[len(g.Y)-1])
	}

	xi := cellIndex(g.X, x)
	yi := cellIndex(g.Y, y)

	x0, x1 := g.X[xi], g.X[xi+1]
	y0, y1 := g.Y[yi], g.Y[yi+1]
	t := (x - x0) / (x1 - x0)
	u := (y - y0) / (y1 - y0)

	// Clamp to [0, 1] to handle edge cases with floating point precision.
	t = math.Max(0, math.Min(1, t))
	u = math.Max(0, math.Min(1, u))

	corners := [4]float64{
		g.Values[yi][xi],     // (x0, y0)
		g.Values[yi][xi+1],   // (x1, y0)
		g.Values[yi+1][xi],   // (x0, y1)
		g.Values[yi+1][xi+1], // (x1, y1)
	}
	weights := [4]float64{
		(1 - t) * (1 - u),
		t * (1 - u),
		(1 - t) * u,
		t * u,
	}

	var sum, wsum float64
	for i, v := range corners {
		if math.IsNaN(v) {
			continue
		}
		sum += weights[i] * v
		wsum += weights[i]
	}
	if wsum == 0 {
		return math.NaN(), nil
	}
	return sum / wsum, nil
}

// cellIndex finds i such that coords[i] <= v <= coords[i+1].
func cellIndex(coords []float64, v float64) int {
	i := sort.SearchFloat64s(coords, v)
	if i > 0 {
		i--
	}
	if i > len(coords)-2 {
		i = len(coords) - 2
	}
	return i
}
