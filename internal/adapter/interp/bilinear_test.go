package interp

import (
	"math"
	"testing"
)

func testGrid() *Grid2D {
	return &Grid2D{
		X: []float64{0.0, 2.0},
		Y: []float64{0.0, 2.0},
		Values: [][]float64{
			{1.0, 3.0},
			{5.0, 7.0},
		},
	}
}

// TestInterpolateAt_CenterPoint tests interpolation at the center of a grid cell.
func TestInterpolateAt_CenterPoint(t *testing.T) {
	g := testGrid()

	// At center (1.0, 1.0), t=0.5, u=0.5
	// Result = 0.25 * (1 + 3 + 5 + 7) = 4.0
	result, err := g.InterpolateAt(1.0, 1.0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if math.Abs(result-4.0) > 1e-9 {
		t.Errorf("Center point: expected 4.0, got %.10f", result)
	}
}

// TestInterpolateAt_CornerPoints tests that corners return exact values.
func TestInterpolateAt_CornerPoints(t *testing.T) {
	g := testGrid()

	tests := []struct {
		x, y, want float64
	}{
		{0.0, 0.0, 1.0},
		{2.0, 0.0, 3.0},
		{0.0, 2.0, 5.0},
		{2.0, 2.0, 7.0},
	}

	for _, tt := range tests {
		got, err := g.InterpolateAt(tt.x, tt.y)
		if err != nil {
			t.Fatalf("Unexpected error at (%g, %g): %v", tt.x, tt.y, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Corner (%g, %g): expected %.10f, got %.10f", tt.x, tt.y, tt.want, got)
		}
	}
}

// TestInterpolateAt_FillCorners tests weight renormalization around NaN cells.
func TestInterpolateAt_FillCorners(t *testing.T) {
	g := testGrid()
	g.Values[0][0] = math.NaN()

	// At (0, 0) the only weighted corner is missing, but the renormalized
	// result must still come from the remaining corners with zero weight
	// contribution - i.e. the nearest valid values only.
	got, err := g.InterpolateAt(1.0, 1.0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Remaining corners 3, 5, 7 with equal weights 0.25 each, renormalized:
	// (3+5+7)/3 = 5.0
	if math.Abs(got-5.0) > 1e-9 {
		t.Errorf("Renormalized center: expected 5.0, got %.10f", got)
	}
}

// TestInterpolateAt_AllFill returns NaN when every corner is missing.
func TestInterpolateAt_AllFill(t *testing.T) {
	g := testGrid()
	for i := range g.Values {
		for j := range g.Values[i] {
			g.Values[i][j] = math.NaN()
		}
	}

	got, err := g.InterpolateAt(1.0, 1.0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("All-fill cell: expected NaN, got %.10f", got)
	}
}

// TestInterpolateAt_OutsideGrid rejects points beyond the grid edges.
func TestInterpolateAt_OutsideGrid(t *testing.T) {
	g := testGrid()

	if _, err := g.InterpolateAt(-1.0, 1.0); err == nil {
		t.Error("Expected error for x outside grid")
	}
	if _, err := g.InterpolateAt(1.0, 3.0); err == nil {
		t.Error("Expected error for y outside grid")
	}
}

// TestValidate_BadShapes rejects malformed grids.
func TestValidate_BadShapes(t *testing.T) {
	g := &Grid2D{X: []float64{0, 1}, Y: []float64{0, 1}, Values: [][]float64{{1, 2}}}
	if err := g.Validate(); err == nil {
		t.Error("Expected error for row count mismatch")
	}

	g = &Grid2D{X: []float64{1, 0}, Y: []float64{0, 1}, Values: [][]float64{{1, 2}, {3, 4}}}
	if err := g.Validate(); err == nil {
		t.Error("Expected error for unsorted X coordinates")
	}
}
