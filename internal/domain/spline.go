package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CyclicSpline is a penalized cyclic cubic regression spline over the
// seasonal domain [1, SeasonalPeriod]. The basis wraps around the year end,
// so the fitted curve has matching value and derivatives at day 365/day 1.
type CyclicSpline struct {
	k    int
	coef []float64
}

// FitCyclicSpline fits a penalized least-squares spline of values over
// day-of-year positions. k bounds the basis dimension (larger k permits more
// local curvature); smoothing scales a cyclic second-difference penalty on
// the basis coefficients. The fit is deterministic for fixed inputs.
//
// Returns ModelFitError when the system is underdetermined (fewer rows than
// basis functions) or numerically singular.
func FitCyclicSpline(days, values []float64, k int, smoothing float64) (*CyclicSpline, error) {
	n := len(days)
	if n != len(values) {
		return nil, &ModelFitError{Reason: fmt.Sprintf("length mismatch: %d days, %d values", n, len(values))}
	}
	if n < k {
		return nil, &ModelFitError{Reason: fmt.Sprintf("%d records is insufficient for spline complexity %d", n, k)}
	}
	if smoothing < 0 {
		return nil, &ModelFitError{Reason: "smoothing constant must be non-negative"}
	}

	// Design matrix: n rows of k cyclic B-spline basis values.
	design := mat.NewDense(n, k, nil)
	row := make([]float64, k)
	for i, d := range days {
		basisRow(d, k, row)
		design.SetRow(i, row)
	}

	// Normal equations with penalty: (BᵀB + λDᵀD + εI) β = Bᵀy.
	var btb mat.Dense
	btb.Mul(design.T(), design)
	penalty := cyclicPenalty(k)

	const ridge = 1e-9 // guards the factorization against rank loss from clustered days
	sym := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			v := btb.At(i, j) + smoothing*penalty.At(i, j)
			if i == j {
				v += ridge
			}
			sym.SetSym(i, j, v)
		}
	}

	y := mat.NewVecDense(n, values)
	var rhs mat.VecDense
	rhs.MulVec(design.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, &ModelFitError{Reason: "penalized normal matrix is not positive definite"}
	}
	var coef mat.VecDense
	if err := chol.SolveVecTo(&coef, &rhs); err != nil {
		return nil, &ModelFitError{Reason: fmt.Sprintf("solve failed: %v", err)}
	}

	out := make([]float64, k)
	copy(out, coef.RawVector().Data)
	return &CyclicSpline{k: k, coef: out}, nil
}

// Predict evaluates the fitted curve at a day-of-year position. The curve is
// periodic, so any real day value is mapped into the seasonal domain.
func (s *CyclicSpline) Predict(day float64) float64 {
	row := make([]float64, s.k)
	basisRow(day, s.k, row)
	var v float64
	for j, b := range row {
		v += b * s.coef[j]
	}
	return v
}

// basisRow fills row with the k cyclic cubic B-spline basis values at day x.
// Knots are uniform with spacing h = SeasonalPeriod/k; basis j has support
// on [j·h, (j+4)·h] taken modulo the period, so exactly four basis functions
// are non-zero at any position and the basis sums to one everywhere.
func basisRow(x float64, k int, row []float64) {
	h := float64(SeasonalPeriod) / float64(k)
	for j := 0; j < k; j++ {
		d := math.Mod(x-float64(j)*h, SeasonalPeriod)
		if d < 0 {
			d += SeasonalPeriod
		}
		row[j] = bspline3(d / h)
	}
}

// bspline3 evaluates the uniform cubic B-spline kernel on its support [0, 4).
func bspline3(u float64) float64 {
	switch {
	case u < 0 || u >= 4:
		return 0
	case u < 1:
		return u * u * u / 6
	case u < 2:
		return (-3*u*u*u + 12*u*u - 12*u + 4) / 6
	case u < 3:
		return (3*u*u*u - 24*u*u + 60*u - 44) / 6
	default:
		v := 4 - u
		return v * v * v / 6
	}
}

// cyclicPenalty returns DᵀD where D is the k×k cyclic second-difference
// operator. Its null space is the constant curve, so the penalty flattens
// wiggle without shrinking overall rainfall level.
func cyclicPenalty(k int) *mat.Dense {
	d := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		d.Set(i, (i+k-1)%k, 1)
		d.Set(i, i, -2)
		d.Set(i, (i+1)%k, 1)
	}
	var p mat.Dense
	p.Mul(d.T(), d)
	return &p
}
