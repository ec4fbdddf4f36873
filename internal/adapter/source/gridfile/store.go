// Package gridfile provides a local NetCDF daily precipitation cube as a
// rainfall source, for running against downloaded CHIRPS-style archives
// without a remote service.
package gridfile

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/rainfall-api/internal/adapter/interp"
	"go.ngs.io/rainfall-api/internal/domain"
)

// DefaultEpoch is the CHIRPS time-axis origin ("days since 1980-01-01").
var DefaultEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Store samples a NetCDF precipitation cube (time x lat x lon) at a point.
// The cube is loaded once and cached; daily values are taken by bilinear
// interpolation over the lat/lon grid.
type Store struct {
	path  string
	epoch time.Time

	mu   sync.Mutex
	cube *cube
}

type cube struct {
	days   map[string]int // ISO date -> time index
	lats   []float64
	lons   []float64
	slices [][][]float64 // [time][lat][lon], fill values as NaN
}

// NewStore creates a NetCDF-backed store. epoch is the date the time axis
// counts days from; pass the zero time to use DefaultEpoch.
func NewStore(path string, epoch time.Time) *Store {
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}
	return &Store{path: path, epoch: epoch}
}

// FetchDaily samples the cube at the coordinate for every day in range.
// Days outside the cube's time axis, or falling on all-fill grid cells,
// yield nil values.
func (s *Store) FetchDaily(_ context.Context, coord domain.Coordinate, dates domain.DateRange) ([]domain.RawObservation, error) {
	c, err := s.load()
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}

	grid := interp.Grid2D{X: c.lons, Y: c.lats}
	if len(c.slices) > 0 {
		grid.Values = c.slices[0]
	}
	if err := grid.Validate(); err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("invalid grid in %s: %w", s.path, err)}
	}

	out := make([]domain.RawObservation, 0, dates.Days())
	usable := 0
	for d := dates.Start; !d.After(dates.End); d = d.AddDate(0, 0, 1) {
		obs := domain.RawObservation{Date: d, Lon: coord.Lon, Lat: coord.Lat}
		if ti, ok := c.days[d.Format("2006-01-02")]; ok {
			grid.Values = c.slices[ti]
			v, err := grid.InterpolateAt(coord.Lon, coord.Lat)
			if err != nil {
				return nil, &domain.NoDataError{Reason: fmt.Sprintf("coordinate outside grid: %v", err)}
			}
			if !math.IsNaN(v) && v >= 0 {
				obs.Value = &v
				usable++
			}
		}
		out = append(out, obs)
	}

	if usable == 0 {
		return nil, &domain.NoDataError{Reason: "grid has zero usable rows for the range"}
	}
	return out, nil
}

// load reads and caches the whole cube.
func (s *Store) load() (*cube, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cube != nil {
		return s.cube, nil
	}

	nc, err := netcdf.OpenFile(s.path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	lats, err := readCoordVar(nc, []string{"latitude", "lat", "y"})
	if err != nil {
		return nil, err
	}
	lons, err := readCoordVar(nc, []string{"longitude", "lon", "x"})
	if err != nil {
		return nil, err
	}
	timeVals, err := readCoordVar(nc, []string{"time", "t"})
	if err != nil {
		return nil, err
	}

	dataVar, err := findVar(nc, []string{"precip", "precipitation", "pr", "rainfall", "rain"})
	if err != nil {
		return nil, err
	}

	nT, nLat, nLon := len(timeVals), len(lats), len(lons)
	flat, err := read3DFloat64Var(dataVar, nT*nLat*nLon)
	if err != nil {
		return nil, err
	}

	// Replace fill values with NaN so interpolation can skip them.
	if fv, ok := getFillValue(dataVar); ok {
		for i, v := range flat {
			if v == fv {
				flat[i] = math.NaN()
			}
		}
	}

	slices := make([][][]float64, nT)
	for ti := 0; ti < nT; ti++ {
		rows := make([][]float64, nLat)
		for li := 0; li < nLat; li++ {
			start := (ti*nLat + li) * nLon
			rows[li] = flat[start : start+nLon]
		}
		slices[ti] = rows
	}

	days := make(map[string]int, nT)
	for ti, offset := range timeVals {
		d := s.epoch.AddDate(0, 0, int(offset))
		days[d.Format("2006-01-02")] = ti
	}

	s.cube = &cube{days: days, lats: lats, lons: lons, slices: slices}
	return s.cube, nil
}

// findVar returns the first variable matching any of the candidate names.
func findVar(nc netcdf.Dataset, names []string) (netcdf.Var, error) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, nil
		}
	}
	return netcdf.Var{}, fmt.Errorf("variable not found (tried: %v)", names)
}

// readCoordVar reads a 1D coordinate variable, trying several common names.
func readCoordVar(nc netcdf.Dataset, names []string) ([]float64, error) {
	v, err := findVar(nc, names)
	if err != nil {
		return nil, err
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}
	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}
	return readFloat64s(v, int(length))
}

// read3DFloat64Var reads a flattened time x lat x lon variable.
func read3DFloat64Var(v netcdf.Var, total int) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 3 {
		return nil, fmt.Errorf("expected 3D data variable, got %dD", len(dims))
	}
	return readFloat64s(v, total)
}

// readFloat64s reads a variable's contents as float64 regardless of its
// on-disk numeric type.
func readFloat64s(v netcdf.Var, length int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, err
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, length)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported data type: %v", t)
	}
}

// getFillValue reads the fill/missing marker attribute, if any.
func getFillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if a == (netcdf.Attr{}) {
			continue
		}
		if n, err := a.Len(); err == nil && n > 0 {
			buf64 := make([]float64, 1)
			if err := a.ReadFloat64s(buf64); err == nil {
				return buf64[0], true
			}
			buf32 := make([]float32, 1)
			if err := a.ReadFloat32s(buf32); err == nil {
				return float64(buf32[0]), true
			}
			bufi := make([]int32, 1)
			if err := a.ReadInt32s(bufi); err == nil {
				return float64(bufi[0]), true
			}
		}
	}
	return 0, false
}
