// Package reduce implements dimensionality reducers used before density
// clustering.
package reduce

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

var (
	_ driven.Reducer = (*PCA)(nil)
	_ driven.Reducer = (*RandomProjection)(nil)
)

// DefaultSeed seeds the random projection so runs are reproducible.
const DefaultSeed = 42

// PCA projects onto the leading principal components.
type PCA struct{}

// NewPCA creates a PCA reducer.
func NewPCA() *PCA { return &PCA{} }

// Name returns "pca".
func (p *PCA) Name() string { return string(domain.ReducerPCA) }

// Reduce centres the data and projects it onto at most components
// principal axes.
func (p *PCA) Reduce(data [][]float64, components int) ([][]float64, error) {
	m, err := toDense(data, components)
	if err != nil {
		return nil, err
	}
	n, d := m.Dims()
	centre(m)

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return nil, errors.New("pca: decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	_, avail := vecs.Dims()
	k := min(components, avail, d)
	var proj mat.Dense
	proj.Mul(m, vecs.Slice(0, d, 0, k))

	return fromDense(&proj, n, k), nil
}

// RandomProjection multiplies by a seeded Gaussian matrix.
type RandomProjection struct {
	seed uint64
}

// NewRandomProjection creates a random projection reducer.
func NewRandomProjection(seed uint64) *RandomProjection {
	return &RandomProjection{seed: seed}
}

// Name returns "random".
func (r *RandomProjection) Name() string { return string(domain.ReducerRandom) }

// Reduce projects to min(components, d) dimensions.
func (r *RandomProjection) Reduce(data [][]float64, components int) ([][]float64, error) {
	m, err := toDense(data, components)
	if err != nil {
		return nil, err
	}
	n, d := m.Dims()
	k := min(components, d)

	rng := rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
	scale := 1 / math.Sqrt(float64(k))
	proj := mat.NewDense(d, k, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < k; j++ {
			proj.Set(i, j, rng.NormFloat64()*scale)
		}
	}

	var out mat.Dense
	out.Mul(m, proj)
	return fromDense(&out, n, k), nil
}

// Select returns the reducer for kind. ReducerAuto checks PCA on a small
// synthetic matrix and falls back to random projection if it fails.
// ReducerNone means clustering is disabled.
func Select(kind domain.ReducerKind) (driven.Reducer, error) {
	switch kind {
	case domain.ReducerPCA:
		return NewPCA(), nil
	case domain.ReducerRandom:
		return NewRandomProjection(DefaultSeed), nil
	case domain.ReducerNone:
		return nil, domain.ErrReducerUnavailable
	case domain.ReducerAuto, "":
		if err := Verify(NewPCA()); err == nil {
			return NewPCA(), nil
		}
		rp := NewRandomProjection(DefaultSeed)
		if err := Verify(rp); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrReducerUnavailable, err)
		}
		return rp, nil
	default:
		return nil, fmt.Errorf("%w: unknown reducer %q", domain.ErrInvalidInput, kind)
	}
}

// Verify runs a reducer on a fixed 8x4 matrix and checks the output shape.
func Verify(r driven.Reducer) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s self-check panicked: %v", r.Name(), rec)
		}
	}()

	data := make([][]float64, 8)
	for i := range data {
		data[i] = []float64{float64(i), float64(i * i % 5), float64(7 - i), float64(i % 3)}
	}
	out, err := r.Reduce(data, 2)
	if err != nil {
		return err
	}
	if len(out) != len(data) || len(out[0]) != 2 {
		return fmt.Errorf("%s self-check: unexpected output shape", r.Name())
	}
	for _, row := range out {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s self-check: non-finite output", r.Name())
			}
		}
	}
	return nil
}

func toDense(data [][]float64, components int) (*mat.Dense, error) {
	if components <= 0 {
		return nil, fmt.Errorf("%w: components must be positive", domain.ErrInvalidInput)
	}
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, fmt.Errorf("%w: no data to reduce", domain.ErrInvalidInput)
	}
	d := len(data[0])
	flat := make([]float64, 0, len(data)*d)
	for i, row := range data {
		if len(row) != d {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", domain.ErrDimensionMismatch, i, len(row), d)
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(data), d, flat), nil
}

func centre(m *mat.Dense) {
	n, d := m.Dims()
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, m)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			m.Set(i, j, col[i]-mean)
		}
	}
}

func fromDense(m *mat.Dense, n, k int) [][]float64 {
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, k)
		for j := 0; j < k; j++ {
			row[j] = m.At(i, j)
		}
		out[i] = row
	}
	return out
}
