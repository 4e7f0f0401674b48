package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Regressor is the fit/predict boundary the pipeline trains against.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

var ErrNotFitted = errors.New("model not fitted")

// Ridge is L2-regularized least squares on standardized features. The
// intercept is not penalized.
type Ridge struct {
	Lambda float64 `json:"lambda"`

	Features  []string  `json:"features,omitempty"`
	Means     []float64 `json:"means"`
	Scales    []float64 `json:"scales"`
	Intercept float64   `json:"intercept"`
	Coef      []float64 `json:"coef"`
}

func NewRidge(lambda float64, features []string) *Ridge {
	return &Ridge{Lambda: lambda, Features: features}
}

func (r *Ridge) Fit(X [][]float64, y []float64) error {
	n := len(X)
	if n == 0 {
		return errors.New("ridge: no training rows")
	}
	if len(y) != n {
		return fmt.Errorf("ridge: %d rows but %d targets", n, len(y))
	}
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("ridge: row %d has %d features, want %d", i, len(row), p)
		}
	}

	// Zero-variance columns carry no signal and would make the system
	// singular when Lambda is 0; they keep a zero coefficient.
	r.Means = make([]float64, p)
	r.Scales = make([]float64, p)
	var active []int
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		r.Means[j], r.Scales[j] = mean, 1
		if std > 0 && !math.IsNaN(std) {
			r.Scales[j] = std
			active = append(active, j)
		}
	}

	// Design matrix with a leading column of ones.
	k := len(active)
	Z := mat.NewDense(n, k+1, nil)
	for i, row := range X {
		Z.Set(i, 0, 1)
		for c, j := range active {
			Z.Set(i, c+1, (row[j]-r.Means[j])/r.Scales[j])
		}
	}
	yv := mat.NewVecDense(n, y)

	var A mat.Dense
	A.Mul(Z.T(), Z)
	for c := 1; c <= k; c++ {
		A.Set(c, c, A.At(c, c)+r.Lambda)
	}
	var b mat.VecDense
	b.MulVec(Z.T(), yv)

	var beta mat.VecDense
	if err := beta.SolveVec(&A, &b); err != nil {
		// A Condition error is a warning: the solution is still populated.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("ridge: solve normal equations: %w", err)
		}
	}

	r.Intercept = beta.AtVec(0)
	r.Coef = make([]float64, p)
	for c, j := range active {
		r.Coef[j] = beta.AtVec(c + 1)
	}
	return nil
}

func (r *Ridge) Predict(X [][]float64) ([]float64, error) {
	if r.Coef == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(r.Coef) {
			return nil, fmt.Errorf("ridge: row %d has %d features, model has %d", i, len(row), len(r.Coef))
		}
		v := r.Intercept
		for j, x := range row {
			v += r.Coef[j] * (x - r.Means[j]) / r.Scales[j]
		}
		out[i] = v
	}
	return out, nil
}

// ----- evaluation -----

type Metrics struct {
	MSE float64 `json:"mse"`
	R2  float64 `json:"r2"`
}

// Evaluate scores predictions against the truth.
func Evaluate(yTrue, yPred []float64) (Metrics, error) {
	if len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("evaluate: %d truths vs %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Metrics{}, errors.New("evaluate: empty input")
	}
	var sse float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sse += d * d
	}
	return Metrics{
		MSE: sse / float64(len(yTrue)),
		R2:  stat.RSquaredFrom(yPred, yTrue, nil),
	}, nil
}

// Split returns a deterministic shuffled train/test partition of n row
// indices. The test set holds ceil(n*testFraction) rows.
func Split(n int, testFraction float64, seed uint64) (train, test []int) {
	perm := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Perm(n)
	k := int(math.Ceil(float64(n) * testFraction))
	if k > n {
		k = n
	}
	return perm[k:], perm[:k]
}

// Subset picks rows of X and y by index.
func Subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	sx := make([][]float64, len(idx))
	sy := make([]float64, len(idx))
	for i, j := range idx {
		sx[i] = X[j]
		sy[i] = y[j]
	}
	return sx, sy
}

// ----- persistence -----

func Save(path string, r *Ridge) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func Load(path string) (*Ridge, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Ridge
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if len(r.Coef) == 0 || len(r.Means) != len(r.Coef) || len(r.Scales) != len(r.Coef) {
		return nil, fmt.Errorf("model %s: inconsistent coefficient lengths", path)
	}
	return &r, nil
}
