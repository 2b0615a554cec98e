// Package boost implements binary gradient-boosted decision trees over
// histogram-binned features.
//
// Numeric features split on x <= threshold. Categorical features hold the
// encoder's category index and split on x == category, which is what a tree
// does with a one-hot column; an unknown category (-1) never matches and
// always follows the "rest" branch.
package boost

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Params are the boosting hyperparameters.
type Params struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	Subsample       float64 // fraction of rows sampled per tree
	ColsampleByTree float64 // fraction of features sampled per tree
	Lambda          float64 // L2 regularization on leaf weights
	MinChildWeight  float64 // minimum hessian sum per child
	MaxBins         int
	Seed            int64
}

// DefaultParams mirrors the readmission model's training configuration.
func DefaultParams() Params {
	return Params{
		NEstimators:     200,
		LearningRate:    0.05,
		MaxDepth:        5,
		Subsample:       0.7,
		ColsampleByTree: 0.7,
		Lambda:          1,
		MinChildWeight:  1,
		MaxBins:         64,
		Seed:            42,
	}
}

// Option functional config
type Option func(*Params)

// WithParams replaces all parameters at once.
func WithParams(params Params) Option { return func(p *Params) { *p = params } }

func (p Params) validate() error {
	switch {
	case p.NEstimators <= 0:
		return errors.New("boost: n_estimators must be positive")
	case p.LearningRate <= 0:
		return errors.New("boost: learning_rate must be positive")
	case p.MaxDepth <= 0:
		return errors.New("boost: max_depth must be positive")
	case p.Subsample <= 0 || p.Subsample > 1:
		return errors.New("boost: subsample must be in (0,1]")
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return errors.New("boost: colsample_bytree must be in (0,1]")
	case p.MaxBins < 2 || p.MaxBins > math.MaxUint16:
		return errors.New("boost: max_bins out of range")
	case p.Lambda < 0 || p.MinChildWeight < 0:
		return errors.New("boost: lambda and min_child_weight must be non-negative")
	}
	return nil
}

// Booster is a fitted binary classifier.
type Booster struct {
	Params      Params
	BaseScore   float64 // log-odds of the training positive rate
	Categorical []bool
	Trees       []Tree
}

// New returns an unfitted booster with DefaultParams adjusted by opts.
func New(opts ...Option) *Booster {
	p := DefaultParams()
	for _, o := range opts {
		o(&p)
	}
	return &Booster{Params: p}
}

// NumFeatures returns the design-row width the booster was fit on.
func (b *Booster) NumFeatures() int {
	return len(b.Categorical)
}

// Fit trains the booster on X (n x p) and binary labels y. categorical[j]
// marks column j as a category index rather than a number.
func (b *Booster) Fit(X [][]float64, y []int, categorical []bool) error {
	if err := b.Params.validate(); err != nil {
		return err
	}
	n := len(X)
	if n == 0 {
		return errors.New("boost: empty X")
	}
	if len(y) != n {
		return errors.New("boost: X and y length mismatch")
	}
	p := len(categorical)
	if p == 0 {
		return errors.New("boost: no features")
	}
	labels := make([]float64, n)
	for i := range X {
		if len(X[i]) != p {
			return fmt.Errorf("boost: row %d has %d features, expected %d", i, len(X[i]), p)
		}
		switch y[i] {
		case 0:
		case 1:
			labels[i] = 1
		default:
			return fmt.Errorf("boost: label %d at row %d is not binary", y[i], i)
		}
	}

	b.Categorical = append([]bool(nil), categorical...)
	binned := binFeatures(X, categorical, b.Params.MaxBins)

	rate := stat.Mean(labels, nil)
	rate = math.Min(math.Max(rate, 1e-6), 1-1e-6)
	b.BaseScore = math.Log(rate / (1 - rate))

	margin := make([]float64, n)
	for i := range margin {
		margin[i] = b.BaseScore
	}

	rnd := rand.New(rand.NewSource(b.Params.Seed))
	g := &grower{
		params:      b.Params,
		binned:      binned,
		categorical: categorical,
		grad:        make([]float64, n),
		hess:        make([]float64, n),
	}

	nRows := sampleSize(n, b.Params.Subsample)
	nCols := sampleSize(p, b.Params.ColsampleByTree)

	b.Trees = make([]Tree, 0, b.Params.NEstimators)
	for t := 0; t < b.Params.NEstimators; t++ {
		for i := range margin {
			pr := sigmoid(margin[i])
			g.grad[i] = pr - labels[i]
			g.hess[i] = pr * (1 - pr)
		}
		rows := rnd.Perm(n)[:nRows]
		g.features = rnd.Perm(p)[:nCols]

		tree := g.build(rows)
		for i := range margin {
			margin[i] += tree.valueBinned(binned, i)
		}
		b.Trees = append(b.Trees, tree)
	}
	return nil
}

// Margin returns the raw log-odds score for one design row.
func (b *Booster) Margin(row []float64) float64 {
	m := b.BaseScore
	for i := range b.Trees {
		m += b.Trees[i].Value(row)
	}
	return m
}

// PredictProba returns p(y=1) for each row of X.
func (b *Booster) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(b.Margin(row))
	}
	return out
}

// Predict returns class labels using the given probability threshold.
func (b *Booster) Predict(X [][]float64, threshold float64) []int {
	return BinaryPredFromProba(b.PredictProba(X), threshold)
}

// Save writes the booster using gob.
func (b *Booster) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("encode booster: %w", err)
	}
	return nil
}

// Load reads a booster written by Save.
func Load(r io.Reader) (*Booster, error) {
	var b Booster
	if err := gob.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode booster: %w", err)
	}
	if len(b.Trees) == 0 || len(b.Categorical) == 0 {
		return nil, errors.New("decode booster: model has no trees")
	}
	return &b, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func sampleSize(n int, frac float64) int {
	k := int(math.Round(float64(n) * frac))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}
