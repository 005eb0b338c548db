package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultHiddenDim = 32
	DefaultDropout   = 0.2
)

// NetConfig configures a RiskNet. Zero values fall back to defaults.
type NetConfig struct {
	InputDim  int
	HiddenDim int
	Dropout   float64
	Seed      int64
}

// RiskNet is a two-layer feedforward network scoring dropout risk in (0,1):
// affine input->hidden, ReLU, dropout, affine hidden->1, sigmoid. Dropout
// stays active at inference so repeated passes act as an ensemble of
// subnetworks; see PredictWithUncertainty.
type RiskNet struct {
	inputDim  int
	hiddenDim int
	dropout   float64

	w1 *mat.Dense    // hiddenDim x inputDim
	b1 *mat.VecDense // hiddenDim
	w2 *mat.VecDense // hiddenDim, single output row
	b2 *mat.VecDense // 1

	rng *rand.Rand
}

// NewRiskNet builds a randomly initialized network. Initialization and every
// stochastic pass draw from a source seeded with cfg.Seed, so a fixed seed
// gives reproducible behavior.
func NewRiskNet(cfg NetConfig) *RiskNet {
	if cfg.InputDim <= 0 {
		cfg.InputDim = NumFeatures
	}
	if cfg.HiddenDim <= 0 {
		cfg.HiddenDim = DefaultHiddenDim
	}
	if cfg.Dropout <= 0 || cfg.Dropout >= 1 {
		cfg.Dropout = DefaultDropout
	}

	n := &RiskNet{
		inputDim:  cfg.InputDim,
		hiddenDim: cfg.HiddenDim,
		dropout:   cfg.Dropout,
		w1:        mat.NewDense(cfg.HiddenDim, cfg.InputDim, nil),
		b1:        mat.NewVecDense(cfg.HiddenDim, nil),
		w2:        mat.NewVecDense(cfg.HiddenDim, nil),
		b2:        mat.NewVecDense(1, nil),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
	}

	n.initUniform(n.w1.RawMatrix().Data, cfg.InputDim)
	n.initUniform(n.b1.RawVector().Data, cfg.InputDim)
	n.initUniform(n.w2.RawVector().Data, cfg.HiddenDim)
	n.initUniform(n.b2.RawVector().Data, cfg.HiddenDim)
	return n
}

// initUniform fills data with uniform(-1/fanIn, 1/fanIn). The features arrive
// unscaled (attendance and grades run 0-100), so the init bound is kept tight
// enough that an untrained net cannot saturate the sigmoid.
func (n *RiskNet) initUniform(data []float64, fanIn int) {
	bound := 1 / float64(fanIn)
	for i := range data {
		data[i] = (2*n.rng.Float64() - 1) * bound
	}
}

// InputDim returns the expected feature vector length.
func (n *RiskNet) InputDim() int { return n.inputDim }

type forwardCache struct {
	x    []float64
	z1   []float64 // pre-activation
	h    []float64 // after relu and dropout
	mask []float64 // 0 for dropped units, 1/(1-p) for kept ones
	p    float64
}

// forward runs one stochastic pass, drawing the dropout mask from rng.
func (n *RiskNet) forward(features []float64, rng *rand.Rand) (forwardCache, error) {
	if len(features) != n.inputDim {
		return forwardCache{}, fmt.Errorf("expected %d features, got %d", n.inputDim, len(features))
	}
	for i, value := range features {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return forwardCache{}, fmt.Errorf("feature %d is not finite", i)
		}
	}

	x := mat.NewVecDense(n.inputDim, features)
	z := mat.NewVecDense(n.hiddenDim, nil)
	z.MulVec(n.w1, x)
	z.AddVec(z, n.b1)

	scale := 1 / (1 - n.dropout)
	z1 := z.RawVector().Data
	h := make([]float64, n.hiddenDim)
	mask := make([]float64, n.hiddenDim)
	for i, value := range z1 {
		if rng.Float64() >= n.dropout {
			mask[i] = scale
		}
		if value > 0 {
			h[i] = value * mask[i]
		}
	}

	out := mat.Dot(n.w2, mat.NewVecDense(n.hiddenDim, h)) + n.b2.AtVec(0)
	p := sigmoid(out)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return forwardCache{}, errors.New("forward pass produced a non-finite output")
	}

	return forwardCache{x: features, z1: z1, h: h, mask: mask, p: p}, nil
}

// Score runs a single stochastic forward pass using the model's own random
// source. Most callers want PredictWithUncertainty instead.
func (n *RiskNet) Score(features []float64) (float64, error) {
	cache, err := n.forward(features, n.rng)
	if err != nil {
		return 0, err
	}
	return cache.p, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// netSnapshot is the on-disk artifact: the two weight matrices and two bias
// vectors, row-major. encoding/json emits shortest-round-trip floats, so a
// save/load pair reproduces outputs bit for bit.
type netSnapshot struct {
	InputDim  int       `json:"input_dim"`
	HiddenDim int       `json:"hidden_dim"`
	Dropout   float64   `json:"dropout"`
	W1        []float64 `json:"w1"`
	B1        []float64 `json:"b1"`
	W2        []float64 `json:"w2"`
	B2        []float64 `json:"b2"`
}

// Save persists model parameters to path.
func (n *RiskNet) Save(path string) error {
	snapshot := netSnapshot{
		InputDim:  n.inputDim,
		HiddenDim: n.hiddenDim,
		Dropout:   n.dropout,
		W1:        append([]float64(nil), n.w1.RawMatrix().Data...),
		B1:        append([]float64(nil), n.b1.RawVector().Data...),
		W2:        append([]float64(nil), n.w2.RawVector().Data...),
		B2:        append([]float64(nil), n.b2.RawVector().Data...),
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// Load replaces model parameters from path. A missing or corrupt artifact is
// an error; defaults are never substituted.
func (n *RiskNet) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read model artifact: %w", err)
	}
	var snapshot netSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return fmt.Errorf("parse model artifact: %w", err)
	}
	if snapshot.InputDim <= 0 || snapshot.HiddenDim <= 0 {
		return errors.New("model artifact has invalid dimensions")
	}
	if len(snapshot.W1) != snapshot.HiddenDim*snapshot.InputDim ||
		len(snapshot.B1) != snapshot.HiddenDim ||
		len(snapshot.W2) != snapshot.HiddenDim ||
		len(snapshot.B2) != 1 {
		return errors.New("model artifact is corrupt: parameter size mismatch")
	}
	if snapshot.Dropout <= 0 || snapshot.Dropout >= 1 {
		return errors.New("model artifact is corrupt: invalid dropout rate")
	}

	n.inputDim = snapshot.InputDim
	n.hiddenDim = snapshot.HiddenDim
	n.dropout = snapshot.Dropout
	n.w1 = mat.NewDense(snapshot.HiddenDim, snapshot.InputDim, snapshot.W1)
	n.b1 = mat.NewVecDense(snapshot.HiddenDim, snapshot.B1)
	n.w2 = mat.NewVecDense(snapshot.HiddenDim, snapshot.W2)
	n.b2 = mat.NewVecDense(1, snapshot.B2)
	return nil
}
