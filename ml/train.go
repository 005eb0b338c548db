package ml

import (
	"errors"
	"fmt"
	"math"
)

// TrainConfig controls the gradient descent loop. Zero values fall back to
// defaults matching the reference training procedure.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
}

const (
	DefaultEpochs       = 3
	DefaultBatchSize    = 16
	DefaultLearningRate = 1e-3
)

// Train fits the network against binary labels by minimizing cross-entropy
// with mini-batch Adam, shuffling row order each epoch. There is no early
// stopping and no validation split; this mirrors the placeholder training
// procedure the synthetic labels allow.
func (n *RiskNet) Train(features [][]float64, labels []int) error {
	return n.TrainWithConfig(features, labels, TrainConfig{})
}

// TrainWithConfig is Train with explicit hyperparameters.
func (n *RiskNet) TrainWithConfig(features [][]float64, labels []int, cfg TrainConfig) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	for i, label := range labels {
		if label != 0 && label != 1 {
			return fmt.Errorf("label %d is not binary", i)
		}
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultEpochs
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultLearningRate
	}

	params := [][]float64{
		n.w1.RawMatrix().Data,
		n.b1.RawVector().Data,
		n.w2.RawVector().Data,
		n.b2.RawVector().Data,
	}
	grads := make([][]float64, len(params))
	for i, param := range params {
		grads[i] = make([]float64, len(param))
	}
	gw1, gb1, gw2, gb2 := grads[0], grads[1], grads[2], grads[3]

	opt := newAdam(cfg.LearningRate, params)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		order := n.rng.Perm(len(features))
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}

			for _, grad := range grads {
				zero(grad)
			}

			for _, idx := range order[start:end] {
				cache, err := n.forward(features[idx], n.rng)
				if err != nil {
					return fmt.Errorf("row %d: %w", idx, err)
				}

				// Sigmoid + cross-entropy collapse to p - y at the output.
				dz2 := cache.p - float64(labels[idx])
				gb2[0] += dz2
				for i := 0; i < n.hiddenDim; i++ {
					gw2[i] += dz2 * cache.h[i]
					dz1 := dz2 * n.w2.AtVec(i) * cache.mask[i]
					if cache.z1[i] <= 0 {
						continue
					}
					gb1[i] += dz1
					row := i * n.inputDim
					for j := 0; j < n.inputDim; j++ {
						gw1[row+j] += dz1 * cache.x[j]
					}
				}
			}

			batch := float64(end - start)
			for _, grad := range grads {
				for i := range grad {
					grad[i] /= batch
				}
			}
			opt.step(params, grads)
		}
	}
	return nil
}

func zero(values []float64) {
	for i := range values {
		values[i] = 0
	}
}

// adam is a plain Adam optimizer over flat parameter slices.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
	m     [][]float64
	v     [][]float64
}

func newAdam(lr float64, params [][]float64) *adam {
	opt := &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make([][]float64, len(params)),
		v:     make([][]float64, len(params)),
	}
	for i, param := range params {
		opt.m[i] = make([]float64, len(param))
		opt.v[i] = make([]float64, len(param))
	}
	return opt
}

func (a *adam) step(params, grads [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for p := range params {
		param, grad, m, v := params[p], grads[p], a.m[p], a.v[p]
		for i := range param {
			m[i] = a.beta1*m[i] + (1-a.beta1)*grad[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*grad[i]*grad[i]
			mHat := m[i] / c1
			vHat := v[i] / c2
			param[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}
