package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultNumSamples is the stochastic pass count per input row.
const DefaultNumSamples = 20

// Prediction is the per-row output of the uncertainty sampler. Lower and
// Upper are the empirical 5th and 95th percentiles of the sampled scores;
// lower <= mean <= upper and all three lie in [0,1].
type Prediction struct {
	Mean  float64 `json:"dropout_risk"`
	Lower float64 `json:"risk_ci_lower"`
	Upper float64 `json:"risk_ci_upper"`
}

// SamplerConfig controls the sampler. Seed drives a dedicated random source,
// so the same seed, model and batch reproduce identical results.
type SamplerConfig struct {
	NumSamples int
	Seed       int64
}

// PredictWithUncertainty draws NumSamples stochastic forward passes per row,
// each with a fresh dropout mask, and summarizes the samples as a mean and an
// empirical 90% interval. This is ensemble-of-subnetworks uncertainty from
// dropout at inference time, not a calibrated posterior; treat the interval
// as a spread indicator, not a confidence guarantee.
func PredictWithUncertainty(model *RiskNet, batch [][]float64, cfg SamplerConfig) ([]Prediction, error) {
	if model == nil {
		return nil, errors.New("model is nil")
	}
	if len(batch) == 0 {
		return nil, errors.New("batch is empty")
	}
	numSamples := cfg.NumSamples
	if numSamples <= 0 {
		numSamples = DefaultNumSamples
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	samples := make([][]float64, len(batch))
	for i := range samples {
		samples[i] = make([]float64, 0, numSamples)
	}

	for pass := 0; pass < numSamples; pass++ {
		for i, features := range batch {
			cache, err := model.forward(features, rng)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			samples[i] = append(samples[i], cache.p)
		}
	}

	predictions := make([]Prediction, len(batch))
	for i, rowSamples := range samples {
		predictions[i] = summarize(rowSamples)
	}
	return predictions, nil
}

func summarize(samples []float64) Prediction {
	// A single pass has no spread to report.
	if len(samples) == 1 {
		return Prediction{Mean: samples[0], Lower: samples[0], Upper: samples[0]}
	}

	mean := stat.Mean(samples, nil)
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	lower := stat.Quantile(0.05, stat.LinInterp, sorted, nil)
	upper := stat.Quantile(0.95, stat.LinInterp, sorted, nil)

	if lower > mean {
		lower = mean
	}
	if upper < mean {
		upper = mean
	}
	return Prediction{Mean: mean, Lower: lower, Upper: upper}
}
