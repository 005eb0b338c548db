package ml

import "testing"

func TestPredictionBounds(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 42})
	batch := [][]float64{
		{50, 40, 5, 20},
		{95, 88, 10, 0},
		{0, 0, 0, 365},
	}

	predictions, err := PredictWithUncertainty(model, batch, SamplerConfig{NumSamples: 20, Seed: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(predictions) != len(batch) {
		t.Fatalf("expected %d predictions, got %d", len(batch), len(predictions))
	}

	for i, p := range predictions {
		if p.Mean <= 0 || p.Mean >= 1 {
			t.Errorf("row %d: mean %v outside (0,1)", i, p.Mean)
		}
		if p.Lower < 0 || p.Upper > 1 {
			t.Errorf("row %d: interval [%v,%v] outside [0,1]", i, p.Lower, p.Upper)
		}
		if p.Lower > p.Mean || p.Mean > p.Upper {
			t.Errorf("row %d: expected lower <= mean <= upper, got %+v", i, p)
		}
	}
}

func TestSinglePassCollapsesInterval(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 8})
	predictions, err := PredictWithUncertainty(model, [][]float64{{50, 40, 5, 20}}, SamplerConfig{NumSamples: 1, Seed: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := predictions[0]
	if p.Lower != p.Mean || p.Upper != p.Mean {
		t.Fatalf("expected lower == mean == upper for one sample, got %+v", p)
	}
}

func TestSamplingIsDeterministicForFixedSeed(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 3})
	batch := [][]float64{{50, 40, 5, 20}, {80, 75, 8, 2}}
	cfg := SamplerConfig{NumSamples: 25, Seed: 17}

	first, err := PredictWithUncertainty(model, batch, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := PredictWithUncertainty(model, batch, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d: runs diverged: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSamplerInputValidation(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 1})

	if _, err := PredictWithUncertainty(nil, [][]float64{{1, 2, 3, 4}}, SamplerConfig{}); err == nil {
		t.Fatal("expected error for nil model")
	}
	if _, err := PredictWithUncertainty(model, nil, SamplerConfig{}); err == nil {
		t.Fatal("expected error for empty batch")
	}
	if _, err := PredictWithUncertainty(model, [][]float64{{1, 2}}, SamplerConfig{}); err == nil {
		t.Fatal("expected error for wrong dimension")
	}
}

func TestDefaultSampleCount(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 2})
	predictions, err := PredictWithUncertainty(model, [][]float64{{50, 40, 5, 20}}, SamplerConfig{Seed: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := predictions[0]
	// With the default 20 passes a dropout net essentially never collapses
	// to a zero-width interval.
	if p.Lower == p.Upper {
		t.Fatalf("expected a non-degenerate interval, got %+v", p)
	}
}
