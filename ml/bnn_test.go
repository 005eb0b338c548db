package ml

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestScoreProducesProbability(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 1})
	p, err := model.Score([]float64{50, 40, 5, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p <= 0 || p >= 1 {
		t.Fatalf("expected score in (0,1), got %v", p)
	}
}

func TestScoreRejectsBadInput(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 1})

	if _, err := model.Score([]float64{1, 2}); err == nil {
		t.Fatal("expected error for wrong dimension")
	}
	if _, err := model.Score([]float64{50, math.NaN(), 5, 20}); err == nil {
		t.Fatal("expected error for NaN feature")
	}
	if _, err := model.Score([]float64{50, math.Inf(1), 5, 20}); err == nil {
		t.Fatal("expected error for Inf feature")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")

	original := NewRiskNet(NetConfig{Seed: 7})
	if err := original.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	restored := NewRiskNet(NetConfig{Seed: 99})
	if err := restored.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	batch := [][]float64{{50, 40, 5, 20}, {90, 85, 9, 1}}
	cfg := SamplerConfig{NumSamples: 20, Seed: 5}

	before, err := PredictWithUncertainty(original, batch, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, err := PredictWithUncertainty(restored, batch, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range before {
		if math.Abs(before[i].Mean-after[i].Mean) > 1e-6 ||
			math.Abs(before[i].Lower-after[i].Lower) > 1e-6 ||
			math.Abs(before[i].Upper-after[i].Upper) > 1e-6 {
			t.Fatalf("row %d: round-trip diverged: %+v vs %+v", i, before[i], after[i])
		}
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 1})
	if err := model.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestLoadCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "not a model"},
		{"truncated params", `{"input_dim":4,"hidden_dim":32,"dropout":0.2,"w1":[1,2],"b1":[],"w2":[],"b2":[]}`},
		{"bad dims", `{"input_dim":0,"hidden_dim":0,"dropout":0.2,"w1":[],"b1":[],"w2":[],"b2":[]}`},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".json")
		if err := os.WriteFile(path, []byte(tt.payload), 0o600); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
		model := NewRiskNet(NetConfig{Seed: 1})
		if err := model.Load(path); err == nil {
			t.Fatalf("%s: expected load error", tt.name)
		}
	}
}
