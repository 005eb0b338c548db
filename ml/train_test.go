package ml

import "testing"

// buildSeparableDataset returns rows where avg_grade perfectly separates the
// two classes: grades 30-49 are labeled at-risk, grades 75-94 are not.
func buildSeparableDataset(rowsPerClass int) ([][]float64, []int) {
	var features [][]float64
	var labels []int
	for i := 0; i < rowsPerClass; i++ {
		features = append(features, []float64{
			float64(50 + i%40),
			float64(30 + i%20),
			float64(3 + i%5),
			float64(5 + i%10),
		})
		labels = append(labels, 1)

		features = append(features, []float64{
			float64(70 + i%30),
			float64(75 + i%20),
			float64(6 + i%5),
			float64(i % 5),
		})
		labels = append(labels, 0)
	}
	return features, labels
}

func TestTrainValidation(t *testing.T) {
	model := NewRiskNet(NetConfig{Seed: 1})

	if err := model.Train(nil, nil); err == nil {
		t.Fatal("expected error for empty dataset")
	}
	if err := model.Train([][]float64{{1, 2, 3, 4}}, []int{0, 1}); err == nil {
		t.Fatal("expected error for size mismatch")
	}
	if err := model.Train([][]float64{{1, 2, 3, 4}}, []int{2}); err == nil {
		t.Fatal("expected error for non-binary label")
	}
}

func TestTrainSeparatesClasses(t *testing.T) {
	features, labels := buildSeparableDataset(160)

	model := NewRiskNet(NetConfig{Seed: 42})
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("train failed: %v", err)
	}

	predictions, err := PredictWithUncertainty(model, features, SamplerConfig{NumSamples: 20, Seed: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var atRiskSum, okSum float64
	var atRiskCount, okCount int
	for i, p := range predictions {
		if labels[i] == 1 {
			atRiskSum += p.Mean
			atRiskCount++
		} else {
			okSum += p.Mean
			okCount++
		}
	}

	atRiskMean := atRiskSum / float64(atRiskCount)
	okMean := okSum / float64(okCount)
	if atRiskMean <= okMean {
		t.Fatalf("expected at-risk mean %v to exceed ok mean %v", atRiskMean, okMean)
	}
}

func TestTrainIsDeterministicForFixedSeed(t *testing.T) {
	features, labels := buildSeparableDataset(20)

	first := NewRiskNet(NetConfig{Seed: 9})
	if err := first.Train(features, labels); err != nil {
		t.Fatalf("train failed: %v", err)
	}
	second := NewRiskNet(NetConfig{Seed: 9})
	if err := second.Train(features, labels); err != nil {
		t.Fatalf("train failed: %v", err)
	}

	batch := [][]float64{{50, 40, 5, 20}}
	cfg := SamplerConfig{NumSamples: 10, Seed: 4}
	a, err := PredictWithUncertainty(first, batch, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := PredictWithUncertainty(second, batch, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a[0] != b[0] {
		t.Fatalf("identically seeded training runs diverged: %+v vs %+v", a[0], b[0])
	}
}
