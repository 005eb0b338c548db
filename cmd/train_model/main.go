package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"edurisk/lms"
	"edurisk/ml"
)

func main() {
	input := flag.String("input", "data/raw/lms_data.csv", "input LMS csv")
	modelPath := flag.String("model_path", "models/risk_engine/model.json", "model output path")
	hiddenDim := flag.Int("hidden", ml.DefaultHiddenDim, "hidden layer width")
	epochs := flag.Int("epochs", ml.DefaultEpochs, "training epochs")
	batchSize := flag.Int("batch_size", ml.DefaultBatchSize, "mini-batch size")
	learningRate := flag.Float64("lr", ml.DefaultLearningRate, "learning rate")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	records, err := lms.ReadCSV(*input)
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}

	features, err := ml.ExtractFeatures(records, time.Now())
	if err != nil {
		log.Fatalf("failed to extract features: %v", err)
	}
	// Placeholder target until real dropout outcomes are available.
	labels := ml.SyntheticLabels(records)

	model := ml.NewRiskNet(ml.NetConfig{HiddenDim: *hiddenDim, Seed: *seed})
	err = model.TrainWithConfig(features, labels, ml.TrainConfig{
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *learningRate,
	})
	if err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	lowMean, highMean, err := evaluateModel(model, features, labels, *seed)
	if err != nil {
		log.Fatalf("failed to evaluate model: %v", err)
	}
	log.Printf("mean risk: at-risk rows %.3f, other rows %.3f", lowMean, highMean)

	if err := os.MkdirAll(filepath.Dir(*modelPath), 0o755); err != nil {
		log.Fatalf("failed to create model dir: %v", err)
	}
	if err := model.Save(*modelPath); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}

	fmt.Printf("model saved to %s\n", *modelPath)
}

// evaluateModel reports the mean sampled risk over positive-label and
// negative-label rows; a trained model should separate the two.
func evaluateModel(model *ml.RiskNet, features [][]float64, labels []int, seed int64) (float64, float64, error) {
	predictions, err := ml.PredictWithUncertainty(model, features, ml.SamplerConfig{Seed: seed})
	if err != nil {
		return 0, 0, err
	}

	var posSum, negSum float64
	var posCount, negCount int
	for i, prediction := range predictions {
		if labels[i] == 1 {
			posSum += prediction.Mean
			posCount++
		} else {
			negSum += prediction.Mean
			negCount++
		}
	}
	if posCount == 0 || negCount == 0 {
		return 0, 0, nil
	}
	return posSum / float64(posCount), negSum / float64(negCount), nil
}
