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
	modelPath := flag.String("model_path", "models/risk_engine/model.json", "trained model path")
	output := flag.String("output", "data/processed/risk_predictions.csv", "scored csv output path")
	numSamples := flag.Int("samples", ml.DefaultNumSamples, "stochastic passes per row")
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

	model := ml.NewRiskNet(ml.NetConfig{Seed: *seed})
	if err := model.Load(*modelPath); err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	predictions, err := ml.PredictWithUncertainty(model, features, ml.SamplerConfig{
		NumSamples: *numSamples,
		Seed:       *seed,
	})
	if err != nil {
		log.Fatalf("failed to score records: %v", err)
	}

	scored := make([]lms.ScoredRecord, len(records))
	for i, record := range records {
		scored[i] = lms.ScoredRecord{
			Record:      record,
			DropoutRisk: predictions[i].Mean,
			RiskCILower: predictions[i].Lower,
			RiskCIUpper: predictions[i].Upper,
		}
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}
	if err := lms.WriteScoredCSV(*output, scored); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}

	fmt.Printf("scored %d records -> %s\n", len(scored), *output)
}
