package ml

// RiskModel is the contract scoring pipelines depend on. Train mutates
// parameters in place; Score runs a single stochastic forward pass.
type RiskModel interface {
	Train(features [][]float64, labels []int) error
	Score(features []float64) (float64, error)
	Save(path string) error
	Load(path string) error
}
