package ml

import (
	"errors"
	"fmt"
	"math"
	"time"

	"edurisk/lms"
)

// NumFeatures is the model input dimension.
const NumFeatures = 4

// FeatureNames returns the feature order the model is trained with. The order
// is fixed; vectors built in any other order are meaningless to the model.
func FeatureNames() []string {
	return []string{
		"attendance",
		"avg_grade",
		"submissions",
		"last_activity_days",
	}
}

// LastActivityDays converts an activity timestamp into whole days before now,
// truncated, never negative.
func LastActivityDays(lastActivity, now time.Time) float64 {
	days := int(now.Sub(lastActivity).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return float64(days)
}

// FeatureVector builds the 4-feature vector for one record.
func FeatureVector(record lms.Record, now time.Time) ([]float64, error) {
	if record.LastActivity.IsZero() {
		return nil, errors.New("missing last_activity")
	}
	vector := []float64{
		record.Attendance,
		record.AvgGrade,
		float64(record.Submissions),
		LastActivityDays(record.LastActivity, now),
	}
	names := FeatureNames()
	for i, value := range vector {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("non-numeric %s", names[i])
		}
	}
	return vector, nil
}

// ExtractFeatures builds feature vectors for a batch of records.
func ExtractFeatures(records []lms.Record, now time.Time) ([][]float64, error) {
	if len(records) == 0 {
		return nil, errors.New("records is empty")
	}
	vectors := make([][]float64, len(records))
	for i, record := range records {
		vector, err := FeatureVector(record, now)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", record.Key(), err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// SyntheticLabels derives the placeholder training target: avg_grade below 60
// marks a row as at-risk. Actual dropout outcomes are not available at this
// stage of the system; real labels must be supplied externally before the
// trained model means anything.
func SyntheticLabels(records []lms.Record) []int {
	labels := make([]int, len(records))
	for i, record := range records {
		if record.AvgGrade < 60 {
			labels[i] = 1
		}
	}
	return labels
}
