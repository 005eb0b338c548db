package lms

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// GenerateSample produces a synthetic cohort for local runs and tests:
// attendance 50-100, 5-10 submissions graded 40-100, last activity within the
// past 15 days. Deterministic for a fixed seed.
func GenerateSample(students, courses int, seed int64) ([]Record, error) {
	if students <= 0 || courses <= 0 {
		return nil, errors.New("students and courses must be positive")
	}

	rng := rand.New(rand.NewSource(seed))
	today := time.Now().Truncate(24 * time.Hour)

	records := make([]Record, 0, students*courses)
	for s := 0; s < students; s++ {
		studentID := fmt.Sprintf("S%d", 1000+s)
		for c := 1; c <= courses; c++ {
			submissions := 5 + rng.Intn(6)
			total := 0
			for i := 0; i < submissions; i++ {
				total += 40 + rng.Intn(61)
			}
			records = append(records, Record{
				StudentID:    studentID,
				Course:       fmt.Sprintf("Course_%d", c),
				Attendance:   float64(50 + rng.Intn(51)),
				AvgGrade:     float64(total) / float64(submissions),
				Submissions:  submissions,
				LastActivity: today.AddDate(0, 0, -rng.Intn(16)),
			})
		}
	}
	return records, nil
}
