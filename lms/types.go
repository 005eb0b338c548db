package lms

import "time"

// Record is one student's activity snapshot for one course, as exported by
// the LMS. Immutable once parsed.
type Record struct {
	StudentID    string    `json:"student_id"`
	Course       string    `json:"course"`
	Attendance   float64   `json:"attendance"`
	AvgGrade     float64   `json:"avg_grade"`
	Submissions  int       `json:"submissions"`
	LastActivity time.Time `json:"last_activity"`
}

// ScoredRecord is a Record plus the risk columns produced by a scoring run.
type ScoredRecord struct {
	Record
	DropoutRisk float64 `json:"dropout_risk"`
	RiskCILower float64 `json:"risk_ci_lower"`
	RiskCIUpper float64 `json:"risk_ci_upper"`
}

// Key identifies a record within a cohort.
func (r Record) Key() string {
	return r.StudentID + "|" + r.Course
}
