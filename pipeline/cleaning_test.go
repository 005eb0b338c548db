package pipeline

import (
	"testing"
	"time"

	"edurisk/lms"
)

func validRecord() lms.Record {
	return lms.Record{
		StudentID:    "S1000",
		Course:       "Course_1",
		Attendance:   82,
		AvgGrade:     71.5,
		Submissions:  7,
		LastActivity: time.Now().AddDate(0, 0, -3),
	}
}

func TestRecordRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*lms.Record)
		wantErr bool
	}{
		{"valid record", func(r *lms.Record) {}, false},
		{"attendance too high", func(r *lms.Record) { r.Attendance = 101 }, true},
		{"attendance negative", func(r *lms.Record) { r.Attendance = -1 }, true},
		{"grade too high", func(r *lms.Record) { r.AvgGrade = 120 }, true},
		{"negative submissions", func(r *lms.Record) { r.Submissions = -2 }, true},
		{"future activity", func(r *lms.Record) { r.LastActivity = time.Now().AddDate(0, 0, 10) }, true},
		{"missing activity", func(r *lms.Record) { r.LastActivity = time.Time{} }, true},
	}

	cleaner := NewRecordCleaner()
	for _, tt := range tests {
		record := validRecord()
		tt.mutate(&record)
		valid, issues := cleaner.Clean([]lms.Record{record})
		if tt.wantErr && len(issues) == 0 {
			t.Errorf("%s: expected a quality issue", tt.name)
		}
		if !tt.wantErr && len(valid) != 1 {
			t.Errorf("%s: expected record to pass, got issues %+v", tt.name, issues)
		}
	}
}

func TestCleanerStats(t *testing.T) {
	cleaner := NewRecordCleaner()

	bad := validRecord()
	bad.Attendance = 200
	cleaner.Clean([]lms.Record{validRecord(), bad})

	stats := cleaner.Stats()
	if stats.TotalProcessed != 2 || stats.Passed != 1 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Issues["attendance_range"] != 1 {
		t.Fatalf("expected attendance_range issue, got %+v", stats.Issues)
	}
}
