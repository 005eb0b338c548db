package pipeline

import (
	"fmt"
	"sync"
	"time"

	"edurisk/lms"
)

// RecordRule validates one LMS record. A non-nil error rejects the record.
type RecordRule interface {
	Apply(record lms.Record) error
	Name() string
}

// QualityIssue describes a rejected record.
type QualityIssue struct {
	Rule      string    `json:"rule"`
	StudentID string    `json:"student_id"`
	Course    string    `json:"course"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CleaningStats counts cleaner outcomes.
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Issues         map[string]int64 `json:"issues"`
	LastClean      time.Time        `json:"last_clean"`
}

// RecordCleaner applies validation rules to incoming records before they
// reach storage.
type RecordCleaner struct {
	rules []RecordRule

	stats     CleaningStats
	statsLock sync.RWMutex
}

// NewRecordCleaner builds a cleaner with the default rule set.
func NewRecordCleaner() *RecordCleaner {
	cleaner := &RecordCleaner{
		stats: CleaningStats{Issues: make(map[string]int64)},
	}
	cleaner.AddRule(attendanceRule{})
	cleaner.AddRule(gradeRule{})
	cleaner.AddRule(submissionsRule{})
	cleaner.AddRule(activityDateRule{})
	return cleaner
}

// AddRule appends a rule to the chain.
func (c *RecordCleaner) AddRule(rule RecordRule) {
	c.rules = append(c.rules, rule)
}

// Clean partitions records into valid ones and quality issues.
func (c *RecordCleaner) Clean(records []lms.Record) ([]lms.Record, []QualityIssue) {
	valid := make([]lms.Record, 0, len(records))
	var issues []QualityIssue

	for _, record := range records {
		rejected := false
		for _, rule := range c.rules {
			if err := rule.Apply(record); err != nil {
				issues = append(issues, QualityIssue{
					Rule:      rule.Name(),
					StudentID: record.StudentID,
					Course:    record.Course,
					Message:   err.Error(),
					Timestamp: time.Now(),
				})
				rejected = true
				break
			}
		}
		if !rejected {
			valid = append(valid, record)
		}
	}

	c.statsLock.Lock()
	c.stats.TotalProcessed += int64(len(records))
	c.stats.Passed += int64(len(valid))
	c.stats.Rejected += int64(len(issues))
	for _, issue := range issues {
		c.stats.Issues[issue.Rule]++
	}
	c.stats.LastClean = time.Now()
	c.statsLock.Unlock()

	return valid, issues
}

// Stats returns a snapshot of cleaner counters.
func (c *RecordCleaner) Stats() CleaningStats {
	c.statsLock.RLock()
	defer c.statsLock.RUnlock()

	snapshot := c.stats
	snapshot.Issues = make(map[string]int64, len(c.stats.Issues))
	for rule, count := range c.stats.Issues {
		snapshot.Issues[rule] = count
	}
	return snapshot
}

type attendanceRule struct{}

func (attendanceRule) Name() string { return "attendance_range" }

func (attendanceRule) Apply(record lms.Record) error {
	if record.Attendance < 0 || record.Attendance > 100 {
		return fmt.Errorf("attendance %.1f outside [0,100]", record.Attendance)
	}
	return nil
}

type gradeRule struct{}

func (gradeRule) Name() string { return "grade_range" }

func (gradeRule) Apply(record lms.Record) error {
	if record.AvgGrade < 0 || record.AvgGrade > 100 {
		return fmt.Errorf("avg_grade %.1f outside [0,100]", record.AvgGrade)
	}
	return nil
}

type submissionsRule struct{}

func (submissionsRule) Name() string { return "submissions_range" }

func (submissionsRule) Apply(record lms.Record) error {
	if record.Submissions < 0 {
		return fmt.Errorf("negative submission count %d", record.Submissions)
	}
	return nil
}

type activityDateRule struct{}

func (activityDateRule) Name() string { return "activity_date" }

func (activityDateRule) Apply(record lms.Record) error {
	if record.LastActivity.IsZero() {
		return fmt.Errorf("missing last_activity")
	}
	if record.LastActivity.After(time.Now().AddDate(0, 0, 1)) {
		return fmt.Errorf("last_activity %s is in the future", record.LastActivity.Format("2006-01-02"))
	}
	return nil
}
