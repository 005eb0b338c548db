package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"edurisk/lms"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(StorageConfig{
		DBPath:    filepath.Join(t.TempDir(), "test.db"),
		EnableWAL: true,
	})
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func testRecords() []lms.Record {
	activity := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	return []lms.Record{
		{StudentID: "S1000", Course: "Course_1", Attendance: 82, AvgGrade: 71.5, Submissions: 7, LastActivity: activity},
		{StudentID: "S1001", Course: "Course_1", Attendance: 55, AvgGrade: 48, Submissions: 5, LastActivity: activity.AddDate(0, 0, -10)},
	}
}

func TestSaveLoadRecords(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	if err := storage.SaveRecords(ctx, testRecords()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	records, err := storage.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0] != testRecords()[0] {
		t.Fatalf("record changed through storage: %+v", records[0])
	}
}

func TestSaveRecordsUpserts(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	records := testRecords()
	if err := storage.SaveRecords(ctx, records); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	records[0].Attendance = 90
	if err := storage.SaveRecords(ctx, records[:1]); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := storage.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("upsert duplicated rows: %d", len(loaded))
	}
	if loaded[0].Attendance != 90 {
		t.Fatalf("upsert did not replace: %+v", loaded[0])
	}
}

func TestSaveLoadScores(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	scored := []lms.ScoredRecord{{
		Record:      testRecords()[0],
		DropoutRisk: 0.42,
		RiskCILower: 0.30,
		RiskCIUpper: 0.55,
	}}
	if err := storage.SaveScores(ctx, scored); err != nil {
		t.Fatalf("save scores failed: %v", err)
	}

	loaded, err := storage.LoadScores(ctx)
	if err != nil {
		t.Fatalf("load scores failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != scored[0] {
		t.Fatalf("scores changed through storage: %+v", loaded)
	}
}
