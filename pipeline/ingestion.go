package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"edurisk/lms"
)

// IngestionConfig configures the record ingester.
type IngestionConfig struct {
	BatchSize  int `json:"batch_size"`
	MaxRetries int `json:"max_retries"`
}

// IngestionStats counts ingester outcomes.
type IngestionStats struct {
	FilesIngested int64     `json:"files_ingested"`
	TotalRecords  int64     `json:"total_records"`
	Rejected      int64     `json:"rejected"`
	FailedBatches int64     `json:"failed_batches"`
	LastIngestion time.Time `json:"last_ingestion"`
}

// Ingester validates and stores LMS records arriving as CSV exports.
type Ingester struct {
	config  IngestionConfig
	storage *Storage
	cleaner *RecordCleaner
	logger  *zap.Logger

	stats     IngestionStats
	statsLock sync.RWMutex
}

// NewIngester wires an ingester. Zero config values fall back to defaults.
func NewIngester(config IngestionConfig, storage *Storage, logger *zap.Logger) *Ingester {
	if config.BatchSize <= 0 {
		config.BatchSize = 500
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{
		config:  config,
		storage: storage,
		cleaner: NewRecordCleaner(),
		logger:  logger,
	}
}

// IngestCSV reads one CSV export, validates its rows and stores the valid
// ones. Returns the number of stored records. A parse error aborts the whole
// file; validation failures drop individual rows.
func (in *Ingester) IngestCSV(ctx context.Context, path string) (int, error) {
	records, err := lms.ReadCSV(path)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}
	stored, err := in.IngestRecords(ctx, records)
	if err != nil {
		return stored, fmt.Errorf("ingest %s: %w", path, err)
	}

	in.statsLock.Lock()
	in.stats.FilesIngested++
	in.statsLock.Unlock()

	in.logger.Info("ingested csv",
		zap.String("path", path),
		zap.Int("stored", stored),
		zap.Int("rows", len(records)))
	return stored, nil
}

// IngestRecords validates and stores records in batches.
func (in *Ingester) IngestRecords(ctx context.Context, records []lms.Record) (int, error) {
	valid, issues := in.cleaner.Clean(records)
	for _, issue := range issues {
		in.logger.Warn("rejected record",
			zap.String("rule", issue.Rule),
			zap.String("student", issue.StudentID),
			zap.String("course", issue.Course),
			zap.String("reason", issue.Message))
	}

	stored := 0
	for start := 0; start < len(valid); start += in.config.BatchSize {
		end := start + in.config.BatchSize
		if end > len(valid) {
			end = len(valid)
		}
		if err := in.saveWithRetry(ctx, valid[start:end]); err != nil {
			return stored, err
		}
		stored += end - start
	}

	in.statsLock.Lock()
	in.stats.TotalRecords += int64(stored)
	in.stats.Rejected += int64(len(issues))
	in.stats.LastIngestion = time.Now()
	in.statsLock.Unlock()

	return stored, nil
}

func (in *Ingester) saveWithRetry(ctx context.Context, batch []lms.Record) error {
	var err error
	for retry := 0; retry < in.config.MaxRetries; retry++ {
		if err = in.storage.SaveRecords(ctx, batch); err == nil {
			return nil
		}
		in.logger.Warn("save batch failed",
			zap.Int("retry", retry),
			zap.Error(err))
		time.Sleep(time.Duration(retry+1) * time.Second)
	}

	in.statsLock.Lock()
	in.stats.FailedBatches++
	in.statsLock.Unlock()
	return err
}

// Stats returns a snapshot of ingester counters.
func (in *Ingester) Stats() IngestionStats {
	in.statsLock.RLock()
	defer in.statsLock.RUnlock()
	return in.stats
}
