package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"edurisk/lms"
)

// StorageConfig configures the SQLite layer.
type StorageConfig struct {
	DBPath    string `json:"db_path"`
	EnableWAL bool   `json:"enable_wal"`
}

// Storage persists LMS records and risk scores in SQLite.
type Storage struct {
	config StorageConfig
	db     *sql.DB

	preparedStmts map[string]*sql.Stmt
	stmtLock      sync.RWMutex
}

// NewStorage opens (creating if needed) the database at config.DBPath.
func NewStorage(config StorageConfig) (*Storage, error) {
	storage := &Storage{
		config:        config,
		preparedStmts: make(map[string]*sql.Stmt),
	}
	if err := storage.initDB(); err != nil {
		return nil, err
	}
	return storage, nil
}

func (s *Storage) initDB() error {
	if dir := filepath.Dir(s.config.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := s.config.DBPath
	if s.config.EnableWAL {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	} else {
		dsn += "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}
	s.db = db

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := s.createTables(); err != nil {
		return fmt.Errorf("create tables failed: %w", err)
	}
	return nil
}

func (s *Storage) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS lms_records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            student_id TEXT NOT NULL,
            course TEXT NOT NULL,
            attendance REAL NOT NULL,
            avg_grade REAL NOT NULL,
            submissions INTEGER NOT NULL,
            last_activity INTEGER NOT NULL,
            created_at INTEGER DEFAULT (strftime('%s', 'now')),
            UNIQUE(student_id, course)
        )`,
		`CREATE TABLE IF NOT EXISTS risk_scores (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            student_id TEXT NOT NULL,
            course TEXT NOT NULL,
            attendance REAL NOT NULL,
            avg_grade REAL NOT NULL,
            submissions INTEGER NOT NULL,
            last_activity INTEGER NOT NULL,
            dropout_risk REAL NOT NULL,
            risk_ci_lower REAL NOT NULL,
            risk_ci_upper REAL NOT NULL,
            scored_at INTEGER DEFAULT (strftime('%s', 'now')),
            UNIQUE(student_id, course)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_records_student ON lms_records(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_student ON risk_scores(student_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("exec query failed: %w", err)
		}
	}
	return nil
}

// SaveRecords upserts a batch of LMS records in one transaction.
func (s *Storage) SaveRecords(ctx context.Context, records []lms.Record) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := s.getPreparedStmt(`INSERT OR REPLACE INTO lms_records
        (student_id, course, attendance, avg_grade, submissions, last_activity)
        VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, record := range records {
		_, err := tx.Stmt(stmt).ExecContext(ctx,
			record.StudentID,
			record.Course,
			record.Attendance,
			record.AvgGrade,
			record.Submissions,
			record.LastActivity.Unix(),
		)
		if err != nil {
			return fmt.Errorf("insert record failed: %w", err)
		}
	}

	return tx.Commit()
}

// LoadRecords returns every stored LMS record.
func (s *Storage) LoadRecords(ctx context.Context) ([]lms.Record, error) {
	query := `SELECT student_id, course, attendance, avg_grade, submissions, last_activity
        FROM lms_records ORDER BY student_id, course`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []lms.Record
	for rows.Next() {
		var record lms.Record
		var lastActivity int64
		err := rows.Scan(
			&record.StudentID,
			&record.Course,
			&record.Attendance,
			&record.AvgGrade,
			&record.Submissions,
			&lastActivity,
		)
		if err != nil {
			return nil, err
		}
		record.LastActivity = time.Unix(lastActivity, 0).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveScores upserts scored records in one transaction.
func (s *Storage) SaveScores(ctx context.Context, scored []lms.ScoredRecord) error {
	if len(scored) == 0 {
		return nil
	}

	stmt, err := s.getPreparedStmt(`INSERT OR REPLACE INTO risk_scores
        (student_id, course, attendance, avg_grade, submissions, last_activity,
         dropout_risk, risk_ci_lower, risk_ci_upper)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, record := range scored {
		_, err := tx.Stmt(stmt).ExecContext(ctx,
			record.StudentID,
			record.Course,
			record.Attendance,
			record.AvgGrade,
			record.Submissions,
			record.LastActivity.Unix(),
			record.DropoutRisk,
			record.RiskCILower,
			record.RiskCIUpper,
		)
		if err != nil {
			return fmt.Errorf("insert score failed: %w", err)
		}
	}

	return tx.Commit()
}

// LoadScores returns every stored risk score.
func (s *Storage) LoadScores(ctx context.Context) ([]lms.ScoredRecord, error) {
	query := `SELECT student_id, course, attendance, avg_grade, submissions, last_activity,
        dropout_risk, risk_ci_lower, risk_ci_upper
        FROM risk_scores ORDER BY student_id, course`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []lms.ScoredRecord
	for rows.Next() {
		var record lms.ScoredRecord
		var lastActivity int64
		err := rows.Scan(
			&record.StudentID,
			&record.Course,
			&record.Attendance,
			&record.AvgGrade,
			&record.Submissions,
			&lastActivity,
			&record.DropoutRisk,
			&record.RiskCILower,
			&record.RiskCIUpper,
		)
		if err != nil {
			return nil, err
		}
		record.LastActivity = time.Unix(lastActivity, 0).UTC()
		scored = append(scored, record)
	}
	return scored, rows.Err()
}

func (s *Storage) getPreparedStmt(query string) (*sql.Stmt, error) {
	s.stmtLock.RLock()
	stmt, ok := s.preparedStmts[query]
	s.stmtLock.RUnlock()
	if ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, err
	}

	s.stmtLock.Lock()
	s.preparedStmts[query] = stmt
	s.stmtLock.Unlock()
	return stmt, nil
}

// Close releases prepared statements and the database handle.
func (s *Storage) Close() error {
	for _, stmt := range s.preparedStmts {
		_ = stmt.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
