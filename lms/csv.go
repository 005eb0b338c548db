package lms

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const dateLayout = "2006-01-02"

var csvColumns = []string{"student_id", "course", "attendance", "avg_grade", "submissions", "last_activity"}

// ReadCSV loads LMS records from a CSV export. Columns are resolved by header
// name, so column order in the file does not matter. LMS exports saved from
// spreadsheet tools often carry a UTF-8 or UTF-16 BOM; both are handled.
func ReadCSV(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	return ParseCSV(file)
}

// ParseCSV reads records from r. The whole file is validated; the first
// malformed cell aborts the parse.
func ParseCSV(r io.Reader) ([]Record, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range csvColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("csv missing column %q", name)
		}
	}

	var records []Record
	row := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}
		row++

		record, err := parseRow(fields, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, errors.New("csv has no data rows")
	}
	return records, nil
}

func parseRow(fields []string, index map[string]int) (Record, error) {
	cell := func(name string) (string, error) {
		i := index[name]
		if i >= len(fields) {
			return "", fmt.Errorf("missing column %q", name)
		}
		return fields[i], nil
	}

	var record Record
	var err error

	if record.StudentID, err = cell("student_id"); err != nil {
		return Record{}, err
	}
	if record.Course, err = cell("course"); err != nil {
		return Record{}, err
	}
	if record.StudentID == "" {
		return Record{}, errors.New("empty student_id")
	}

	attendance, err := cell("attendance")
	if err != nil {
		return Record{}, err
	}
	if record.Attendance, err = strconv.ParseFloat(attendance, 64); err != nil {
		return Record{}, fmt.Errorf("invalid attendance %q", attendance)
	}

	avgGrade, err := cell("avg_grade")
	if err != nil {
		return Record{}, err
	}
	if record.AvgGrade, err = strconv.ParseFloat(avgGrade, 64); err != nil {
		return Record{}, fmt.Errorf("invalid avg_grade %q", avgGrade)
	}

	submissions, err := cell("submissions")
	if err != nil {
		return Record{}, err
	}
	if record.Submissions, err = strconv.Atoi(submissions); err != nil {
		return Record{}, fmt.Errorf("invalid submissions %q", submissions)
	}

	lastActivity, err := cell("last_activity")
	if err != nil {
		return Record{}, err
	}
	if record.LastActivity, err = parseDate(lastActivity); err != nil {
		return Record{}, fmt.Errorf("invalid last_activity %q", lastActivity)
	}

	return record, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// WriteScoredCSV writes the input columns plus the three risk columns. The
// output file is fully replaced on each call.
func WriteScoredCSV(path string, records []ScoredRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output csv: %w", err)
	}

	writer := csv.NewWriter(file)
	header := append(append([]string(nil), csvColumns...), "dropout_risk", "risk_ci_lower", "risk_ci_upper")
	if err := writer.Write(header); err != nil {
		file.Close()
		return err
	}

	for _, record := range records {
		row := []string{
			record.StudentID,
			record.Course,
			formatFloat(record.Attendance),
			formatFloat(record.AvgGrade),
			strconv.Itoa(record.Submissions),
			record.LastActivity.Format(dateLayout),
			formatFloat(record.DropoutRisk),
			formatFloat(record.RiskCILower),
			formatFloat(record.RiskCIUpper),
		}
		if err := writer.Write(row); err != nil {
			file.Close()
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
