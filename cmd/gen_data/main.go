package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"edurisk/lms"
)

func main() {
	students := flag.Int("students", 30, "number of students")
	courses := flag.Int("courses", 5, "number of courses per student")
	output := flag.String("output", "data/raw/lms_data.csv", "output csv path")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	records, err := lms.GenerateSample(*students, *courses, *seed)
	if err != nil {
		log.Fatalf("failed to generate sample: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}
	if err := writeCSV(*output, records); err != nil {
		log.Fatalf("failed to write csv: %v", err)
	}

	fmt.Printf("sample LMS data generated -> %s (%d rows)\n", *output, len(records))
}

func writeCSV(path string, records []lms.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"student_id", "course", "attendance", "avg_grade", "submissions", "last_activity"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.StudentID,
			record.Course,
			strconv.FormatFloat(record.Attendance, 'g', -1, 64),
			strconv.FormatFloat(record.AvgGrade, 'g', -1, 64),
			strconv.Itoa(record.Submissions),
			record.LastActivity.Format("2006-01-02"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
