package logbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// ExportHeader is the column order of exported logs.
var ExportHeader = []string{"log_date", "student", "surah", "start_ayah", "end_ayah", "num_lines", "pass_fail", "created_at"}

// WriteCSV writes entries as comma-separated text with a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.LogDate,
			e.Student,
			e.Surah,
			strconv.Itoa(e.StartAyah),
			strconv.Itoa(e.EndAyah),
			strconv.Itoa(e.NumLines),
			string(e.PassFail),
			e.CreatedAt,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names the CSV file for a range export.
func ExportFilename(start, end string) string {
	return fmt.Sprintf("memorisation_%s_%s.csv", start, end)
}
