// Package logbook records daily memorisation logs. A date is either open (no
// logs) or closed (any logs present); a closed date accepts no further
// submissions.
package logbook

import "time"

// DateLayout is the ISO calendar-date form used for storage and comparison.
// Its lexical order equals chronological order.
const DateLayout = "2006-01-02"

// Result is the outcome of an assessment.
type Result string

const (
	Pass Result = "Pass"
	Fail Result = "Fail"
)

// Valid reports whether r is one of the allowed results.
func (r Result) Valid() bool {
	return r == Pass || r == Fail
}

// Row is one student's entry in a daily batch.
type Row struct {
	StudentID int64  `json:"student_id" yaml:"student_id"`
	Surah     string `json:"surah" yaml:"surah"`
	StartAyah int    `json:"start_ayah" yaml:"start_ayah"`
	EndAyah   int    `json:"end_ayah" yaml:"end_ayah"`
	NumLines  int    `json:"num_lines" yaml:"num_lines"`
	PassFail  Result `json:"pass_fail" yaml:"pass_fail"`
}

// Entry is a stored log joined with its student's name.
type Entry struct {
	ID        int64  `json:"id"`
	LogDate   string `json:"log_date"`
	StudentID int64  `json:"student_id"`
	Student   string `json:"student"`
	Surah     string `json:"surah"`
	StartAyah int    `json:"start_ayah"`
	EndAyah   int    `json:"end_ayah"`
	NumLines  int    `json:"num_lines"`
	PassFail  Result `json:"pass_fail"`
	CreatedAt string `json:"created_at"`
}

// DefaultRange returns the first day of now's month through now.
func DefaultRange(now time.Time) (start, end string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.Format(DateLayout), now.Format(DateLayout)
}
