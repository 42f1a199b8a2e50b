package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hifztracker/internal/apperr"
	"hifztracker/internal/logbook"
	"hifztracker/internal/roster"
)

// batchFile is the on-disk form of a daily batch. Each row names its student
// by id or by exact name.
type batchFile struct {
	Date string     `yaml:"date"`
	Rows []batchRow `yaml:"rows"`
}

type batchRow struct {
	Student     string `yaml:"student"`
	logbook.Row `yaml:",inline"`
}

func parseBatchFile(r io.Reader) (batchFile, error) {
	var bf batchFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&bf); err != nil {
		return batchFile{}, fmt.Errorf("parse batch file: %w", err)
	}
	return bf, nil
}

// resolve fills in student ids for rows that name their student.
func (bf batchFile) resolve(ctx context.Context, students *roster.Repository) ([]logbook.Row, error) {
	list, err := students.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(list))
	for _, st := range list {
		byName[st.Name] = st.ID
	}

	rows := make([]logbook.Row, 0, len(bf.Rows))
	var problems []apperr.Problem
	for i, r := range bf.Rows {
		row := r.Row
		if r.Student != "" {
			id, ok := byName[r.Student]
			if !ok {
				problems = append(problems, apperr.Problem{Row: i, Field: "student", Message: fmt.Sprintf("no student named %q", r.Student)})
			}
			row.StudentID = id
		}
		rows = append(rows, row)
	}
	if len(problems) > 0 {
		return nil, apperr.Reference("unknown students", problems...)
	}
	return rows, nil
}

func newLogsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Submit, view and export daily logs",
	}

	var submitDate, file string
	submit := &cobra.Command{
		Use:   "submit",
		Short: "Submit a day's batch from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			bf, err := parseBatchFile(in)
			if err != nil {
				return err
			}
			logDate := submitDate
			if logDate == "" {
				logDate = bf.Date
			}
			if logDate == "" {
				logDate = time.Now().Format(logbook.DateLayout)
			}
			rows, err := bf.resolve(cmd.Context(), a.students)
			if err != nil {
				return err
			}
			n, err := a.logs.SubmitDailyBatch(cmd.Context(), logDate, rows)
			if err != nil {
				return err
			}
			a.log.Info("daily batch submitted", "log_date", logDate, "rows", n)
			fmt.Fprintf(cmd.OutOrStdout(), "logged %d students for %s\n", n, logDate)
			return nil
		},
	}
	submit.Flags().StringVar(&submitDate, "date", "", "log date YYYY-MM-DD (default: file's date, then today)")
	submit.Flags().StringVarP(&file, "file", "f", "-", "batch file, - for stdin")

	var showDate string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the logs for one date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showDate == "" {
				showDate = time.Now().Format(logbook.DateLayout)
			}
			entries, err := a.logs.GetLogsForDate(cmd.Context(), showDate)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no logs for %s\n", showDate)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STUDENT\tSURAH\tAYAHS\tLINES\tRESULT\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%d-%d\t%d\t%s\t%s\n", e.Student, e.Surah, e.StartAyah, e.EndAyah, e.NumLines, e.PassFail, e.CreatedAt)
			}
			return tw.Flush()
		},
	}
	show.Flags().StringVar(&showDate, "date", "", "log date YYYY-MM-DD (default today)")

	var from, to, out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a date range as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" && to == "" {
				from, to = logbook.DefaultRange(time.Now())
			}
			entries, err := a.logs.GetLogsByDateRange(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := logbook.WriteCSV(w, entries); err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no records in that range")
			}
			return nil
		},
	}
	exportCmd.Flags().StringVar(&from, "from", "", "first date, inclusive (default first of this month)")
	exportCmd.Flags().StringVar(&to, "to", "", "last date, inclusive (default today)")
	exportCmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")

	cmd.AddCommand(submit, show, exportCmd)
	return cmd
}
