package export

import (
	"bytes"
	"context"
	"fmt"

	"hifztracker/internal/logbook"
	"hifztracker/internal/logger"
	"hifztracker/internal/metrics"
	"hifztracker/internal/queue"
)

// RangeQuerier is the part of the logbook the worker reads from.
type RangeQuerier interface {
	GetLogsByDateRange(ctx context.Context, start, end string) ([]logbook.Entry, error)
}

// Worker renders export jobs taken from the queue.
type Worker struct {
	store Store
	logs  RangeQuerier
	log   *logger.Logger
}

// NewWorker creates a worker.
func NewWorker(store Store, logs RangeQuerier, log *logger.Logger) *Worker {
	return &Worker{store: store, logs: logs, log: log.With("component", "export-worker")}
}

// Run processes export messages until msgs is closed. Failures are recorded
// on the job and do not stop the loop.
func (w *Worker) Run(ctx context.Context, msgs <-chan queue.Message) error {
	w.log.Info("export worker started")
	for msg := range msgs {
		if msg.Type != queue.TypeExport {
			continue
		}
		id := string(msg.Body)
		if err := w.Process(ctx, id); err != nil {
			w.log.Error("export failed", "job_id", id, "error", err)
		}
	}
	w.log.Info("export worker stopped")
	return nil
}

// Process renders a single job.
func (w *Worker) Process(ctx context.Context, id string) error {
	job, err := w.store.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if job.Done() {
		return nil
	}

	entries, err := w.logs.GetLogsByDateRange(ctx, job.Start, job.End)
	if err != nil {
		return w.fail(ctx, job, fmt.Errorf("query logs: %w", err))
	}
	if len(entries) == 0 {
		job.Status = StatusEmpty
		metrics.ExportJobs.WithLabelValues(string(job.Status)).Inc()
		return w.store.SaveJob(ctx, job)
	}

	var buf bytes.Buffer
	if err := logbook.WriteCSV(&buf, entries); err != nil {
		return w.fail(ctx, job, fmt.Errorf("render csv: %w", err))
	}
	if err := w.store.SaveFile(ctx, job.ID, buf.Bytes()); err != nil {
		return w.fail(ctx, job, fmt.Errorf("save file: %w", err))
	}
	job.Status = StatusReady
	job.Rows = len(entries)
	if err := w.store.SaveJob(ctx, job); err != nil {
		return err
	}
	metrics.ExportJobs.WithLabelValues(string(job.Status)).Inc()
	w.log.Info("export ready", "job_id", job.ID, "rows", job.Rows, "start", job.Start, "end", job.End)
	return nil
}

func (w *Worker) fail(ctx context.Context, job Job, cause error) error {
	job.Status = StatusFailed
	job.Error = cause.Error()
	metrics.ExportJobs.WithLabelValues(string(job.Status)).Inc()
	if err := w.store.SaveJob(ctx, job); err != nil {
		w.log.Error("could not record export failure", "job_id", job.ID, "error", err)
	}
	return cause
}
