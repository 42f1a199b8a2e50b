// Package export prepares CSV exports of a date range in the background and
// keeps the rendered file until it expires.
package export

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of an export job.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

var (
	ErrNotFound = errors.New("export not found")
	ErrNotReady = errors.New("export not ready")
)

// Job describes one export request.
type Job struct {
	ID        string    `json:"id"`
	Start     string    `json:"start_date"`
	End       string    `json:"end_date"`
	Status    Status    `json:"status"`
	Rows      int       `json:"rows"`
	Error     string    `json:"error,omitempty"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// Done reports whether the job reached a final status.
func (j Job) Done() bool {
	return j.Status != StatusPending
}

// Store keeps jobs and rendered files. Implementations expire both after a
// configured TTL.
type Store interface {
	SaveJob(ctx context.Context, job Job) error
	GetJob(ctx context.Context, id string) (Job, error)
	SaveFile(ctx context.Context, id string, data []byte) error
	File(ctx context.Context, id string) ([]byte, error)
}
