package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hifztracker/internal/logbook"
	"hifztracker/internal/queue"
)

// Service accepts export requests and serves finished files.
type Service struct {
	store Store
	queue queue.Queue
	now   func() time.Time
}

// NewService creates a service publishing jobs to q.
func NewService(store Store, q queue.Queue) *Service {
	return &Service{store: store, queue: q, now: time.Now}
}

// Prepare validates the range, records a pending job and enqueues it. An
// empty start and end select the current month up to today. If the job
// cannot be enqueued it is stored as failed and the publish error returned.
func (s *Service) Prepare(ctx context.Context, start, end string) (Job, error) {
	if start == "" && end == "" {
		start, end = logbook.DefaultRange(s.now())
	}
	if err := logbook.ValidateRange(start, end); err != nil {
		return Job{}, err
	}
	job := Job{
		ID:        uuid.NewString(),
		Start:     start,
		End:       end,
		Status:    StatusPending,
		Filename:  logbook.ExportFilename(start, end),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		return Job{}, err
	}
	if err := s.queue.Publish(ctx, queue.Message{Type: queue.TypeExport, Body: []byte(job.ID)}); err != nil {
		job.Status = StatusFailed
		job.Error = "could not enqueue export"
		if saveErr := s.store.SaveJob(ctx, job); saveErr != nil {
			return Job{}, errors.Join(fmt.Errorf("enqueue export: %w", err), saveErr)
		}
		return job, fmt.Errorf("enqueue export: %w", err)
	}
	return job, nil
}

// Get returns the job with id.
func (s *Service) Get(ctx context.Context, id string) (Job, error) {
	return s.store.GetJob(ctx, id)
}

// Download returns the rendered CSV of a ready job.
func (s *Service) Download(ctx context.Context, id string) (Job, []byte, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return Job{}, nil, err
	}
	if job.Status != StatusReady {
		return job, nil, ErrNotReady
	}
	data, err := s.store.File(ctx, id)
	if err != nil {
		return job, nil, err
	}
	return job, data, nil
}
