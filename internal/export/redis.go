package export

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps jobs and files in Redis so the API and worker processes
// can share them.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store writing keys under prefix with the given TTL.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "hifz:export:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) jobKey(id string) string  { return s.prefix + id }
func (s *RedisStore) fileKey(id string) string { return s.prefix + id + ":csv" }

func (s *RedisStore) SaveJob(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.jobKey(job.ID), raw, s.ttl).Err()
}

func (s *RedisStore) GetJob(ctx context.Context, id string) (Job, error) {
	raw, err := s.client.Get(ctx, s.jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return Job{}, err
	}
	return job, nil
}

func (s *RedisStore) SaveFile(ctx context.Context, id string, data []byte) error {
	return s.client.Set(ctx, s.fileKey(id), data, s.ttl).Err()
}

func (s *RedisStore) File(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.fileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}
