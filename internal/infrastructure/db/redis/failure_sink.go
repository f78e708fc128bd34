package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lumenstudio/backoffice/internal/core/domain"
	"github.com/lumenstudio/backoffice/internal/core/ports"
)

// DefaultFailureKey is the list holding unreconciled cleanup failures.
const DefaultFailureKey = "cleanup:failures"

// FailureSink keeps cleanup failures on a Redis list, oldest at the head.
// Each entry is a JSON-encoded domain.CleanupFailure. Dead-lettered entries
// live on a second list, key + ":dead", that Drain never reads.
type FailureSink struct {
	client  *redis.Client
	key     string
	deadKey string
	log     zerolog.Logger
}

// NewFailureSink creates a FailureSink on key. An empty key uses DefaultFailureKey.
func NewFailureSink(client *redis.Client, key string, log zerolog.Logger) *FailureSink {
	if key == "" {
		key = DefaultFailureKey
	}
	return &FailureSink{client: client, key: key, deadKey: key + ":dead", log: log}
}

var _ ports.FailureSink = (*FailureSink)(nil)

func (s *FailureSink) Report(ctx context.Context, failure domain.CleanupFailure) error {
	payload, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("encode cleanup failure: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, payload).Err(); err != nil {
		return fmt.Errorf("report cleanup failure: %w", err)
	}
	return nil
}

func (s *FailureSink) DeadLetter(ctx context.Context, failure domain.CleanupFailure) error {
	payload, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("encode cleanup failure: %w", err)
	}
	if err := s.client.RPush(ctx, s.deadKey, payload).Err(); err != nil {
		return fmt.Errorf("dead-letter cleanup failure: %w", err)
	}
	return nil
}

// Drain pops up to limit entries. Entries that no longer decode are moved
// to the dead letter as they are.
func (s *FailureSink) Drain(ctx context.Context, limit int) ([]domain.CleanupFailure, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.client.LPopCount(ctx, s.key, limit).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("drain cleanup failures: %w", err)
	}

	out := make([]domain.CleanupFailure, 0, len(raw))
	for _, item := range raw {
		var f domain.CleanupFailure
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			s.log.Error().Err(err).Str("key", s.key).Str("entry", item).Msg("undecodable cleanup failure moved to dead letter")
			if perr := s.client.RPush(ctx, s.deadKey, item).Err(); perr != nil {
				s.log.Error().Err(perr).Str("key", s.deadKey).Msg("dead-letter undecodable entry")
			}
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Len reports how many failures are waiting.
func (s *FailureSink) Len(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("count cleanup failures: %w", err)
	}
	return n, nil
}
