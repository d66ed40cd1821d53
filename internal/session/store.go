// Package session keeps wizard sessions in Redis between requests.
package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"pool-wizard/internal/common/errors"
	"pool-wizard/internal/common/logger"
	"pool-wizard/internal/wizard"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "wizard:session:"

// Store saves each session as one JSON value with a sliding TTL: every read
// and write pushes the expiry out again. A session has a single writer, so
// the last Save wins.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewStore(client redis.Cmdable, ttl time.Duration, prefix string, log logger.Logger) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: log.WithFields(map[string]interface{}{"component": "session-store"}),
	}
}

func (s *Store) Key(id string) string {
	return s.prefix + id
}

func (s *Store) Save(ctx context.Context, state *wizard.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", state.ID, err)
	}
	if err := s.client.Set(ctx, s.Key(state.ID), data, s.ttl).Err(); err != nil {
		s.logger.Error("failed to save session", map[string]interface{}{
			"sessionId": state.ID,
			"error":     err.Error(),
		})
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*wizard.State, error) {
	val, err := s.client.GetEx(ctx, s.Key(id), s.ttl).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, errors.NewSessionNotFoundError(id)
		}
		s.logger.Error("failed to load session", map[string]interface{}{
			"sessionId": id,
			"error":     err.Error(),
		})
		return nil, errors.NewSessionStoreFailedError(err)
	}

	var state wizard.State
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		s.logger.Warn("discarding unreadable session", map[string]interface{}{
			"sessionId": id,
			"error":     err.Error(),
		})
		return nil, errors.NewSessionNotFoundError(id)
	}
	return &state, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.Key(id)).Result()
	if err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	if n == 0 {
		return errors.NewSessionNotFoundError(id)
	}
	return nil
}
