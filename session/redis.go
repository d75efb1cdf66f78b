package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store using Redis. Each session is one JSON value whose
// TTL is refreshed on every read and write; updates use WATCH/MULTI/EXEC.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

func newRedisStore(cfg *storeConfig) *redisStore {
	return &redisStore{
		client: cfg.redisClient,
		ttl:    cfg.ttl,
		prefix: cfg.keyPrefix,
		now:    cfg.now,
	}
}

// Create implements Store.
func (s *redisStore) Create(ctx context.Context, st *State) error {
	now := s.now()
	st.CreatedAt = now
	st.UpdatedAt = now
	st.Version = 1

	val, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(st.ID), val, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Get implements Store.
func (s *redisStore) Get(ctx context.Context, id string) (*State, error) {
	key := s.key(id)
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var st State
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}

	// Refresh TTL on read
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &st, nil
}

// Update implements Store.
func (s *redisStore) Update(ctx context.Context, st *State) error {
	key := s.key(st.ID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored State
		if err := json.Unmarshal(val, &stored); err != nil {
			return fmt.Errorf("unmarshal session %s: %w", st.ID, err)
		}
		if stored.Version != st.Version {
			return ErrVersionConflict
		}

		next := st.Clone()
		next.Version++
		next.UpdatedAt = s.now()

		newVal, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		st.Version = next.Version
		st.UpdatedAt = next.UpdatedAt
		return nil
	}, key)
}

// Delete implements Store.
func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) key(id string) string {
	return s.prefix + id
}
