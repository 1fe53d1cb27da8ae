package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// AuthState is the per-flow secret kept between building the authorization
// URL and redeeming the callback code.
type AuthState struct {
	Provider string `json:"provider"`
	Verifier string `json:"verifier"`
}

// StateStore keeps OAuth state in Redis with a short TTL. Consumption is
// one-shot: a state value can never be redeemed twice.
type StateStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStateStore(ctx context.Context, addr string, ttl time.Duration) (*StateStore, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &StateStore{rdb: rdb, ttl: ttl}, nil
}

func stateKey(state string) string { return "oauth:state:" + state }

func (s *StateStore) SaveState(ctx context.Context, state string, st AuthState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal auth state: %w", err)
	}
	if err := s.rdb.Set(ctx, stateKey(state), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save auth state: %w", err)
	}
	return nil
}

// ConsumeState fetches and deletes the state in one pass. Returns (nil, nil)
// for unknown, expired or already-consumed state.
func (s *StateStore) ConsumeState(ctx context.Context, state string) (*AuthState, error) {
	key := stateKey(state)
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load auth state: %w", err)
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("consume auth state: %w", err)
	}
	var st AuthState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("unmarshal auth state: %w", err)
	}
	return &st, nil
}

func (s *StateStore) Close() error { return s.rdb.Close() }
