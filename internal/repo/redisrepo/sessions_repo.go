package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/busguard/internal/domain/session"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "busguard:session:"

// SessionsRepo stores session records as JSON strings. Keys live for the
// record's remaining lifetime plus grace, so an expired session can still be
// told apart from an unknown one for a while.
type SessionsRepo struct {
	rdb   *redis.Client
	grace time.Duration
	now   func() time.Time
}

func NewSessionsRepo(rdb *redis.Client, grace time.Duration) *SessionsRepo {
	if grace < 0 {
		grace = 0
	}
	return &SessionsRepo{rdb: rdb, grace: grace, now: time.Now}
}

func key(id string) string { return keyPrefix + id }

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Record, error) {
	raw, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Record{}, session.ErrNoSession
		}
		return session.Record{}, err
	}

	var rec session.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return session.Record{}, fmt.Errorf("decode session record: %w", err)
	}

	return rec, nil
}

func (r *SessionsRepo) Put(ctx context.Context, id string, rec session.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	var ttl time.Duration
	if !rec.ExpiresAt.IsZero() {
		ttl = rec.ExpiresAt.Sub(r.now()) + r.grace
		if ttl <= 0 {
			// already gone
			return r.Delete(ctx, id)
		}
	}

	return r.rdb.Set(ctx, key(id), b, ttl).Err()
}

func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, key(id)).Err()
}

func (r *SessionsRepo) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
