package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
)

// RedisOptions configures a RedisStore. A zero TTL keeps snapshots forever.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps snapshots under session:<app_version>:<id>.
type RedisStore struct {
	client     *redis.Client
	ttl        time.Duration
	appVersion string
}

// NewRedisStore connects lazily to the configured server.
func NewRedisStore(opts RedisOptions, appVersion string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisStoreWithClient(client, opts.TTL, appVersion)
}

// NewRedisStoreWithClient uses an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration, appVersion string) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, appVersion: appVersion}
}

func (st *RedisStore) key(id string) string {
	return "session:" + st.appVersion + ":" + id
}

// Save writes the snapshot and refreshes its TTL.
func (st *RedisStore) Save(ctx context.Context, s *interview.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := st.client.Set(ctx, st.key(s.ID), data, st.ttl).Err(); err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the stored snapshot or ErrNotFound.
func (st *RedisStore) Load(ctx context.Context, id string) (*interview.Session, error) {
	data, err := st.client.Get(ctx, st.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return decode(data)
}

// Delete removes the snapshot or returns ErrNotFound.
func (st *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := st.client.Del(ctx, st.key(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List scans the namespace and decodes each snapshot.
func (st *RedisStore) List(ctx context.Context) ([]Meta, error) {
	var out []Meta
	iter := st.client.Scan(ctx, 0, st.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		data, err := st.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", iter.Val(), err)
		}
		s, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, metaOf(s))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning sessions: %w", err)
	}
	sortMetas(out)
	return out, nil
}

// Ping checks connectivity.
func (st *RedisStore) Ping(ctx context.Context) error {
	return st.client.Ping(ctx).Err()
}

// Close closes the client.
func (st *RedisStore) Close() error {
	return st.client.Close()
}

func sortMetas(ms []Meta) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].UpdatedAt.Equal(ms[j].UpdatedAt) {
			return ms[i].UpdatedAt.After(ms[j].UpdatedAt)
		}
		return ms[i].ID < ms[j].ID
	})
}
