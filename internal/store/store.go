// Package store persists interview session snapshots. Each snapshot is the
// whole Session written as one JSON document, namespaced by app version.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/orientation-agent/internal/config"
	"github.com/ziadkadry99/orientation-agent/internal/db"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
)

// ErrNotFound is returned by Load and Delete for an unknown session.
var ErrNotFound = errors.New("session not found")

// Store saves and restores session snapshots.
type Store interface {
	Save(ctx context.Context, s *interview.Session) error
	Load(ctx context.Context, id string) (*interview.Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Meta, error)
	Close() error
}

// Meta describes a stored session without its full snapshot.
type Meta struct {
	ID        string          `json:"id"`
	Phase     interview.Phase `json:"phase"`
	Index     int             `json:"index"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Open builds the store selected by cfg. Snapshots are namespaced by
// appVersion so that a schema change starts from a clean slate.
func Open(cfg config.StoreConfig, appVersion string) (Store, error) {
	switch cfg.Driver {
	case config.StoreSQLite:
		d, err := db.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(d, appVersion), nil
	case config.StoreRedis:
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      time.Duration(cfg.TTLMinutes) * time.Minute,
		}, appVersion), nil
	case config.StoreMemory, "":
		return NewMemoryStore(appVersion), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func encode(s *interview.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session %s: %w", s.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*interview.Session, error) {
	var s interview.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session snapshot: %w", err)
	}
	return &s, nil
}

func metaOf(s *interview.Session) Meta {
	return Meta{ID: s.ID, Phase: s.Phase, Index: s.Index, UpdatedAt: s.UpdatedAt}
}
