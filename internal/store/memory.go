package store

import (
	"context"
	"sync"

	"github.com/ziadkadry99/orientation-agent/internal/interview"
)

// MemoryStore keeps encoded snapshots in a map. Saving a copy means later
// mutations of the caller's Session are not visible until the next Save.
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string][]byte
	appVersion string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(appVersion string) *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}, appVersion: appVersion}
}

func (st *MemoryStore) Save(_ context.Context, s *interview.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	st.mu.Lock()
	st.data[s.ID] = data
	st.mu.Unlock()
	return nil
}

func (st *MemoryStore) Load(_ context.Context, id string) (*interview.Session, error) {
	st.mu.RLock()
	data, ok := st.data[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (st *MemoryStore) Delete(_ context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.data[id]; !ok {
		return ErrNotFound
	}
	delete(st.data, id)
	return nil
}

func (st *MemoryStore) List(_ context.Context) ([]Meta, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Meta, 0, len(st.data))
	for _, data := range st.data {
		s, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, metaOf(s))
	}
	sortMetas(out)
	return out, nil
}

func (st *MemoryStore) Close() error { return nil }
