package tokens

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory Store used for unit tests and
// storage-less dev runs. Production deployments use MongoStore.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]*Record // keyed by token string
	seq  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*Record)}
}

func (m *MemoryStore) FindByToken(ctx context.Context, token string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.recs[token]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) FindAllValid(ctx context.Context, subject string) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Record
	for _, rec := range m.recs {
		if rec.Subject == subject && rec.Active() {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) Save(ctx context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.recs[rec.Token]; exists {
		return ErrDuplicateToken
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.ID == "" {
		m.seq++
		rec.ID = fmt.Sprintf("tok_%d", m.seq)
	}
	cp := *rec
	m.recs[rec.Token] = &cp
	return nil
}

func (m *MemoryStore) Invalidate(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[token]; ok {
		rec.Expired = true
		rec.Revoked = true
	}
	return nil
}

func (m *MemoryStore) RevokeAllValid(ctx context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.recs {
		if rec.Subject == subject && rec.Active() {
			rec.Expired = true
			rec.Revoked = true
		}
	}
	return nil
}
