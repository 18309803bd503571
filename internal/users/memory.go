package users

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/devtoolkit/auth-service/internal/models"
)

// MemoryUserRepository is an in-memory directory used for unit tests and
// storage-less dev runs.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User // keyed by lowercase email
	seq   int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*models.User)}
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, exists := r.users[key]; exists {
		return nil, fmt.Errorf("user %s already exists", u.Email)
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("user_%d", r.seq)
	}
	cp := *u
	r.users[key] = &cp
	return u, nil
}
