// Package memory implementa core.Store en memoria.
// Útil para desarrollo y testing; mismas semánticas de unicidad que pg.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/systemrpg/backend/internal/store/core"
)

// Store implementa core.Store con maps protegidos por RWMutex.
type Store struct {
	blacklist *blacklistRepo
	users     *userRepo
}

// New crea un store en memoria vacío.
func New() *Store {
	return &Store{
		blacklist: &blacklistRepo{entries: make(map[string]*core.BlacklistEntry)},
		users: &userRepo{
			byID:       make(map[uuid.UUID]*core.User),
			byUsername: make(map[string]uuid.UUID),
			byEmail:    make(map[string]uuid.UUID),
		},
	}
}

func (s *Store) Blacklist() core.BlacklistRepository { return s.blacklist }
func (s *Store) Users() core.UserRepository          { return s.users }
func (s *Store) Ping(ctx context.Context) error      { return nil }
func (s *Store) Close() error                        { return nil }

// ---------------------------------------------------------------------------
// blacklist
// ---------------------------------------------------------------------------

type blacklistRepo struct {
	mu      sync.RWMutex
	entries map[string]*core.BlacklistEntry // fingerprint -> entry
}

func (r *blacklistRepo) Add(ctx context.Context, entry *core.BlacklistEntry) error {
	if entry.Fingerprint == "" {
		return core.ErrInvalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.Fingerprint]; ok {
		return core.ErrConflict
	}
	cp := *entry
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.entries[entry.Fingerprint] = &cp
	return nil
}

func (r *blacklistRepo) Contains(ctx context.Context, fingerprint string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[fingerprint]
	return ok, nil
}

func (r *blacklistRepo) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for fp, e := range r.entries {
		if e.ExpiresAt.Before(now) {
			delete(r.entries, fp)
			removed++
		}
	}
	return removed, nil
}

func (r *blacklistRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, e := range r.entries {
		if !e.ExpiresAt.Before(now) {
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// users
// ---------------------------------------------------------------------------

type userRepo struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]*core.User
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (r *userRepo) Create(ctx context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	uname, email := normalize(u.Username), normalize(u.Email)
	if _, ok := r.byUsername[uname]; ok {
		return core.ErrConflict
	}
	if _, ok := r.byEmail[email]; ok {
		return core.ErrConflict
	}

	cp := *u
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if cp.Roles == nil {
		cp.Roles = []string{}
	}
	u.ID = cp.ID

	r.byID[cp.ID] = &cp
	r.byUsername[uname] = cp.ID
	r.byEmail[email] = cp.ID
	return nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[normalize(username)]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUsername[normalize(username)]
	return ok, nil
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byEmail[normalize(email)]
	return ok, nil
}

func (r *userRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	cp := at
	u.LastLoginAt = &cp
	return nil
}
