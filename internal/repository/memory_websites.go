package repository

import (
	"context"
	"sync"

	"juzbuild-api/internal/domain"
)

// MemoryWebsitesRepo / MemoryUsersRepo support tests and DB-disabled runs.

type MemoryWebsitesRepo struct {
	mu       sync.RWMutex
	websites map[string]domain.Website
}

func NewMemoryWebsitesRepo() *MemoryWebsitesRepo {
	return &MemoryWebsitesRepo{websites: map[string]domain.Website{}}
}

var _ WebsitesRepo = (*MemoryWebsitesRepo)(nil)

func (r *MemoryWebsitesRepo) Put(w domain.Website) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.websites[w.WebsiteID] = w
}

func (r *MemoryWebsitesRepo) GetOwned(_ context.Context, websiteID, userID string) (*domain.Website, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.websites[websiteID]
	if !ok || w.UserID != userID {
		return nil, domain.ErrNotFound
	}
	out := w
	return &out, nil
}

type MemoryUsersRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMemoryUsersRepo() *MemoryUsersRepo {
	return &MemoryUsersRepo{users: map[string]domain.User{}}
}

var _ UsersRepo = (*MemoryUsersRepo)(nil)

func (r *MemoryUsersRepo) Put(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.UserID] = u
}

func (r *MemoryUsersRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := u
	return &out, nil
}
