package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cinescope/cinescope/src/internal/domain"
)

type userDocument struct {
	user   domain.User
	titles domain.Collection
}

// InMemoryUserRepo keeps one document per user, like the persistent adapters.
type InMemoryUserRepo struct {
	users map[string]*userDocument
	mu    sync.RWMutex
}

func NewUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		users: make(map[string]*userDocument),
	}
}

func (r *InMemoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := doc.user
	return &u, nil
}

func (r *InMemoryUserRepo) GetByProviderID(ctx context.Context, providerID string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ProviderID == providerID })
}

func (r *InMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *InMemoryUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, doc := range r.users {
		if match(&doc.user) {
			u := doc.user
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	for _, doc := range r.users {
		if user.Email != "" && doc.user.Email == user.Email {
			return fmt.Errorf("email %s already registered", user.Email)
		}
		if user.ProviderID != "" && doc.user.ProviderID == user.ProviderID {
			return fmt.Errorf("provider id %s already registered", user.ProviderID)
		}
	}
	r.users[user.ID] = &userDocument{user: *user, titles: domain.Collection{}}
	return nil
}

func (r *InMemoryUserRepo) LinkProvider(ctx context.Context, userID, providerID, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	doc.user.ProviderID = providerID
	doc.user.AvatarURL = avatarURL
	return nil
}

func (r *InMemoryUserRepo) GetCollection(ctx context.Context, userID string) (domain.Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := make(domain.Collection, len(doc.titles))
	copy(out, doc.titles)
	return out, nil
}

func (r *InMemoryUserRepo) SaveCollection(ctx context.Context, userID string, titles domain.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	stored := make(domain.Collection, len(titles))
	copy(stored, titles)
	doc.titles = stored
	return nil
}
