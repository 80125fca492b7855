package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cinescope/cinescope/src/internal/domain"
	"github.com/cinescope/cinescope/src/internal/ports"
)

type AccountService struct {
	users ports.UserRepository
	now   func() time.Time
}

func NewAccountService(users ports.UserRepository) *AccountService {
	return &AccountService{users: users, now: time.Now}
}

// ResolveIdentity maps a provider profile onto a user record. A known provider
// id wins; otherwise an account with the same email gets the provider id and
// the fresh avatar attached; otherwise a new user is created. The bool
// reports whether a user was created.
func (s *AccountService) ResolveIdentity(ctx context.Context, id domain.Identity) (*domain.User, bool, error) {
	if id.ProviderID == "" {
		return nil, false, errors.New("identity has no provider id")
	}

	user, err := s.users.GetByProviderID(ctx, id.ProviderID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("lookup by provider id: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email != "" {
		user, err = s.users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if err := s.users.LinkProvider(ctx, user.ID, id.ProviderID, id.AvatarURL); err != nil {
				return nil, false, fmt.Errorf("link provider: %w", err)
			}
			user.ProviderID = id.ProviderID
			user.AvatarURL = id.AvatarURL
			log.Printf("[Auth] Linked provider account to existing user %s", user.ID)
			return user, false, nil
		case !errors.Is(err, domain.ErrUserNotFound):
			return nil, false, fmt.Errorf("lookup by email: %w", err)
		}
	}

	now := s.now()
	user = &domain.User{
		ID:         uuid.NewString(),
		ProviderID: id.ProviderID,
		Email:      email,
		Name:       id.Name,
		AvatarURL:  id.AvatarURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	log.Printf("[Auth] Created user %s (%s)", user.ID, user.Email)
	return user, true, nil
}

func (s *AccountService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}
