package ports

import (
	"context"
	"net/url"
	"time"

	"github.com/cinescope/cinescope/src/internal/domain"
)

// UserRepository stores one document per user: the profile plus the embedded,
// ordered saved-title array. Collection writes replace the whole array.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	LinkProvider(ctx context.Context, userID, providerID, avatarURL string) error

	GetCollection(ctx context.Context, userID string) (domain.Collection, error)
	SaveCollection(ctx context.Context, userID string, titles domain.Collection) error
}

type SessionStore interface {
	Put(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
}

type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.Identity, error)
}

type MetadataProvider interface {
	Configuration(ctx context.Context) (*domain.ImageConfig, error)
	Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error)
	SearchMulti(ctx context.Context, query string, page int) (*domain.CatalogPage, error)
	List(ctx context.Context, kind domain.MediaKind, category string, page int) (*domain.CatalogPage, error)
	Trending(ctx context.Context, kind, window string) (*domain.CatalogPage, error)
	Discover(ctx context.Context, kind domain.MediaKind, params url.Values) (*domain.CatalogPage, error)
	Details(ctx context.Context, kind domain.MediaKind, id int) (*domain.TitleDetails, error)
	Videos(ctx context.Context, kind domain.MediaKind, id int) ([]domain.Video, error)
	Credits(ctx context.Context, kind domain.MediaKind, id int) (*domain.Credits, error)
	Similar(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error)
	Recommendations(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error)
}
