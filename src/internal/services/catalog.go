package services

import (
	"context"
	"net/url"

	"github.com/sourcegraph/conc/pool"

	"github.com/cinescope/cinescope/src/internal/domain"
	"github.com/cinescope/cinescope/src/internal/ports"
)

// CatalogService fronts the metadata provider for the browsing pages.
type CatalogService struct {
	provider ports.MetadataProvider
}

func NewCatalogService(provider ports.MetadataProvider) *CatalogService {
	return &CatalogService{provider: provider}
}

// Bootstrap loads what the front-end needs before rendering anything: image
// base URLs and the genre names for both media kinds.
func (s *CatalogService) Bootstrap(ctx context.Context) (*domain.Bootstrap, error) {
	var (
		images      *domain.ImageConfig
		movieGenres []domain.Genre
		tvGenres    []domain.Genre
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		images, err = s.provider.Configuration(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		movieGenres, err = s.provider.Genres(ctx, domain.MediaKindMovie)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		tvGenres, err = s.provider.Genres(ctx, domain.MediaKindTV)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	genres := make(map[int]domain.Genre, len(movieGenres)+len(tvGenres))
	for _, g := range tvGenres {
		genres[g.ID] = g
	}
	for _, g := range movieGenres {
		genres[g.ID] = g
	}

	base := images.SecureBaseURL + "original"
	return &domain.Bootstrap{
		Images: domain.ImageURLs{Backdrop: base, Poster: base, Profile: base},
		Genres: genres,
	}, nil
}

func (s *CatalogService) Search(ctx context.Context, query string, page int) (*domain.CatalogPage, error) {
	if query == "" {
		return &domain.CatalogPage{Page: 1, Results: []domain.CatalogItem{}}, nil
	}
	return s.provider.SearchMulti(ctx, query, page)
}

func (s *CatalogService) List(ctx context.Context, kind domain.MediaKind, category string, page int) (*domain.CatalogPage, error) {
	return s.provider.List(ctx, kind, category, page)
}

func (s *CatalogService) Trending(ctx context.Context, kind, window string) (*domain.CatalogPage, error) {
	return s.provider.Trending(ctx, kind, window)
}

func (s *CatalogService) Discover(ctx context.Context, kind domain.MediaKind, params url.Values) (*domain.CatalogPage, error) {
	return s.provider.Discover(ctx, kind, params)
}

func (s *CatalogService) Similar(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	return s.provider.Similar(ctx, kind, id, page)
}

func (s *CatalogService) Recommendations(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	return s.provider.Recommendations(ctx, kind, id, page)
}

// Details fetches the detail, video and credit listings for one title in
// parallel and picks the first YouTube trailer.
func (s *CatalogService) Details(ctx context.Context, kind domain.MediaKind, id int) (*domain.DetailsBundle, error) {
	var (
		details *domain.TitleDetails
		videos  []domain.Video
		credits *domain.Credits
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		details, err = s.provider.Details(ctx, kind, id)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		videos, err = s.provider.Videos(ctx, kind, id)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		credits, err = s.provider.Credits(ctx, kind, id)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	bundle := &domain.DetailsBundle{
		Details: *details,
		Videos:  videos,
		Credits: *credits,
	}
	if bundle.Videos == nil {
		bundle.Videos = []domain.Video{}
	}
	for i := range bundle.Videos {
		v := bundle.Videos[i]
		if v.Site == "YouTube" && v.Type == "Trailer" {
			bundle.Trailer = &v
			break
		}
	}
	return bundle, nil
}
