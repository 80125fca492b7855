package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/src/internal/domain"
)

// catalogServer answers every request with a one-item page and records the
// request URIs it saw.
func catalogServer(t *testing.T) (*API, *[]string) {
	t.Helper()
	var seen []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/meta/movie/550" {
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"data": domain.DetailsBundle{
					Details: domain.TitleDetails{CatalogItem: domain.CatalogItem{ID: 550, Title: "Fight Club"}},
					Trailer: &domain.Video{Key: "qtRKdVHc-cE", Site: "YouTube", Type: "Trailer"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    domain.CatalogPage{Page: 1, Results: []domain.CatalogItem{{ID: 550, Title: "Fight Club"}}},
		})
	}))
	t.Cleanup(ts.Close)

	api, err := NewAPI(ts.URL)
	require.NoError(t, err)
	return api, &seen
}

func TestCatalogRequests(t *testing.T) {
	api, seen := catalogServer(t)
	ctx := context.Background()

	bundle, err := api.Details(ctx, domain.MediaKindMovie, 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", bundle.Details.Title)
	require.NotNil(t, bundle.Trailer)
	assert.Equal(t, "qtRKdVHc-cE", bundle.Trailer.Key)

	page, err := api.Search(ctx, "fight club", 2)
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)

	_, err = api.Similar(ctx, domain.MediaKindTV, 1399, 0)
	require.NoError(t, err)
	_, err = api.Recommendations(ctx, domain.MediaKindMovie, 550, 3)
	require.NoError(t, err)
	_, err = api.Discover(ctx, domain.MediaKindTV, url.Values{"with_genres": {"18"}})
	require.NoError(t, err)
	_, err = api.List(ctx, domain.MediaKindMovie, "top_rated", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/meta/movie/550",
		"/api/meta/search?page=2&query=fight+club",
		"/api/meta/tv/1399/similar",
		"/api/meta/movie/550/recommendations?page=3",
		"/api/meta/discover/tv?with_genres=18",
		"/api/meta/movie/list/top_rated",
	}, *seen)
}
