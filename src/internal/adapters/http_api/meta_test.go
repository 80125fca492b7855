package http_api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/meta/bootstrap", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	images := data["images"].(map[string]any)
	assert.Equal(t, "https://image.tmdb.org/t/p/original", images["poster"])
	genres := data["genres"].(map[string]any)
	assert.Contains(t, genres, "18")
}

func TestMetaRoutes(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/meta/search?query=fight",
		"/api/meta/movie/list/popular",
		"/api/meta/trending/all/week",
		"/api/meta/discover/tv?with_genres=18",
		"/api/meta/movie/550",
		"/api/meta/movie/550/similar",
		"/api/meta/tv/1399/recommendations?page=2",
	} {
		rec := env.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, true, decode(t, rec)["success"], path)
	}
}

func TestDetailsBundleIncludesTrailer(t *testing.T) {
	env := newTestEnv(t)

	data := decode(t, env.do(http.MethodGet, "/api/meta/movie/550", ""))["data"].(map[string]any)
	trailer := data["trailer"].(map[string]any)
	assert.Equal(t, "qtRKdVHc-cE", trailer["key"])
	assert.Equal(t, "Fight Club", data["details"].(map[string]any)["title"])
}

func TestMetaBadInput(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/meta/book/550", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/meta/movie/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/meta/discover/book", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/meta/movie/list/bogus", "").Code)
}

func TestMetaUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.metadata.err = errors.New("TMDB returned 503")

	rec := env.do(http.MethodGet, "/api/meta/movie/550", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestMetaWithoutCatalog(t *testing.T) {
	env := newTestEnv(t)
	srv := NewServer(env.cfg, Deps{})
	t.Cleanup(srv.Close)

	rec := serve(srv.Router(), httptest.NewRequest(http.MethodGet, "/api/meta/bootstrap", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
