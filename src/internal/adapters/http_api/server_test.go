package http_api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinescope/cinescope/src/internal/adapters/memory"
	"github.com/cinescope/cinescope/src/internal/config"
	"github.com/cinescope/cinescope/src/internal/domain"
	"github.com/cinescope/cinescope/src/internal/services"
)

type fakeProvider struct {
	identity *domain.Identity
	err      error
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.test/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (*domain.Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	id := *p.identity
	return &id, nil
}

type stubMetadata struct {
	err error
}

func (m *stubMetadata) Configuration(ctx context.Context) (*domain.ImageConfig, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ImageConfig{SecureBaseURL: "https://image.tmdb.org/t/p/"}, nil
}

func (m *stubMetadata) Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	return []domain.Genre{{ID: 18, Name: "Drama"}}, m.err
}

func (m *stubMetadata) SearchMulti(ctx context.Context, query string, page int) (*domain.CatalogPage, error) {
	return m.page(page)
}

func (m *stubMetadata) List(ctx context.Context, kind domain.MediaKind, category string, page int) (*domain.CatalogPage, error) {
	if category == "bogus" {
		return nil, domain.ErrUnsupported
	}
	return m.page(page)
}

func (m *stubMetadata) Trending(ctx context.Context, kind, window string) (*domain.CatalogPage, error) {
	return m.page(1)
}

func (m *stubMetadata) Discover(ctx context.Context, kind domain.MediaKind, params url.Values) (*domain.CatalogPage, error) {
	return m.page(1)
}

func (m *stubMetadata) Details(ctx context.Context, kind domain.MediaKind, id int) (*domain.TitleDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.TitleDetails{CatalogItem: domain.CatalogItem{ID: id, Title: "Fight Club"}}, nil
}

func (m *stubMetadata) Videos(ctx context.Context, kind domain.MediaKind, id int) ([]domain.Video, error) {
	return []domain.Video{{Key: "qtRKdVHc-cE", Site: "YouTube", Type: "Trailer"}}, m.err
}

func (m *stubMetadata) Credits(ctx context.Context, kind domain.MediaKind, id int) (*domain.Credits, error) {
	return &domain.Credits{}, m.err
}

func (m *stubMetadata) Similar(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	return m.page(page)
}

func (m *stubMetadata) Recommendations(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	return m.page(page)
}

func (m *stubMetadata) page(page int) (*domain.CatalogPage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.CatalogPage{Page: page, Results: []domain.CatalogItem{{ID: 550, Title: "Fight Club"}}}, nil
}

type failingSessions struct {
	*memory.InMemorySessionStore
	deleteErr error
}

func (s *failingSessions) Delete(ctx context.Context, token string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.InMemorySessionStore.Delete(ctx, token)
}

type failingUsers struct {
	*memory.InMemoryUserRepo
	collectionErr error
}

func (r *failingUsers) GetCollection(ctx context.Context, userID string) (domain.Collection, error) {
	if r.collectionErr != nil {
		return nil, r.collectionErr
	}
	return r.InMemoryUserRepo.GetCollection(ctx, userID)
}

type testEnv struct {
	t        *testing.T
	cfg      *config.ServerConfig
	handler  http.Handler
	users    *failingUsers
	sessions *failingSessions
	provider *fakeProvider
	metadata *stubMetadata
}

func newTestEnv(t *testing.T, tweak ...func(*config.ServerConfig)) *testEnv {
	t.Helper()
	cfg := config.DefaultServerConfig()
	cfg.RateLimit = config.RateLimit{PerMinute: 6000, Burst: 1000}
	for _, f := range tweak {
		f(&cfg)
	}

	env := &testEnv{
		t:        t,
		cfg:      &cfg,
		users:    &failingUsers{InMemoryUserRepo: memory.NewUserRepo()},
		sessions: &failingSessions{InMemorySessionStore: memory.NewSessionStore()},
		provider: &fakeProvider{identity: &domain.Identity{
			ProviderID: "google-123",
			Email:      "tyler@example.com",
			Name:       "Tyler",
			AvatarURL:  "https://avatar.test/t.png",
		}},
		metadata: &stubMetadata{},
	}

	srv := NewServer(env.cfg, Deps{
		Accounts:   services.NewAccountService(env.users),
		Sessions:   services.NewSessionService(env.sessions, time.Duration(cfg.Sessions.TTLHours)*time.Hour),
		Collection: services.NewCollectionService(env.users),
		Catalog:    services.NewCatalogService(env.metadata),
		Provider:   env.provider,
		State:      services.NewStateSigner([]byte("test-secret"), 10*time.Minute),
	})
	t.Cleanup(srv.Close)
	env.handler = srv.Router()
	return env
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// login runs the OAuth redirect and callback and returns the session cookie.
func (e *testEnv) login() *http.Cookie {
	e.t.Helper()
	start := e.do(http.MethodGet, "/auth/google", "")
	require.Equal(e.t, http.StatusFound, start.Code)

	stateCookie := findCookie(start, stateCookieName)
	require.NotNil(e.t, stateCookie)

	loc, err := url.Parse(start.Header().Get("Location"))
	require.NoError(e.t, err)
	state := loc.Query().Get("state")
	require.Equal(e.t, stateCookie.Value, state)

	cb := e.do(http.MethodGet, "/auth/google/callback?code=ok&state="+url.QueryEscape(state), "", stateCookie)
	require.Equal(e.t, http.StatusFound, cb.Code)
	require.Equal(e.t, e.cfg.ClientURL, cb.Header().Get("Location"))

	session := findCookie(cb, e.cfg.Sessions.CookieName)
	require.NotNil(e.t, session)
	return session
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "OK", body["status"])
	assert.Contains(t, body, "uptime")
	assert.Contains(t, body, "timestamp")
}

func TestTestRouteReportsAuthentication(t *testing.T) {
	env := newTestEnv(t)

	body := decode(t, env.do(http.MethodGet, "/api/test", ""))
	assert.Equal(t, false, body["authenticated"])
	assert.Equal(t, "development", body["environment"])

	session := env.login()
	body = decode(t, env.do(http.MethodGet, "/api/test", "", session))
	assert.Equal(t, true, body["authenticated"])
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, rec.Body.String())
}

func TestCORSForClientOrigin(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/movies/saved", nil)
	req.Header.Set("Origin", env.cfg.ClientURL)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, env.cfg.ClientURL, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.ServerConfig) {
		c.RateLimit = config.RateLimit{PerMinute: 1, Burst: 2}
	})

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/test", "").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/test", "").Code)
	rec := env.do(http.MethodGet, "/api/test", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", "").Code, "health checks are not limited")
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProductionRedactsServerErrors(t *testing.T) {
	for _, tc := range []struct {
		env  string
		want string
	}{
		{config.EnvDevelopment, "disk on fire"},
		{config.EnvProduction, "Something went wrong!"},
	} {
		t.Run(tc.env, func(t *testing.T) {
			env := newTestEnv(t, func(c *config.ServerConfig) {
				c.Env = tc.env
				c.Sessions.Secret = "s"
			})
			session := env.login()
			env.users.collectionErr = errors.New("disk on fire")

			rec := env.do(http.MethodGet, "/api/movies/saved", "", session)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tc.want, decode(t, rec)["message"])
		})
	}
}
