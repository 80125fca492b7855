package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cinescope/cinescope/src/internal/domain"
)

// API talks to the cinescope server. The session travels as a cookie held in
// the client's jar.
type API struct {
	baseURL *url.URL
	client  *http.Client
}

func NewAPI(baseURL string) (*API, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &API{
		baseURL: u,
		client:  &http.Client{Timeout: 10 * time.Second, Jar: jar},
	}, nil
}

// SetCookie places a cookie in the jar as if the server had set it, for
// callers forwarding a browser's session.
func (a *API) SetCookie(c *http.Cookie) {
	a.client.Jar.SetCookies(a.baseURL, []*http.Cookie{c})
}

// APIError is a non-2xx answer carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type User struct {
	ID        string    `json:"id"`
	GoogleID  string    `json:"googleId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// MovieInput is the payload for save and toggle.
type MovieInput struct {
	MovieID     int              `json:"movieId"`
	Title       string           `json:"title"`
	PosterPath  *string          `json:"poster_path"`
	ReleaseDate *string          `json:"release_date"`
	VoteAverage float64          `json:"vote_average"`
	MediaType   domain.MediaKind `json:"media_type"`
}

type ToggleOutcome struct {
	Action string             `json:"action"`
	Title  *domain.SavedTitle `json:"data"`
}

func (a *API) CurrentUser(ctx context.Context) (*User, error) {
	var res struct {
		User User `json:"user"`
	}
	if err := a.do(ctx, http.MethodGet, "/auth/user", nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (a *API) SavedMovies(ctx context.Context) ([]domain.SavedTitle, error) {
	var res struct {
		Data []domain.SavedTitle `json:"data"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/movies/saved", nil, &res); err != nil {
		return nil, err
	}
	if res.Data == nil {
		res.Data = []domain.SavedTitle{}
	}
	return res.Data, nil
}

func (a *API) SaveMovie(ctx context.Context, in MovieInput) (*domain.SavedTitle, error) {
	var res struct {
		Data domain.SavedTitle `json:"data"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/movies/save", in, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (a *API) RemoveMovie(ctx context.Context, movieID int) error {
	return a.do(ctx, http.MethodDelete, "/api/movies/"+strconv.Itoa(movieID), nil, nil)
}

func (a *API) ToggleMovie(ctx context.Context, in MovieInput) (*ToggleOutcome, error) {
	var res ToggleOutcome
	if err := a.do(ctx, http.MethodPost, "/api/movies/toggle", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Bootstrap(ctx context.Context) (*domain.Bootstrap, error) {
	var res struct {
		Data domain.Bootstrap `json:"data"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/meta/bootstrap", nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (a *API) Trending(ctx context.Context, kind, window string) (*domain.CatalogPage, error) {
	var res struct {
		Data domain.CatalogPage `json:"data"`
	}
	path := "/api/meta/trending/" + url.PathEscape(kind) + "/" + url.PathEscape(window)
	if err := a.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (a *API) Search(ctx context.Context, query string, page int) (*domain.CatalogPage, error) {
	return a.catalogPage(ctx, "/api/meta/search", pageQuery(url.Values{"query": {query}}, page))
}

func (a *API) Details(ctx context.Context, kind domain.MediaKind, id int) (*domain.DetailsBundle, error) {
	var res struct {
		Data domain.DetailsBundle `json:"data"`
	}
	if err := a.do(ctx, http.MethodGet, titlePath(kind, id, ""), nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func (a *API) Similar(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	return a.catalogPage(ctx, titlePath(kind, id, "/similar"), pageQuery(nil, page))
}

func (a *API) Recommendations(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	return a.catalogPage(ctx, titlePath(kind, id, "/recommendations"), pageQuery(nil, page))
}

// Discover passes params through; the server keeps only the filters it knows.
func (a *API) Discover(ctx context.Context, kind domain.MediaKind, params url.Values) (*domain.CatalogPage, error) {
	return a.catalogPage(ctx, "/api/meta/discover/"+url.PathEscape(string(kind)), params)
}

func (a *API) List(ctx context.Context, kind domain.MediaKind, category string, page int) (*domain.CatalogPage, error) {
	path := "/api/meta/" + url.PathEscape(string(kind)) + "/list/" + url.PathEscape(category)
	return a.catalogPage(ctx, path, pageQuery(nil, page))
}

func (a *API) catalogPage(ctx context.Context, path string, q url.Values) (*domain.CatalogPage, error) {
	var res struct {
		Data domain.CatalogPage `json:"data"`
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	if err := a.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

func titlePath(kind domain.MediaKind, id int, suffix string) string {
	return "/api/meta/" + url.PathEscape(string(kind)) + "/" + strconv.Itoa(id) + suffix
}

func pageQuery(q url.Values, page int) url.Values {
	if page <= 0 {
		return q
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("page", strconv.Itoa(page))
	return q
}

func (a *API) do(ctx context.Context, method, path string, body, dest any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL.String()+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Message == "" {
			failure.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: failure.Message}
	}

	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
