package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cinescope/cinescope/src/internal/domain"
)

const DefaultBaseURL = "https://api.themoviedb.org/3"

// Categories accepted by List. TV lists use on_the_air/airing_today instead
// of the movie-only upcoming/now_playing.
var listCategories = map[domain.MediaKind]map[string]bool{
	domain.MediaKindMovie: {"popular": true, "top_rated": true, "upcoming": true, "now_playing": true},
	domain.MediaKindTV:    {"popular": true, "top_rated": true, "on_the_air": true, "airing_today": true},
}

type TMDBClient struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewTMDBClient(token, baseURL string) *TMDBClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &TMDBClient{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("TMDB returned %d for %s", e.StatusCode, e.Path)
}

// Responses
type listItem struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`          // Movies
	Name         string  `json:"name"`           // TV
	ReleaseDate  string  `json:"release_date"`   // Movies
	FirstAirDate string  `json:"first_air_date"` // TV
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	MediaType    string  `json:"media_type"`
	GenreIDs     []int   `json:"genre_ids"`
}

type pageResponse struct {
	Page         int        `json:"page"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Results      []listItem `json:"results"`
}

type detailsResponse struct {
	listItem
	Tagline        string         `json:"tagline"`
	Runtime        int            `json:"runtime"`
	EpisodeRunTime []int          `json:"episode_run_time"`
	Status         string         `json:"status"`
	Genres         []domain.Genre `json:"genres"`
}

type configurationResponse struct {
	Images domain.ImageConfig `json:"images"`
}

type genresResponse struct {
	Genres []domain.Genre `json:"genres"`
}

type videosResponse struct {
	Results []domain.Video `json:"results"`
}

func (c *TMDBClient) Configuration(ctx context.Context) (*domain.ImageConfig, error) {
	var res configurationResponse
	if err := c.get(ctx, "/configuration", nil, &res); err != nil {
		return nil, err
	}
	return &res.Images, nil
}

func (c *TMDBClient) Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: media kind %q", domain.ErrUnsupported, kind)
	}
	var res genresResponse
	if err := c.get(ctx, "/genre/"+string(kind)+"/list", nil, &res); err != nil {
		return nil, err
	}
	return res.Genres, nil
}

func (c *TMDBClient) SearchMulti(ctx context.Context, query string, page int) (*domain.CatalogPage, error) {
	q := url.Values{}
	q.Set("query", query)
	setPage(q, page)
	return c.page(ctx, "/search/multi", q, "")
}

func (c *TMDBClient) List(ctx context.Context, kind domain.MediaKind, category string, page int) (*domain.CatalogPage, error) {
	if !listCategories[kind][category] {
		return nil, fmt.Errorf("%w: %s list %q", domain.ErrUnsupported, kind, category)
	}
	q := url.Values{}
	setPage(q, page)
	return c.page(ctx, "/"+string(kind)+"/"+category, q, kind)
}

func (c *TMDBClient) Trending(ctx context.Context, kind, window string) (*domain.CatalogPage, error) {
	switch kind {
	case "all", "movie", "tv", "person":
	default:
		return nil, fmt.Errorf("%w: trending kind %q", domain.ErrUnsupported, kind)
	}
	if window != "day" && window != "week" {
		return nil, fmt.Errorf("%w: trending window %q", domain.ErrUnsupported, window)
	}
	return c.page(ctx, "/trending/"+kind+"/"+window, nil, "")
}

func (c *TMDBClient) Discover(ctx context.Context, kind domain.MediaKind, params url.Values) (*domain.CatalogPage, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: media kind %q", domain.ErrUnsupported, kind)
	}
	return c.page(ctx, "/discover/"+string(kind), params, kind)
}

func (c *TMDBClient) Details(ctx context.Context, kind domain.MediaKind, id int) (*domain.TitleDetails, error) {
	var d detailsResponse
	if err := c.get(ctx, titlePath(kind, id, ""), nil, &d); err != nil {
		return nil, err
	}

	runtime := d.Runtime
	if runtime == 0 && len(d.EpisodeRunTime) > 0 {
		runtime = d.EpisodeRunTime[0]
	}
	genres := d.Genres
	if genres == nil {
		genres = []domain.Genre{}
	}

	return &domain.TitleDetails{
		CatalogItem: toItem(d.listItem, kind),
		Tagline:     d.Tagline,
		Runtime:     runtime,
		Status:      d.Status,
		Genres:      genres,
	}, nil
}

func (c *TMDBClient) Videos(ctx context.Context, kind domain.MediaKind, id int) ([]domain.Video, error) {
	var res videosResponse
	if err := c.get(ctx, titlePath(kind, id, "/videos"), nil, &res); err != nil {
		return nil, err
	}
	if res.Results == nil {
		return []domain.Video{}, nil
	}
	return res.Results, nil
}

func (c *TMDBClient) Credits(ctx context.Context, kind domain.MediaKind, id int) (*domain.Credits, error) {
	var res domain.Credits
	if err := c.get(ctx, titlePath(kind, id, "/credits"), nil, &res); err != nil {
		return nil, err
	}
	if res.Cast == nil {
		res.Cast = []domain.CastMember{}
	}
	if res.Crew == nil {
		res.Crew = []domain.CrewMember{}
	}
	return &res, nil
}

func (c *TMDBClient) Similar(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	q := url.Values{}
	setPage(q, page)
	return c.page(ctx, titlePath(kind, id, "/similar"), q, kind)
}

func (c *TMDBClient) Recommendations(ctx context.Context, kind domain.MediaKind, id, page int) (*domain.CatalogPage, error) {
	q := url.Values{}
	setPage(q, page)
	return c.page(ctx, titlePath(kind, id, "/recommendations"), q, kind)
}

// page fetches a paginated listing. kind fills media_type for endpoints whose
// items don't carry one.
func (c *TMDBClient) page(ctx context.Context, path string, q url.Values, kind domain.MediaKind) (*domain.CatalogPage, error) {
	var res pageResponse
	if err := c.get(ctx, path, q, &res); err != nil {
		return nil, err
	}

	out := &domain.CatalogPage{
		Page:         res.Page,
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
		Results:      make([]domain.CatalogItem, 0, len(res.Results)),
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, toItem(r, kind))
	}
	return out, nil
}

func (c *TMDBClient) get(ctx context.Context, path string, q url.Values, dest any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func toItem(r listItem, kind domain.MediaKind) domain.CatalogItem {
	title := r.Title
	if title == "" {
		title = r.Name
	}
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	mediaType := domain.MediaKind(r.MediaType)
	if mediaType == "" {
		mediaType = kind
	}

	return domain.CatalogItem{
		ID:           r.ID,
		Title:        title,
		Overview:     r.Overview,
		PosterPath:   r.PosterPath,
		BackdropPath: r.BackdropPath,
		ReleaseDate:  date,
		VoteAverage:  r.VoteAverage,
		MediaType:    mediaType,
		GenreIDs:     r.GenreIDs,
	}
}

func titlePath(kind domain.MediaKind, id int, suffix string) string {
	return "/" + string(kind) + "/" + strconv.Itoa(id) + suffix
}

func setPage(q url.Values, page int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
}
