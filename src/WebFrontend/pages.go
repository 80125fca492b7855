package main

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cinescope/cinescope/src/internal/client"
	"github.com/cinescope/cinescope/src/internal/domain"
)

type pageHandler struct {
	apiURL        string
	sessionCookie string
	tmpl          *template.Template
}

type card struct {
	ID          int
	Title       string
	Year        string
	PosterPath  string
	ReleaseDate string
	PosterURL   string
	Rating      float64
	MediaType   domain.MediaKind
	Saved       bool
}

// Link is the card's detail page.
func (c card) Link() string {
	return fmt.Sprintf("/%s/%d", c.MediaType, c.ID)
}

type detailsView struct {
	card
	Overview    string
	Tagline     string
	Status      string
	Runtime     string
	BackdropURL string
	Genres      []string
	Directors   []string
	Writers     []string
	Cast        []domain.CastMember
	TrailerKey  string
}

func (d *detailsView) Card() card { return d.card }

// toggleView is what a save/remove button needs to post back.
type toggleView struct {
	card
	Return string
}

type cardsView struct {
	Cards    []card
	LoggedIn bool
	Return   string
}

type sortOption struct {
	Value string
	Label string
}

var sortOptions = []sortOption{
	{"popularity.desc", "Popularity"},
	{"vote_average.desc", "Rating"},
	{"primary_release_date.desc", "Release date"},
	{"original_title.asc", "Title (A-Z)"},
}

type pageData struct {
	User       *client.User
	AuthFailed bool
	Error      string
	// Path is where toggle forms return to.
	Path string

	Heading  string
	Query    string
	Kind     domain.MediaKind
	Genres   []domain.Genre
	Genre    string
	SortBy   string
	Sorts    []sortOption
	PrevPage string
	NextPage string

	Trending        []card
	Saved           []card
	Results         []card
	Details         *detailsView
	Similar         []card
	Recommendations []card
}

func (p pageData) CardsOf(cards []card) cardsView {
	return cardsView{Cards: cards, LoggedIn: p.User != nil, Return: p.Path}
}

func (p pageData) ToggleFor(c card) toggleView {
	return toggleView{card: c, Return: p.Path}
}

func (v cardsView) ToggleFor(c card) toggleView {
	return toggleView{card: c, Return: v.Return}
}

var flashMessages = map[string]string{
	"toggle_failed": "Could not update your collection. Please try again.",
	"logout_failed": "Could not log you out. Please try again.",
}

func (h *pageHandler) register(mux *http.ServeMux) {
	mux.HandleFunc("/", h.home)
	mux.HandleFunc("GET /collection", h.collection)
	mux.HandleFunc("POST /collection/toggle", h.toggle)
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("GET /search", h.searchForm)
	mux.HandleFunc("GET /search/{query}", h.search)
	mux.HandleFunc("GET /explore/{kind}", h.explore)
	mux.HandleFunc("GET /movie/{id}", h.details(domain.MediaKindMovie))
	mux.HandleFunc("GET /tv/{id}", h.details(domain.MediaKindTV))
}

// newStore builds a client store that acts with the browser's session.
func (h *pageHandler) newStore(r *http.Request) (*client.API, *client.Store, error) {
	api, err := client.NewAPI(h.apiURL)
	if err != nil {
		return nil, nil, err
	}
	if c, err := r.Cookie(h.sessionCookie); err == nil && c.Value != "" {
		api.SetCookie(&http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return api, client.NewStore(api), nil
}

// storeFor is newStore plus the session check and saved-list load every page
// needs before rendering.
func (h *pageHandler) storeFor(r *http.Request) (*client.API, *client.Store, error) {
	api, store, err := h.newStore(r)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(r.Context()); err != nil {
		log.Printf("[Frontend] Failed to load session state: %v", err)
	}
	return api, store, nil
}

func (h *pageHandler) baseData(r *http.Request, store *client.Store) pageData {
	code := r.URL.Query().Get("error")
	return pageData{
		User:       store.State().Auth.User,
		AuthFailed: code == "auth_failed",
		Error:      flashMessages[code],
		Path:       r.URL.Path,
	}
}

func imageBase(r *http.Request, api *client.API) (*domain.Bootstrap, string) {
	b, err := api.Bootstrap(r.Context())
	if err != nil {
		log.Printf("[Frontend] Bootstrap unavailable: %v", err)
		return nil, ""
	}
	return b, b.Images.Poster
}

func (h *pageHandler) home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	api, store, err := h.storeFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := h.baseData(r, store)
	_, base := imageBase(r, api)

	trending, err := api.Trending(r.Context(), "all", "week")
	if err != nil {
		log.Printf("[Frontend] Trending unavailable: %v", err)
		data.Error = "Trending titles are unavailable right now."
	} else {
		data.Trending = catalogCards(trending.Results, base, "", store)
	}
	data.Saved = savedCards(store.SavedMovies(), base)

	h.render(w, "home", data)
}

func (h *pageHandler) collection(w http.ResponseWriter, r *http.Request) {
	api, store, err := h.storeFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	_, base := imageBase(r, api)

	state := store.State()
	data := h.baseData(r, store)
	if data.Error == "" {
		data.Error = state.Movies.Error
	}
	data.Saved = savedCards(state.Movies.SavedMovies, base)
	h.render(w, "collection", data)
}

func (h *pageHandler) searchForm(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/search/"+url.PathEscape(q), http.StatusSeeOther)
}

func (h *pageHandler) search(w http.ResponseWriter, r *http.Request) {
	api, store, err := h.storeFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	query := r.PathValue("query")
	page := pageNumber(r)

	data := h.baseData(r, store)
	data.Query = query
	data.Heading = fmt.Sprintf("Search results for %q", query)
	_, base := imageBase(r, api)

	results, err := api.Search(r.Context(), query, page)
	if err != nil {
		log.Printf("[Frontend] Search %q failed: %v", query, err)
		data.Error = "Search is unavailable right now."
	} else {
		data.Results = catalogCards(results.Results, base, "", store)
		data.PrevPage, data.NextPage = pageLinks(r, results)
	}
	h.render(w, "results", data)
}

func (h *pageHandler) explore(w http.ResponseWriter, r *http.Request) {
	kind := domain.MediaKind(r.PathValue("kind"))
	if !kind.Valid() {
		http.NotFound(w, r)
		return
	}

	api, store, err := h.storeFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	data := h.baseData(r, store)
	data.Kind = kind
	data.Heading = "Explore movies"
	if kind == domain.MediaKindTV {
		data.Heading = "Explore TV shows"
	}
	data.Genre = q.Get("with_genres")
	data.SortBy = q.Get("sort_by")
	data.Sorts = sortOptions

	boot, base := imageBase(r, api)
	if boot != nil {
		data.Genres = sortedGenres(boot.Genres)
	}

	params := url.Values{}
	for _, key := range []string{"with_genres", "sort_by", "page"} {
		if v := q.Get(key); v != "" {
			params.Set(key, v)
		}
	}
	results, err := api.Discover(r.Context(), kind, params)
	if err != nil {
		log.Printf("[Frontend] Discover %s failed: %v", kind, err)
		data.Error = "Titles are unavailable right now."
	} else {
		data.Results = catalogCards(results.Results, base, kind, store)
		data.PrevPage, data.NextPage = pageLinks(r, results)
	}
	h.render(w, "explore", data)
}

func (h *pageHandler) details(kind domain.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || id <= 0 {
			http.NotFound(w, r)
			return
		}

		api, store, err := h.storeFor(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := h.baseData(r, store)
		boot, base := imageBase(r, api)

		bundle, err := api.Details(r.Context(), kind, id)
		if err != nil {
			log.Printf("[Frontend] Details %s/%d failed: %v", kind, id, err)
			data.Error = "This title is unavailable right now."
			h.render(w, "details", data)
			return
		}
		backdropBase := ""
		if boot != nil {
			backdropBase = boot.Images.Backdrop
		}
		data.Details = newDetailsView(bundle, kind, base, backdropBase, store.IsSaved(id))
		data.Heading = data.Details.Title

		if similar, err := api.Similar(r.Context(), kind, id, 0); err == nil {
			data.Similar = catalogCards(similar.Results, base, kind, store)
		}
		if recs, err := api.Recommendations(r.Context(), kind, id, 0); err == nil {
			data.Recommendations = catalogCards(recs.Results, base, kind, store)
		}
		h.render(w, "details", data)
	}
}

// toggle saves or removes the posted title and sends the browser back to
// the page it came from.
func (h *pageHandler) toggle(w http.ResponseWriter, r *http.Request) {
	back := safeReturn(r.FormValue("return"))

	in, err := movieFromForm(r)
	if err != nil {
		http.Redirect(w, r, withError(back, "toggle_failed"), http.StatusSeeOther)
		return
	}

	_, store, err := h.newStore(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	action, err := store.Toggle(r.Context(), in)
	switch {
	case client.IsUnauthorized(err):
		http.Redirect(w, r, "/auth/google", http.StatusSeeOther)
		return
	case err != nil:
		log.Printf("[Frontend] Toggle %d failed: %v", in.MovieID, err)
		http.Redirect(w, r, withError(back, "toggle_failed"), http.StatusSeeOther)
		return
	}

	log.Printf("[Frontend] %s %s %d", action, in.MediaType, in.MovieID)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *pageHandler) logout(w http.ResponseWriter, r *http.Request) {
	_, store, err := h.newStore(r)
	if err == nil {
		err = store.Logout(r.Context())
	}
	if err != nil && !client.IsUnauthorized(err) {
		log.Printf("[Frontend] Logout failed: %v", err)
		http.Redirect(w, r, "/?error=logout_failed", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *pageHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error executing template: %v", err)
	}
}

func movieFromForm(r *http.Request) (client.MovieInput, error) {
	id, err := strconv.Atoi(r.FormValue("movieId"))
	if err != nil || id <= 0 {
		return client.MovieInput{}, fmt.Errorf("invalid movie id %q", r.FormValue("movieId"))
	}
	rating, _ := strconv.ParseFloat(r.FormValue("vote_average"), 64)

	in := client.MovieInput{
		MovieID:     id,
		Title:       r.FormValue("title"),
		VoteAverage: rating,
		MediaType:   domain.MediaKind(r.FormValue("media_type")),
	}
	if v := r.FormValue("poster_path"); v != "" {
		in.PosterPath = &v
	}
	if v := r.FormValue("release_date"); v != "" {
		in.ReleaseDate = &v
	}
	return in, nil
}

// safeReturn only allows same-site paths.
func safeReturn(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return "/"
	}
	return path
}

func withError(path, code string) string {
	u, err := url.Parse(path)
	if err != nil {
		return "/?error=" + code
	}
	q := u.Query()
	q.Set("error", code)
	u.RawQuery = q.Encode()
	return u.String()
}

func pageNumber(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func pageLinks(r *http.Request, page *domain.CatalogPage) (prev, next string) {
	link := func(n int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(n))
		return r.URL.Path + "?" + q.Encode()
	}
	if page.Page > 1 {
		prev = link(page.Page - 1)
	}
	if page.Page < page.TotalPages {
		next = link(page.Page + 1)
	}
	return prev, next
}

func sortedGenres(genres map[int]domain.Genre) []domain.Genre {
	out := make([]domain.Genre, 0, len(genres))
	for _, g := range genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type savedChecker interface {
	IsSaved(movieID int) bool
}

// catalogCards marks each item saved by scanning the cached collection.
// Items without a media type take fallback.
func catalogCards(items []domain.CatalogItem, imageBase string, fallback domain.MediaKind, saved savedChecker) []card {
	cards := make([]card, 0, len(items))
	for _, it := range items {
		kind := it.MediaType
		if kind == "" {
			kind = fallback
		}
		if !kind.Valid() {
			continue
		}
		cards = append(cards, card{
			ID:          it.ID,
			Title:       it.Title,
			Year:        year(it.ReleaseDate),
			PosterPath:  it.PosterPath,
			ReleaseDate: it.ReleaseDate,
			PosterURL:   posterURL(imageBase, it.PosterPath),
			Rating:      it.VoteAverage,
			MediaType:   kind,
			Saved:       saved.IsSaved(it.ID),
		})
	}
	return cards
}

func savedCards(titles []domain.SavedTitle, imageBase string) []card {
	cards := make([]card, 0, len(titles))
	for _, t := range titles {
		c := card{
			ID:        t.MovieID,
			Title:     t.Title,
			Rating:    t.VoteAverage,
			MediaType: t.MediaType,
			Saved:     true,
		}
		if t.ReleaseDate != nil {
			c.ReleaseDate = *t.ReleaseDate
			c.Year = year(*t.ReleaseDate)
		}
		if t.PosterPath != nil {
			c.PosterPath = *t.PosterPath
			c.PosterURL = posterURL(imageBase, *t.PosterPath)
		}
		cards = append(cards, c)
	}
	return cards
}

func newDetailsView(b *domain.DetailsBundle, kind domain.MediaKind, posterBase, backdropBase string, saved bool) *detailsView {
	d := b.Details
	v := &detailsView{
		card: card{
			ID:          d.ID,
			Title:       d.Title,
			Year:        year(d.ReleaseDate),
			PosterPath:  d.PosterPath,
			ReleaseDate: d.ReleaseDate,
			PosterURL:   posterURL(posterBase, d.PosterPath),
			Rating:      d.VoteAverage,
			MediaType:   kind,
			Saved:       saved,
		},
		Overview:    d.Overview,
		Tagline:     d.Tagline,
		Status:      d.Status,
		Runtime:     hoursAndMinutes(d.Runtime),
		BackdropURL: posterURL(backdropBase, d.BackdropPath),
	}
	for _, g := range d.Genres {
		v.Genres = append(v.Genres, g.Name)
	}
	for _, c := range b.Credits.Crew {
		switch c.Job {
		case "Director":
			v.Directors = append(v.Directors, c.Name)
		case "Screenplay", "Story", "Writer":
			v.Writers = append(v.Writers, c.Name)
		}
	}
	v.Cast = b.Credits.Cast
	if len(v.Cast) > 10 {
		v.Cast = v.Cast[:10]
	}
	if b.Trailer != nil {
		v.TrailerKey = b.Trailer.Key
	}
	return v
}

func hoursAndMinutes(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func year(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

func posterURL(base, path string) string {
	if base == "" || path == "" {
		return ""
	}
	return base + path
}
