package http_api

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cinescope/cinescope/src/internal/domain"
)

var discoverParams = []string{
	"with_genres", "sort_by", "page", "year", "primary_release_year",
	"first_air_date_year", "with_original_language", "vote_average.gte",
}

func (s *Server) requireCatalog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Catalog == nil {
			s.respondError(w, http.StatusServiceUnavailable, "Metadata API is not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) respondCatalog(w http.ResponseWriter, r *http.Request, data any, err error) {
	if errors.Is(err, domain.ErrUnsupported) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("[Catalog] %s failed: %v", r.URL.Path, err)
		s.respondError(w, http.StatusBadGateway, "Failed to fetch from metadata API")
		return
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func kindParam(r *http.Request) (domain.MediaKind, bool) {
	kind := domain.MediaKind(chi.URLParam(r, "kind"))
	return kind, kind.Valid()
}

func pageParam(r *http.Request) int {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return page
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	b, err := s.Catalog.Bootstrap(r.Context())
	s.respondCatalog(w, r, b, err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := s.Catalog.Search(r.Context(), r.URL.Query().Get("query"), pageParam(r))
	s.respondCatalog(w, r, page, err)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	page, err := s.Catalog.Trending(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "window"))
	s.respondCatalog(w, r, page, err)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid media type")
		return
	}

	params := url.Values{}
	q := r.URL.Query()
	for _, key := range discoverParams {
		if v := q.Get(key); v != "" {
			params.Set(key, v)
		}
	}

	page, err := s.Catalog.Discover(r.Context(), kind, params)
	s.respondCatalog(w, r, page, err)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid media type")
		return
	}
	page, err := s.Catalog.List(r.Context(), kind, chi.URLParam(r, "category"), pageParam(r))
	s.respondCatalog(w, r, page, err)
}

// titleParams parses the {kind}/{id} pair shared by the per-title routes.
func (s *Server) titleParams(w http.ResponseWriter, r *http.Request) (domain.MediaKind, int, bool) {
	kind, ok := kindParam(r)
	if !ok {
		s.respondError(w, http.StatusBadRequest, "Invalid media type")
		return "", 0, false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "Invalid title ID")
		return "", 0, false
	}
	return kind, id, true
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := s.titleParams(w, r)
	if !ok {
		return
	}
	bundle, err := s.Catalog.Details(r.Context(), kind, id)
	s.respondCatalog(w, r, bundle, err)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := s.titleParams(w, r)
	if !ok {
		return
	}
	page, err := s.Catalog.Similar(r.Context(), kind, id, pageParam(r))
	s.respondCatalog(w, r, page, err)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := s.titleParams(w, r)
	if !ok {
		return
	}
	page, err := s.Catalog.Recommendations(r.Context(), kind, id, pageParam(r))
	s.respondCatalog(w, r, page, err)
}
