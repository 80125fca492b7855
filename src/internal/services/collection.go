package services

import (
	"context"
	"errors"
	"log"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"

	"github.com/cinescope/cinescope/src/internal/domain"
	"github.com/cinescope/cinescope/src/internal/ports"
)

const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// SaveRequest is the body of a save or toggle call as the browser sends it:
// movieId and vote_average may arrive as numbers or numeric strings.
type SaveRequest struct {
	MovieID     any     `json:"movieId"`
	Title       string  `json:"title"`
	PosterPath  *string `json:"poster_path"`
	ReleaseDate *string `json:"release_date"`
	VoteAverage any     `json:"vote_average"`
	MediaType   string  `json:"media_type"`
}

type saveInput struct {
	MovieID   int    `json:"movieId" validate:"required,gt=0"`
	Title     string `json:"title" validate:"required"`
	MediaType string `json:"media_type" validate:"required,oneof=movie tv"`
}

type ToggleResult struct {
	Action string
	Title  *domain.SavedTitle
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NormalizeSave coerces a raw request into a SavedTitle (without SavedAt).
// Unparseable ratings become 0; a missing or unparseable movieId is reported
// as missing.
func NormalizeSave(req SaveRequest) (domain.SavedTitle, error) {
	movieID := parseMovieID(req.MovieID)
	rating, err := cast.ToFloat64E(req.VoteAverage)
	if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
		rating = 0
	}

	in := saveInput{
		MovieID:   movieID,
		Title:     strings.TrimSpace(req.Title),
		MediaType: strings.TrimSpace(req.MediaType),
	}
	if err := validate.Struct(in); err != nil {
		return domain.SavedTitle{}, toValidationError(err)
	}

	return domain.SavedTitle{
		MovieID:     in.MovieID,
		Title:       in.Title,
		PosterPath:  req.PosterPath,
		ReleaseDate: req.ReleaseDate,
		VoteAverage: rating,
		MediaType:   domain.MediaKind(in.MediaType),
	}, nil
}

// parseMovieID reads string ids as plain decimal, so "010" is 10 rather
// than an octal or hex literal.
func parseMovieID(v any) int {
	if str, ok := v.(string); ok {
		id, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return 0
		}
		return id
	}
	id, err := cast.ToIntE(v)
	if err != nil {
		return 0
	}
	return id
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			verr.Missing = append(verr.Missing, fe.Field())
		} else {
			verr.Invalid = append(verr.Invalid, fe.Field())
		}
	}
	return verr.OrNil()
}

// CollectionService manages the saved-title list embedded in each user
// document. Every mutation is a read-modify-write of the whole list.
type CollectionService struct {
	users ports.UserRepository
	now   func() time.Time
}

func NewCollectionService(users ports.UserRepository) *CollectionService {
	return &CollectionService{users: users, now: time.Now}
}

func (s *CollectionService) List(ctx context.Context, userID string) (domain.Collection, error) {
	titles, err := s.users.GetCollection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if titles == nil {
		titles = domain.Collection{}
	}
	return titles, nil
}

func (s *CollectionService) Add(ctx context.Context, userID string, req SaveRequest) (*domain.SavedTitle, error) {
	title, err := NormalizeSave(req)
	if err != nil {
		return nil, err
	}

	titles, err := s.users.GetCollection(ctx, userID)
	if err != nil {
		return nil, err
	}
	if titles.Contains(title.MovieID) {
		return nil, domain.ErrAlreadySaved
	}
	return s.add(ctx, userID, titles, title)
}

func (s *CollectionService) add(ctx context.Context, userID string, titles domain.Collection, title domain.SavedTitle) (*domain.SavedTitle, error) {
	title.SavedAt = s.now().UTC()
	updated := append(titles[:len(titles):len(titles)], title)
	if err := s.users.SaveCollection(ctx, userID, updated); err != nil {
		return nil, err
	}
	log.Printf("[Collection] User %s saved %s %d", userID, title.MediaType, title.MovieID)
	return &title, nil
}

func (s *CollectionService) Remove(ctx context.Context, userID string, movieID int) error {
	if movieID <= 0 {
		return &domain.ValidationError{Missing: []string{"movieId"}}
	}

	titles, err := s.users.GetCollection(ctx, userID)
	if err != nil {
		return err
	}
	if !titles.Contains(movieID) {
		return domain.ErrNotFound
	}
	return s.remove(ctx, userID, titles, movieID)
}

func (s *CollectionService) remove(ctx context.Context, userID string, titles domain.Collection, movieID int) error {
	if err := s.users.SaveCollection(ctx, userID, titles.Without(movieID)); err != nil {
		return err
	}
	log.Printf("[Collection] User %s removed %d", userID, movieID)
	return nil
}

// Toggle removes the title when it is saved and adds it otherwise, reporting
// which branch ran. The added title is returned so callers can append it
// without refetching.
func (s *CollectionService) Toggle(ctx context.Context, userID string, req SaveRequest) (*ToggleResult, error) {
	title, err := NormalizeSave(req)
	if err != nil {
		return nil, err
	}

	titles, err := s.users.GetCollection(ctx, userID)
	if err != nil {
		return nil, err
	}

	if titles.Contains(title.MovieID) {
		if err := s.remove(ctx, userID, titles, title.MovieID); err != nil {
			return nil, err
		}
		return &ToggleResult{Action: ActionRemoved}, nil
	}

	saved, err := s.add(ctx, userID, titles, title)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{Action: ActionAdded, Title: saved}, nil
}
