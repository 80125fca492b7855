package client

import (
	"context"
	"errors"
	"sync"

	"github.com/cinescope/cinescope/src/internal/domain"
)

// Store holds the client-side auth and collection state. Mutations go to the
// server first; the local list only changes after the server confirms.
type Store struct {
	api *API

	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewStore(api *API) *Store {
	return &Store{
		api:   api,
		state: InitialState(),
		subs:  make(map[int]func(State)),
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	state := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers fn to run after every dispatch. The returned func
// removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Init checks the session and, when logged in, loads the saved list.
func (s *Store) Init(ctx context.Context) error {
	user, err := s.CheckAuth(ctx)
	if err != nil || user == nil {
		return err
	}
	return s.FetchSaved(ctx)
}

// CheckAuth resolves the current user. A 401 is a normal logged-out answer
// and yields a nil user without error.
func (s *Store) CheckAuth(ctx context.Context) (*User, error) {
	s.Dispatch(CheckAuthPending{})
	user, err := s.api.CurrentUser(ctx)
	if IsUnauthorized(err) {
		s.Dispatch(CheckAuthFulfilled{User: nil})
		return nil, nil
	}
	if err != nil {
		s.Dispatch(CheckAuthRejected{Err: message(err, "Failed to check authentication")})
		return nil, err
	}
	s.Dispatch(CheckAuthFulfilled{User: user})
	return user, nil
}

func (s *Store) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.Dispatch(LogoutRejected{Err: message(err, "Failed to logout")})
		return err
	}
	s.Dispatch(LogoutFulfilled{})
	s.Dispatch(ClearMovies{})
	return nil
}

func (s *Store) FetchSaved(ctx context.Context) error {
	s.Dispatch(FetchSavedPending{})
	titles, err := s.api.SavedMovies(ctx)
	if err != nil {
		s.Dispatch(FetchSavedRejected{Err: message(err, "Failed to fetch saved movies")})
		return err
	}
	s.Dispatch(FetchSavedFulfilled{Titles: titles})
	return nil
}

func (s *Store) Save(ctx context.Context, in MovieInput) error {
	s.Dispatch(SavePending{MovieID: in.MovieID})
	saved, err := s.api.SaveMovie(ctx, in)
	if err != nil {
		s.Dispatch(SaveRejected{MovieID: in.MovieID, Err: message(err, "Failed to save movie")})
		return err
	}
	s.Dispatch(SaveFulfilled{Title: *saved})
	return nil
}

func (s *Store) Remove(ctx context.Context, movieID int) error {
	s.Dispatch(RemovePending{MovieID: movieID})
	if err := s.api.RemoveMovie(ctx, movieID); err != nil {
		s.Dispatch(RemoveRejected{MovieID: movieID, Err: message(err, "Failed to remove movie")})
		return err
	}
	s.Dispatch(RemoveFulfilled{MovieID: movieID})
	return nil
}

// Toggle leaves the membership check to the server and applies whichever
// branch it reports.
func (s *Store) Toggle(ctx context.Context, in MovieInput) (string, error) {
	s.Dispatch(TogglePending{MovieID: in.MovieID})
	outcome, err := s.api.ToggleMovie(ctx, in)
	if err != nil {
		s.Dispatch(ToggleRejected{MovieID: in.MovieID, Err: message(err, "Failed to toggle movie")})
		return "", err
	}
	s.Dispatch(ToggleFulfilled{MovieID: in.MovieID, Action: outcome.Action, Title: outcome.Title})
	return outcome.Action, nil
}

func (s *Store) Clear() {
	s.Dispatch(ClearMovies{})
}

func (s *Store) ClearError() {
	s.Dispatch(ClearError{})
}

// IsSaved scans the cached list; collections are small personal lists.
func (s *Store) IsSaved(movieID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsTitle(s.state.Movies.SavedMovies, movieID)
}

func (s *Store) SavedMovies() []domain.SavedTitle {
	return s.State().Movies.SavedMovies
}

func message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
