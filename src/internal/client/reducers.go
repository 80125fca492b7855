package client

import "github.com/cinescope/cinescope/src/internal/domain"

type AuthState struct {
	User    *User
	Checked bool
	Loading bool
	Error   string
}

// MoviesState mirrors the server collection. SaveLoading marks titles with a
// mutation in flight.
type MoviesState struct {
	SavedMovies []domain.SavedTitle
	Loading     bool
	Error       string
	SaveLoading map[int]bool
}

type State struct {
	Auth   AuthState
	Movies MoviesState
}

func InitialState() State {
	return State{
		Movies: MoviesState{
			SavedMovies: []domain.SavedTitle{},
			SaveLoading: map[int]bool{},
		},
	}
}

type Action interface {
	isAction()
}

type (
	CheckAuthPending   struct{}
	CheckAuthFulfilled struct{ User *User }
	CheckAuthRejected  struct{ Err string }
	LogoutFulfilled    struct{}
	LogoutRejected     struct{ Err string }

	FetchSavedPending   struct{}
	FetchSavedFulfilled struct{ Titles []domain.SavedTitle }
	FetchSavedRejected  struct{ Err string }

	SavePending   struct{ MovieID int }
	SaveFulfilled struct{ Title domain.SavedTitle }
	SaveRejected  struct {
		MovieID int
		Err     string
	}

	RemovePending   struct{ MovieID int }
	RemoveFulfilled struct{ MovieID int }
	RemoveRejected  struct {
		MovieID int
		Err     string
	}

	TogglePending   struct{ MovieID int }
	ToggleFulfilled struct {
		MovieID int
		Action  string
		Title   *domain.SavedTitle
	}
	ToggleRejected struct {
		MovieID int
		Err     string
	}

	ClearMovies struct{}
	ClearError  struct{}
)

func (CheckAuthPending) isAction()    {}
func (CheckAuthFulfilled) isAction()  {}
func (CheckAuthRejected) isAction()   {}
func (LogoutFulfilled) isAction()     {}
func (LogoutRejected) isAction()      {}
func (FetchSavedPending) isAction()   {}
func (FetchSavedFulfilled) isAction() {}
func (FetchSavedRejected) isAction()  {}
func (SavePending) isAction()         {}
func (SaveFulfilled) isAction()       {}
func (SaveRejected) isAction()        {}
func (RemovePending) isAction()       {}
func (RemoveFulfilled) isAction()     {}
func (RemoveRejected) isAction()      {}
func (TogglePending) isAction()       {}
func (ToggleFulfilled) isAction()     {}
func (ToggleRejected) isAction()      {}
func (ClearMovies) isAction()         {}
func (ClearError) isAction()          {}

func ReduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case CheckAuthPending:
		s.Loading = true
		s.Error = ""
	case CheckAuthFulfilled:
		s.User = a.User
		s.Checked = true
		s.Loading = false
	case CheckAuthRejected:
		s.User = nil
		s.Checked = true
		s.Loading = false
		s.Error = a.Err
	case LogoutFulfilled:
		s.User = nil
		s.Error = ""
	case LogoutRejected:
		s.Error = a.Err
	}
	return s
}

// ReduceMovies never mutates the slice or map it is given, so states handed
// out earlier stay valid.
func ReduceMovies(s MoviesState, a Action) MoviesState {
	switch a := a.(type) {
	case FetchSavedPending:
		s.Loading = true
		s.Error = ""
	case FetchSavedFulfilled:
		s.SavedMovies = append([]domain.SavedTitle{}, a.Titles...)
		s.Loading = false
		s.Error = ""
	case FetchSavedRejected:
		s.Loading = false
		s.Error = a.Err

	case SavePending:
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, true)
	case SaveFulfilled:
		s.SavedMovies = appendTitle(s.SavedMovies, a.Title)
		s.SaveLoading = withFlag(s.SaveLoading, a.Title.MovieID, false)
		s.Error = ""
	case SaveRejected:
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, false)
		s.Error = a.Err

	case RemovePending:
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, true)
	case RemoveFulfilled:
		s.SavedMovies = withoutTitle(s.SavedMovies, a.MovieID)
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, false)
		s.Error = ""
	case RemoveRejected:
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, false)
		s.Error = a.Err

	case TogglePending:
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, true)
	case ToggleFulfilled:
		switch {
		case a.Action == "added" && a.Title != nil:
			s.SavedMovies = appendTitle(s.SavedMovies, *a.Title)
		case a.Action == "removed":
			s.SavedMovies = withoutTitle(s.SavedMovies, a.MovieID)
		}
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, false)
		s.Error = ""
	case ToggleRejected:
		s.SaveLoading = withFlag(s.SaveLoading, a.MovieID, false)
		s.Error = a.Err

	case ClearMovies:
		s.SavedMovies = []domain.SavedTitle{}
		s.SaveLoading = map[int]bool{}
		s.Error = ""
	case ClearError:
		s.Error = ""
	}
	return s
}

func Reduce(s State, a Action) State {
	return State{
		Auth:   ReduceAuth(s.Auth, a),
		Movies: ReduceMovies(s.Movies, a),
	}
}

func containsTitle(titles []domain.SavedTitle, movieID int) bool {
	for _, t := range titles {
		if t.MovieID == movieID {
			return true
		}
	}
	return false
}

func appendTitle(titles []domain.SavedTitle, t domain.SavedTitle) []domain.SavedTitle {
	if containsTitle(titles, t.MovieID) {
		return titles
	}
	out := make([]domain.SavedTitle, 0, len(titles)+1)
	out = append(out, titles...)
	return append(out, t)
}

func withoutTitle(titles []domain.SavedTitle, movieID int) []domain.SavedTitle {
	return domain.Collection(titles).Without(movieID)
}

func withFlag(flags map[int]bool, movieID int, on bool) map[int]bool {
	out := make(map[int]bool, len(flags)+1)
	for k, v := range flags {
		out[k] = v
	}
	if on {
		out[movieID] = true
	} else {
		delete(out, movieID)
	}
	return out
}
