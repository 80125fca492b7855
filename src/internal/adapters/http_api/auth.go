package http_api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/cinescope/cinescope/src/internal/domain"
)

// Credential is the resolved session for a request. Handlers behind
// RequireSession read it from the context instead of the cookie.
type Credential struct {
	UserID string
	Token  string
}

type credentialKey struct{}

func WithCredential(ctx context.Context, cred Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

func CredentialFrom(ctx context.Context) (Credential, bool) {
	cred, ok := ctx.Value(credentialKey{}).(Credential)
	return cred, ok
}

func (s *Server) credential(r *http.Request) (Credential, error) {
	cookie, err := r.Cookie(s.cfg.Sessions.CookieName)
	if err != nil || cookie.Value == "" {
		return Credential{}, domain.ErrSessionNotFound
	}
	session, err := s.Sessions.Resolve(r.Context(), cookie.Value)
	if err != nil {
		return Credential{}, err
	}
	return Credential{UserID: session.UserID, Token: session.Token}, nil
}

func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred, err := s.credential(r)
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), cred)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.Provider == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Google OAuth is not configured")
		return
	}

	state, err := s.State.Issue()
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.Provider.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	fail := func(reason string, err error) {
		log.Printf("[Auth] Login failed: %s: %v", reason, err)
		http.Redirect(w, r, s.cfg.ClientURL+"?error=auth_failed", http.StatusFound)
	}

	if s.Provider == nil {
		fail("provider", errors.New("oauth not configured"))
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		fail("provider", errors.New(e))
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value != q.Get("state") {
		fail("state", domain.ErrInvalidState)
		return
	}
	s.clearCookie(w, stateCookieName, "/auth")
	if err := s.State.Verify(stateCookie.Value); err != nil {
		fail("state", err)
		return
	}

	identity, err := s.Provider.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		fail("exchange", err)
		return
	}

	user, created, err := s.Accounts.ResolveIdentity(r.Context(), *identity)
	if err != nil {
		fail("account", err)
		return
	}

	if old, err := r.Cookie(s.cfg.Sessions.CookieName); err == nil && old.Value != "" {
		if err := s.Sessions.Destroy(r.Context(), old.Value); err != nil {
			log.Printf("[Auth] Failed to drop previous session: %v", err)
		}
	}

	session, err := s.Sessions.Create(r.Context(), user.ID)
	if err != nil {
		fail("session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Sessions.CookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(s.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	log.Printf("[Auth] User %s logged in (new=%t)", user.ID, created)
	http.Redirect(w, r, s.cfg.ClientURL, http.StatusFound)
}

type userView struct {
	ID        string    `json:"id"`
	GoogleID  string    `json:"googleId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

type userResponse struct {
	Success bool     `json:"success"`
	User    userView `json:"user"`
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	cred, err := s.credential(r)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			log.Printf("[Auth] Session lookup failed: %v", err)
		}
		s.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := s.Accounts.GetUser(r.Context(), cred.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, userResponse{
		Success: true,
		User: userView{
			ID:        user.ID,
			GoogleID:  user.ProviderID,
			Email:     user.Email,
			Name:      user.Name,
			Avatar:    user.AvatarURL,
			CreatedAt: user.CreatedAt,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cred, _ := CredentialFrom(r.Context())

	if err := s.Sessions.Destroy(r.Context(), cred.Token); err != nil {
		log.Printf("[Auth] Failed to destroy session for user %s: %v", cred.UserID, err)
		s.respondError(w, http.StatusInternalServerError, "Error destroying session")
		return
	}

	s.clearCookie(w, s.cfg.Sessions.CookieName, "/")
	s.respondJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out successfully"})
}

func (s *Server) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
