package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/cinescope/cinescope/src/internal/config"
	"github.com/cinescope/cinescope/src/internal/domain"
)

// Provider runs the authorization-code flow against an OpenID Connect issuer
// (Google by default) and turns the verified ID token into a domain.Identity.
type Provider struct {
	provider *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
	config   oauth2.Config
}

func NewProvider(ctx context.Context, cfg config.OIDCConfig) (*Provider, error) {
	provider, err := gooidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("query OIDC provider %s: %w", cfg.ProviderURL, err)
	}

	conf := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
	}

	return &Provider{
		provider: provider,
		verifier: provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		config:   conf,
	}, nil
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

type claims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (p *Provider) Exchange(ctx context.Context, code string) (*domain.Identity, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	var c claims
	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		idToken, err := p.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("verify id token: %w", err)
		}
		if err := idToken.Claims(&c); err != nil {
			return nil, fmt.Errorf("decode id token claims: %w", err)
		}
	}

	// Some issuers leave profile fields out of the ID token.
	if c.Email == "" || c.Name == "" {
		info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
		if err != nil {
			return nil, fmt.Errorf("fetch userinfo: %w", err)
		}
		var extra claims
		if err := info.Claims(&extra); err != nil {
			return nil, fmt.Errorf("decode userinfo: %w", err)
		}
		c = mergeClaims(c, extra)
	}

	return identityFromClaims(c)
}

func mergeClaims(primary, fallback claims) claims {
	if primary.Sub == "" {
		primary.Sub = fallback.Sub
	}
	if primary.Email == "" {
		primary.Email = fallback.Email
	}
	if primary.Name == "" {
		primary.Name = fallback.Name
	}
	if primary.Picture == "" {
		primary.Picture = fallback.Picture
	}
	return primary
}

func identityFromClaims(c claims) (*domain.Identity, error) {
	if c.Sub == "" {
		return nil, errors.New("identity has no subject")
	}
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return nil, errors.New("identity has no email")
	}
	name := c.Name
	if name == "" {
		name = email
	}
	return &domain.Identity{
		ProviderID: c.Sub,
		Email:      email,
		Name:       name,
		AvatarURL:  c.Picture,
	}, nil
}
