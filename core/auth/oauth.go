package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"

	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/core/claims"
	"github.com/learnforge/coursegen/core/user"
	"github.com/learnforge/coursegen/random"
	"github.com/learnforge/coursegen/validate"
)

const sessionOauthState = "oauth_state"

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// MakeProviders discovers the OIDC endpoints of each configured identity
// provider. Discovery happens once at startup; a provider that cannot be
// reached fails the boot rather than the first login.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))

	for _, cfg := range cfgs {
		p, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider[%s]: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			oauth: oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				RedirectURL:  cfg.RedirectURL,
				Endpoint:     p.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}

	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, provs map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := random.String(24)
		session.Put(ctx, sessionOauthState, state)

		http.Redirect(w, r, prov.oauth.AuthCodeURL(state), http.StatusFound)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, provs map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := provs[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := session.PopString(ctx, sessionOauthState)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		token, err := prov.oauth.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("oauth token is missing the id_token"))
		}

		idToken, err := prov.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id token: %w", err))
		}

		var profile struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&profile); err != nil {
			return fmt.Errorf("extracting token claims: %w", err)
		}
		if profile.Email == "" {
			return weberr.BadRequest(errors.New("identity provider returned no email"))
		}

		u, err := user.FetchByEmail(ctx, db, profile.Email)
		if errors.Is(err, user.ErrNotFound) {
			now := time.Now().UTC()
			u = user.User{
				ID:        validate.GenerateID(),
				Name:      profile.Name,
				Email:     profile.Email,
				Role:      claims.RoleUser,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := user.Create(ctx, db, u); err != nil {
				return fmt.Errorf("creating oauth user: %w", err)
			}
		} else if err != nil {
			return err
		}

		if err := login(ctx, session, u.ID, u.Email, u.Role); err != nil {
			return fmt.Errorf("opening session: %w", err)
		}

		http.Redirect(w, r, redirectURL, http.StatusFound)
		return nil
	}
}
