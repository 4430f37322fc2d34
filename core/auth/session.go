package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/core/claims"
)

const (
	sessionUserID = "user_id"
	sessionEmail  = "email"
	sessionRole   = "role"
)

// LoadAndSave adapts the scs session middleware to the web.Handler chain.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

// Identify puts the caller's claims into the context when a session
// exists. Anonymous callers pass through untouched: absence of identity
// is a valid outcome here, and only Authenticate turns it into a 401.
func Identify(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if userID := session.GetString(ctx, sessionUserID); userID != "" {
				clm := claims.Claims{
					UserID: userID,
					Email:  session.GetString(ctx, sessionEmail),
					Role:   session.GetString(ctx, sessionRole),
				}
				ctx = claims.Set(ctx, clm)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Authenticate rejects anonymous callers.
func Authenticate() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if _, err := claims.Get(ctx); err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin rejects callers without the admin role.
func Admin() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if !claims.IsAdmin(ctx) {
				return weberr.Forbidden(errors.New("user is not an admin"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func login(ctx context.Context, session *scs.SessionManager, userID, email, role string) error {
	if err := session.RenewToken(ctx); err != nil {
		return err
	}

	session.Put(ctx, sessionUserID, userID)
	session.Put(ctx, sessionEmail, email)
	session.Put(ctx, sessionRole, role)
	return nil
}
