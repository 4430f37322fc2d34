package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/core/claims"
	"github.com/learnforge/coursegen/core/user"
	"github.com/learnforge/coursegen/validate"
)

func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su user.UserSignup
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding signup: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := user.FetchByEmail(ctx, db, su.Email); err == nil {
			err := errors.New("a user with this email already exists")
			return weberr.NewError(err, err.Error(), http.StatusConflict)
		} else if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Name:         su.Name,
			Email:        su.Email,
			Role:         claims.RoleUser,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, u); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		if err := login(ctx, session, u.ID, u.Email, u.Role); err != nil {
			return fmt.Errorf("opening session: %w", err)
		}

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var lg user.UserLogin
		if err := web.Decode(w, r, &lg); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding login: %w", err))
		}

		if err := validate.Check(lg); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		u, err := user.FetchByEmail(ctx, db, lg.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("invalid credentials"))
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(lg.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("invalid credentials"))
		}

		if err := login(ctx, session, u.ID, u.Email, u.Role); err != nil {
			return fmt.Errorf("opening session: %w", err)
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
