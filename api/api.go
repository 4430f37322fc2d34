package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/api/background"
	"github.com/learnforge/coursegen/api/middleware"
	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/core/auth"
	"github.com/learnforge/coursegen/core/chapter"
	"github.com/learnforge/coursegen/core/content"
	"github.com/learnforge/coursegen/core/course"
	"github.com/learnforge/coursegen/core/outline"
	"github.com/learnforge/coursegen/core/user"
	"github.com/learnforge/coursegen/rate"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Background       *background.Background
	AI               ai.Client
	LayoutParams     ai.ModelParams
	ContentParams    ai.ModelParams
	Videos           content.VideoSearcher
	Uploads          course.BannerStore
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	AILimiter        *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, auth.Identify(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate()

	// The AI-backed routes share one limiter so a single user cannot
	// drain the provider quota with either endpoint.
	aigate := middleware.RateLimit(cfg.AILimiter)

	outliner := outline.Generator{AI: cfg.AI, Params: cfg.LayoutParams}
	pipeline := content.Generator{
		Store:  content.DBStore{DB: cfg.DB},
		AI:     cfg.AI,
		Videos: cfg.Videos,
		Params: cfg.ContentParams,
		Log:    cfg.Log,
	}

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)

	a.Handle(http.MethodPost, "/courses/outline", outline.HandleGenerate(outliner), authen, aigate)

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{course_id}", course.HandleShow(cfg.DB))
	a.Handle(http.MethodPut, "/courses/{course_id}", course.HandleUpdate(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/courses/{course_id}", course.HandleDelete(cfg.DB, cfg.Uploads, cfg.Background), authen)
	a.Handle(http.MethodPut, "/courses/{course_id}/publish", course.HandlePublish(cfg.DB), authen)
	a.Handle(http.MethodPost, "/courses/{course_id}/banner", course.HandleBanner(cfg.DB, cfg.Uploads, cfg.Background), authen)

	a.Handle(http.MethodGet, "/courses/{course_id}/chapters", chapter.HandleListByCourse(cfg.DB))
	a.Handle(http.MethodPost, "/courses/{course_id}/content", content.HandleGenerate(cfg.DB, pipeline), authen, aigate)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
