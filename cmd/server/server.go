package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/sirupsen/logrus"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/api"
	"github.com/learnforge/coursegen/api/background"
	"github.com/learnforge/coursegen/config"
	"github.com/learnforge/coursegen/core/auth"
	"github.com/learnforge/coursegen/database"
	"github.com/learnforge/coursegen/rate"
	"github.com/learnforge/coursegen/storage"
	"github.com/learnforge/coursegen/youtube"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "COURSEGEN"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate the db: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime

	bg := background.New(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Oauth.DiscoveryTimeout)
	defer cancel()
	google := cfg.Oauth.Google
	oauthProvs, err := auth.MakeProviders(ctx, []auth.ProviderConfig{
		{Name: "google", Client: google.Client, Secret: google.Secret, URL: google.URL, RedirectURL: google.RedirectURL},
	})
	if err != nil {
		return fmt.Errorf("failed to discover oauth providers: %w", err)
	}

	uploads, err := storage.New(context.Background(), storage.Config{
		Bucket:          cfg.Storage.Bucket,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		CredentialsFile: cfg.Storage.CredentialsFile,
	})
	if err != nil {
		return fmt.Errorf("failed to build the storage client: %w", err)
	}
	defer uploads.Close()

	aiClient := ai.NewHTTPClient(ai.Config{
		URL:     cfg.AI.URL,
		Key:     cfg.AI.Key,
		Referer: cfg.AI.Referer,
		Title:   cfg.AI.Title,
		Timeout: cfg.AI.Timeout,
	})

	videos := youtube.NewClient(youtube.Config{
		URL:        cfg.YouTube.URL,
		Key:        cfg.YouTube.Key,
		MaxResults: cfg.YouTube.MaxResults,
		Timeout:    cfg.YouTube.Timeout,
	})

	limiter := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.Interval, cfg.Rate.Expiry)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: cfg.Cors.Origin,
		Log:        logger,
		DB:         db,
		Session:    sessionManager,
		Background: bg,
		AI:         aiClient,
		LayoutParams: ai.ModelParams{
			Model:       cfg.AI.Layout.Name,
			Temperature: cfg.AI.Layout.Temperature,
			TopP:        cfg.AI.Layout.TopP,
			MaxTokens:   cfg.AI.Layout.MaxTokens,
		},
		ContentParams: ai.ModelParams{
			Model:       cfg.AI.Content.Name,
			Temperature: cfg.AI.Content.Temperature,
			TopP:        cfg.AI.Content.TopP,
			MaxTokens:   cfg.AI.Content.MaxTokens,
		},
		Videos:           videos,
		Uploads:          uploads,
		Providers:        oauthProvs,
		LoginRedirectURL: cfg.Oauth.LoginRedirectURL,
		AILimiter:        limiter,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}
