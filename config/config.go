package config

import "time"

// Config is the whole service configuration, parsed once at startup.
// Every provider credential lives here so a missing one is a constructible
// error instead of an environment lookup buried in a handler.
type Config struct {
	Web     Web
	DB      DB
	Cors    Cors
	Session Session
	Oauth   Oauth
	AI      AI
	YouTube YouTube
	Storage Storage
	Rate    Rate
}

type Web struct {
	Address     string        `conf:"default:0.0.0.0:3000"`
	ReadTimeout time.Duration `conf:"default:5s"`
	// Content generation runs inside a single request, one AI call per
	// chapter, so the write timeout has to cover a whole run.
	WriteTimeout    time.Duration `conf:"default:15m"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:coursegen"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:/"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string
}

// AI configures the chat-completions provider. Layout and Content use
// separate models and token budgets: outlines are small and structured,
// chapter content is long-form.
type AI struct {
	URL     string        `conf:"default:https://openrouter.ai/api/v1/chat/completions"`
	Key     string        `conf:"mask"`
	Referer string        `conf:"default:http://localhost:3000"`
	Title   string        `conf:"default:AI Course Generator"`
	Timeout time.Duration `conf:"default:120s"`
	Layout  LayoutModel
	Content ContentModel
}

type LayoutModel struct {
	Name        string  `conf:"default:google/gemini-2.0-flash-lite-001"`
	Temperature float64 `conf:"default:0.7"`
	TopP        float64 `conf:"default:0.9"`
	MaxTokens   int     `conf:"default:3000"`
}

type ContentModel struct {
	Name        string  `conf:"default:google/gemini-2.0-flash-lite-001"`
	Temperature float64 `conf:"default:0.7"`
	TopP        float64 `conf:"default:0.9"`
	MaxTokens   int     `conf:"default:6000"`
}

type YouTube struct {
	URL        string        `conf:"default:https://www.googleapis.com/youtube/v3/search"`
	Key        string        `conf:"mask"`
	MaxResults int           `conf:"default:3"`
	Timeout    time.Duration `conf:"default:15s"`
}

type Storage struct {
	Bucket          string
	PublicBaseURL   string
	CredentialsFile string
}

// Rate bounds how often a single client may hit the generation endpoints.
// Generation is the only metered upstream work the service does.
type Rate struct {
	Burst    int           `conf:"default:3"`
	Interval time.Duration `conf:"default:10s"`
	Expiry   time.Duration `conf:"default:30m"`
}
