package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/learnforge/coursegen/api/web"
	"github.com/learnforge/coursegen/api/weberr"
	"github.com/learnforge/coursegen/rate"
)

// RateLimit rejects requests from clients that exhausted their bucket.
// Clients are keyed by remote IP.
func RateLimit(limiter *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}

			if !limiter.Allow(key) {
				err := errors.New("generation rate limit exceeded")
				return weberr.NewError(err, "too many requests, slow down", http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
