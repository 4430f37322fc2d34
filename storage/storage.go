// Package storage holds course banner images in a GCS bucket. Deletions
// are best-effort by contract: callers never let a failed delete block the
// course operation it hangs off.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Config selects the bucket and how object URLs are issued.
type Config struct {
	Bucket          string
	PublicBaseURL   string
	CredentialsFile string
}

type Uploads struct {
	cfg    Config
	client *gcs.Client
}

func New(ctx context.Context, cfg Config) (*Uploads, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Uploads{cfg: cfg, client: client}, nil
}

func (u *Uploads) Close() error { return u.client.Close() }

// Upload writes the object and returns its public URL.
func (u *Uploads) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	w := u.client.Bucket(u.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("writing object[%s]: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing object[%s]: %w", key, err)
	}

	return u.publicURL(key), nil
}

// Delete removes the object a previously issued URL points at. URLs that
// were not issued by this store are ignored.
func (u *Uploads) Delete(ctx context.Context, objectURL string) error {
	key, ok := u.keyFromURL(objectURL)
	if !ok {
		return nil
	}

	if err := u.client.Bucket(u.cfg.Bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("deleting object[%s]: %w", key, err)
	}
	return nil
}

func (u *Uploads) publicURL(key string) string {
	base := u.cfg.PublicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com/" + u.cfg.Bucket
	}
	return strings.TrimRight(base, "/") + "/" + key
}

func (u *Uploads) keyFromURL(objectURL string) (string, bool) {
	prefix := u.publicURL("")
	if !strings.HasPrefix(objectURL, prefix) {
		return "", false
	}

	key := strings.TrimPrefix(objectURL, prefix)
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}

	return key, key != ""
}
