package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"

	"github.com/learnforge/coursegen/ai"
	"github.com/learnforge/coursegen/api"
	"github.com/learnforge/coursegen/api/background"
	"github.com/learnforge/coursegen/config"
	"github.com/learnforge/coursegen/core/auth"
	"github.com/learnforge/coursegen/database"
	"github.com/learnforge/coursegen/rate"
	"github.com/learnforge/coursegen/youtube"
)

var pgHost string

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Printf("could not construct docker pool: %v\n", err)
		return 1
	}

	resource, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=postgres",
	})
	if err != nil {
		fmt.Printf("could not start postgres: %v\n", err)
		return 1
	}
	defer pool.Purge(resource)

	pgHost = net.JoinHostPort("localhost", resource.GetPort("5432/tcp"))

	admin, err := database.Open(config.DB{
		User: "postgres", Password: "postgres", Host: pgHost, Name: "postgres", DisableTLS: true,
	})
	if err != nil {
		fmt.Printf("could not open admin connection: %v\n", err)
		return 1
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := database.StatusCheck(ctx, admin); err != nil {
		fmt.Printf("postgres never became ready: %v\n", err)
		return 1
	}

	return m.Run()
}

// TestEnv is one isolated API instance: its own database, its own fake
// providers, one pre-registered user logged in through the real session
// cookie flow.
type TestEnv struct {
	DB      *sqlx.DB
	Server  *httptest.Server
	URL     string
	AI      *mockAI
	Videos  *mockVideos
	Uploads *fakeUploads

	UserEmail string
	UserPass  string

	client *http.Client
}

func NewTestEnv(t *testing.T, dbName string) (*TestEnv, error) {
	t.Helper()

	admin, err := database.Open(config.DB{
		User: "postgres", Password: "postgres", Host: pgHost, Name: "postgres", DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening admin connection: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + dbName); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", dbName, err)
	}

	db, err := database.Open(config.DB{
		User: "postgres", Password: "postgres", Host: pgHost, Name: dbName, DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening test connection: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mockai := newMockAI()
	t.Cleanup(mockai.srv.Close)

	videos := newMockVideos()
	t.Cleanup(videos.srv.Close)

	uploads := &fakeUploads{objects: map[string][]byte{}}

	session := scs.New()
	session.Lifetime = time.Hour

	mux := api.APIMux(api.APIConfig{
		Log:           logger,
		DB:            db,
		Session:       session,
		Background:    background.New(logger),
		AI:            ai.NewHTTPClient(ai.Config{URL: mockai.srv.URL, Key: "test-key"}),
		LayoutParams:  ai.ModelParams{Model: "test-model", MaxTokens: 3000},
		ContentParams: ai.ModelParams{Model: "test-model", MaxTokens: 6000},
		Videos:        youtube.NewClient(youtube.Config{URL: videos.srv.URL, Key: "test-key", MaxResults: 3}),
		Uploads:       uploads,
		Providers:     map[string]auth.Provider{},
		AILimiter:     rate.NewLimiter(1000, time.Millisecond, time.Hour),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	env := &TestEnv{
		DB:        db,
		Server:    srv,
		URL:       srv.URL,
		AI:        mockai,
		Videos:    videos,
		Uploads:   uploads,
		UserEmail: "user@test.io",
		UserPass:  "password8chars",
		client:    &http.Client{Jar: jar},
	}

	if err := env.Signup("Test User", env.UserEmail, env.UserPass); err != nil {
		return nil, err
	}
	if err := env.Logout(); err != nil {
		return nil, err
	}

	return env, nil
}

func (e *TestEnv) Client() *http.Client { return e.client }

func (e *TestEnv) Signup(name, email, pass string) error {
	body := map[string]string{"name": name, "email": email, "password": pass}
	w, err := e.postJSON("/auth/signup", body)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusCreated {
		return fmt.Errorf("signup failed: status %s", w.Status)
	}
	return nil
}

func (e *TestEnv) Login(email, pass string) error {
	body := map[string]string{"email": email, "password": pass}
	w, err := e.postJSON("/auth/login", body)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status %s", w.Status)
	}
	return nil
}

func (e *TestEnv) Logout() error {
	w, err := e.postJSON("/auth/logout", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout failed: status %s", w.Status)
	}
	return nil
}

func (e *TestEnv) postJSON(path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	r, err := http.NewRequest(http.MethodPost, e.URL+path, &buf)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")

	return e.client.Do(r)
}

// mockAI imitates a chat-completions provider. The outline text answers
// layout prompts; chapter prompts get the canned chapter body unless the
// chapter name is marked to fail.
type mockAI struct {
	mu sync.Mutex

	outline     string
	chapterBody string
	failChapter string
	failStatus  int

	srv *httptest.Server
}

func newMockAI() *mockAI {
	m := &mockAI{
		outline: `{"CourseName":"Test Course","Description":"d","Chapters":[
			{"ChapterName":"Alpha","About":"a","Duration":"10 min"},
			{"ChapterName":"Beta","About":"b","Duration":"20 min"}]}`,
		chapterBody: `{"title":"t","chapters":[{"title":"s","explanation":"e","codeExample":""}]}`,
	}
	m.srv = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *mockAI) FailChapter(name string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failChapter = name
	m.failStatus = status
}

func (m *mockAI) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	prompt := req.Messages[0].Content

	m.mu.Lock()
	defer m.mu.Unlock()

	text := m.outline
	if strings.Contains(prompt, "- Chapter:") {
		if m.failChapter != "" && strings.Contains(prompt, "- Chapter: "+m.failChapter) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(m.failStatus)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "mock provider failure"},
			})
			return
		}
		text = m.chapterBody
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": text}},
		},
	})
}

// mockVideos imitates the video search endpoint.
type mockVideos struct {
	mu   sync.Mutex
	ids  []string
	fail bool

	srv *httptest.Server
}

func newMockVideos() *mockVideos {
	m := &mockVideos{ids: []string{"vid-1", "vid-2", "vid-3"}}
	m.srv = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *mockVideos) Fail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *mockVideos) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		http.Error(w, "quota exceeded", http.StatusForbidden)
		return
	}

	items := make([]map[string]any, 0, len(m.ids))
	for _, id := range m.ids {
		items = append(items, map[string]any{"id": map[string]any{"videoId": id}})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"items": items})
}

// fakeUploads is an in-memory banner store.
type fakeUploads struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func (f *fakeUploads) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return "https://uploads.test/" + key, nil
}

func (f *fakeUploads) Delete(ctx context.Context, objectURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(objectURL, "https://uploads.test/")
	delete(f.objects, key)
	f.deleted = append(f.deleted, objectURL)
	return nil
}
