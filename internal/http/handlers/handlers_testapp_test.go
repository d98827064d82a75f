package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/anismama/backend/internal/catalogue"
	"github.com/anismama/backend/internal/config"
	"github.com/anismama/backend/internal/database"
	apihttp "github.com/anismama/backend/internal/http"
	"github.com/anismama/backend/internal/providers"
	"github.com/gofiber/fiber/v2"
)

type stubProvider struct {
	entries []providers.CatalogueEntry
	manga   *providers.Manga
	err     error
}

func (s *stubProvider) Key() string  { return "stub" }
func (s *stubProvider) Name() string { return "Stub Source" }

func (s *stubProvider) ListCatalogue(context.Context) ([]providers.CatalogueEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func (s *stubProvider) GetManga(context.Context, string, providers.GetOptions) (*providers.Manga, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.manga != nil {
		return s.manga, nil
	}
	return &providers.Manga{}, nil
}

func (s *stubProvider) PageImageURL(id string, chapter int, page int) string {
	return fmt.Sprintf("https://stub.example/s2/scans/%s/%d/%d.jpg", id, chapter, page)
}

func (s *stubProvider) Search(ctx context.Context, query string) ([]providers.CatalogueEntry, error) {
	return s.ListCatalogue(ctx)
}

func defaultStubEntries() []providers.CatalogueEntry {
	return []providers.CatalogueEntry{
		{ID: "one-piece", Title: "One Piece", Tags: []string{"Action", "Aventure"}},
		{ID: "berserk", Title: "Berserk", Tags: []string{"Action", "Drame"}},
		{ID: "cafe-story", Title: "Cafe Story", AliasText: "Kissaten", Tags: []string{"Romance"}},
	}
}

func setupTestApp(t *testing.T, provider providers.Provider) (*sql.DB, *fiber.App) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(currentFile), "..", "..", "..", "migrations")
	if err := database.ApplyMigrations(db, migrationsPath); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if provider == nil {
		provider = &stubProvider{entries: defaultStubEntries()}
	}
	registry, err := providers.NewBuilder().Register(provider).Build()
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	catalogueService := catalogue.NewService(registry.Default(), time.Hour)

	cfg := config.Config{AppName: "test-app", JWTSecret: "test-secret", JWTTTLHours: 1}
	app := apihttp.NewServer(cfg, db, registry, catalogueService)
	t.Cleanup(func() { _ = app.Shutdown() })

	return db, app
}

func doJSON(t *testing.T, app *fiber.App, method string, target string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}

	decoded := map[string]any{}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response body %q: %v", raw, err)
		}
	}
	return res, decoded
}

func signupUser(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	res, body := doJSON(t, app, http.MethodPost, "/v1/auth/signup", map[string]string{
		"username": username,
		"password": "correct-horse-battery",
	}, "")
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%v)", res.StatusCode, body)
	}

	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("signup: missing token in response")
	}
	return token
}
