package server

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/choneas/atelier/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Locale.MessagesDir = dir
	cfg.Locale.DefaultLocale = "en"
	return cfg
}

func TestNewServerRegistersRoutes(t *testing.T) {
	srv, err := NewServer(testConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	want := map[string]bool{
		"/health":                                false,
		"/api/v1/posts":                          false,
		"/api/v1/posts/:identifier":              false,
		"/api/v1/posts/:identifier/reading-time": false,
		"/api/v1/social/posts":                   false,
	}
	for _, route := range srv.Router.Routes() {
		if _, ok := want[route.Path]; ok {
			want[route.Path] = true
		}
	}
	for path, found := range want {
		if !found {
			t.Errorf("route %s not registered", path)
		}
	}
}

func TestNewServerMissingDefaultLocaleFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Locale.MessagesDir = t.TempDir()

	if _, err := NewServer(cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error when the default locale catalog is missing")
	}
}
