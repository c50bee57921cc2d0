package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brymcon/mindlink/internal/linker"
	"github.com/brymcon/mindlink/internal/storage"
)

type cannedGen struct{ reply string }

func (g cannedGen) Generate(context.Context, string) (string, error) { return g.reply, nil }

func vaultConfig(t *testing.T, notes map[string]string) *Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range notes {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := NewDefaultConfig()
	cfg.Vault.Path = dir
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestRun_WritesRelatedNotes(t *testing.T) {
	cfg := vaultConfig(t, map[string]string{
		"A.md": "---\ntags: [x, y]\n---\nAlpha\n",
		"B.md": "---\ntags: [x, y]\n---\nBravo\n",
	})
	cfg.DryRun = false

	sum, err := Run(context.Background(),
		WithConfig(cfg), WithGenerator(cannedGen{reply: "shared, common"}), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Updated != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Vault.Path, "A.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "- [[B]]") {
		t.Errorf("A.md missing link to B:\n%s", data)
	}
	if !strings.Contains(string(data), "shared") {
		t.Errorf("A.md missing suggested tag:\n%s", data)
	}
}

func TestRun_DryRunLeavesFiles(t *testing.T) {
	original := "---\ntags: [x, y]\n---\nAlpha\n"
	cfg := vaultConfig(t, map[string]string{
		"A.md": original,
		"B.md": "---\ntags: [x, y]\n---\nBravo\n",
	})

	sum, err := Run(context.Background(), WithConfig(cfg), WithGenerator(nil), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Planned != 2 || sum.Updated != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	data, _ := os.ReadFile(filepath.Join(cfg.Vault.Path, "A.md"))
	if string(data) != original {
		t.Errorf("dry run modified A.md:\n%s", data)
	}
}

func TestRun_MissingVault(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = filepath.Join(t.TempDir(), "missing")
	if _, err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected error for missing vault")
	}
}

func TestRun_NoConfig(t *testing.T) {
	if _, err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRun_GeminiWithoutKey(t *testing.T) {
	cfg := vaultConfig(t, map[string]string{"A.md": "Alpha\n"})
	_, err := Run(context.Background(), WithConfig(cfg), WithLogOutput(io.Discard))
	if err == nil || !strings.Contains(err.Error(), "init oracle") {
		t.Fatalf("err = %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	cfg := vaultConfig(t, map[string]string{"A.md": "Alpha\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, WithConfig(cfg), WithGenerator(nil), WithLogOutput(io.Discard))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestRouter_Health(t *testing.T) {
	cfg := vaultConfig(t, map[string]string{"A.md": "---\ntags: [x]\n---\nAlpha\n"})
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		t.Fatal(err)
	}
	holder := linker.NewHolder(store, cfg.Vault.Extensions, cfg.Linking.Options(), nil)
	srv := httptest.NewServer(newRouter(cfg, holder))
	defer srv.Close()

	get := func(path string) int {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := get("/health/live"); code != http.StatusOK {
		t.Errorf("live = %d", code)
	}
	if code := get("/health/ready"); code != http.StatusServiceUnavailable {
		t.Errorf("ready before load = %d", code)
	}
	if _, err := holder.Rebuild(); err != nil {
		t.Fatal(err)
	}
	if code := get("/health/ready"); code != http.StatusOK {
		t.Errorf("ready after load = %d", code)
	}
	if code := get("/api/notes"); code != http.StatusOK {
		t.Errorf("notes = %d", code)
	}
}
