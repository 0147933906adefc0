package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/shed/pkg/config"
	"github.com/matzehuels/shed/pkg/research"
	"github.com/matzehuels/shed/pkg/sandbox"
)

// isMetadata checks for registry metadata with the repository fallback.
func isMetadata(t *testing.T, b research.Backend) {
	t.Helper()
	r, ok := b.(*research.Repository)
	if !ok {
		t.Fatalf("got %T, want *research.Repository", b)
	}
	if _, ok := r.Inner.(*research.Registry); !ok {
		t.Errorf("repository wraps %T, want *research.Registry", r.Inner)
	}
}

func TestNewResearch(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		tavily  string
		openai  string
		check   func(t *testing.T, b research.Backend)
	}{
		{"registry", config.ResearchRegistry, "key", "", isMetadata},
		{"chain without key", config.ResearchChain, "", "", isMetadata},
		{"web", config.ResearchWeb, "key", "", func(t *testing.T, b research.Backend) {
			if _, ok := b.(*research.Web); !ok {
				t.Errorf("got %T, want *research.Web", b)
			}
		}},
		{"web with model", config.ResearchWeb, "key", "sk", func(t *testing.T, b research.Backend) {
			s, ok := b.(*research.Summarizer)
			if !ok {
				t.Fatalf("got %T, want *research.Summarizer", b)
			}
			if _, ok := s.Inner.(*research.Web); !ok {
				t.Errorf("summarizer wraps %T", s.Inner)
			}
		}},
		{"chain", config.ResearchChain, "key", "sk", func(t *testing.T, b research.Backend) {
			c, ok := b.(research.Chain)
			if !ok || len(c) != 2 {
				t.Fatalf("got %T %v, want two-element chain", b, b)
			}
			isMetadata(t, c[0])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Research.Backend = tt.backend
			cfg.Research.TavilyAPIKey = tt.tavily
			cfg.Research.OpenAIAPIKey = tt.openai
			tt.check(t, newResearch(cfg))
		})
	}
}

func TestNewProvider(t *testing.T) {
	cfg := config.Default()
	if p, ok := newProvider(cfg).(*sandbox.Docker); !ok || p.Image != config.DefaultImage {
		t.Errorf("default provider = %#v", newProvider(cfg))
	}
	cfg.Sandbox.Provider = config.SandboxLocal
	if _, ok := newProvider(cfg).(*sandbox.Local); !ok {
		t.Errorf("local provider = %T", newProvider(cfg))
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	repo := t.TempDir()
	if err := os.MkdirAll(filepath.Join(repo, ".shed"), 0o755); err != nil {
		t.Fatal(err)
	}
	toml := "app_name = \"billing\"\n[sandbox]\nprovider = \"docker\"\n[cache]\nbackend = \"sqlite\"\n"
	if err := os.WriteFile(filepath.Join(repo, ".shed", "config.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := (&runFlags{}).loadConfig(repo)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AppName != "billing" || cfg.Cache.Backend != config.CacheSQLite {
		t.Errorf("file settings not applied: %+v", cfg)
	}

	cfg, err = (&runFlags{sandbox: config.SandboxLocal, noCache: true}).loadConfig(repo)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sandbox.Provider != config.SandboxLocal || cfg.Cache.Backend != config.CacheNone {
		t.Errorf("flags not applied: sandbox=%s cache=%s", cfg.Sandbox.Provider, cfg.Cache.Backend)
	}

	if _, err := (&runFlags{sandbox: "vm"}).loadConfig(repo); err == nil {
		t.Error("invalid --sandbox accepted")
	}
}

func TestNewStack(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Cache.Backend = config.CacheMemory
	cfg.Sandbox.Provider = config.SandboxLocal
	cfg.Pipeline.ExtractParallel = 2
	cfg.License.RetryAttempts = 5

	s, err := New(io.Discard, LogInfo).newStack(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(ctx)

	if len(s.Runner.Sinks) != 1 || s.Runner.Sinks[0] != s.Report {
		t.Errorf("sinks = %v, want the report writer only", s.Runner.Sinks)
	}
	if s.Runner.Options.ExtractParallel != 2 {
		t.Errorf("ExtractParallel = %d", s.Runner.Options.ExtractParallel)
	}
	if ex, ok := s.Runner.Extractor.(*sandbox.Runner); !ok {
		t.Errorf("extractor = %T", s.Runner.Extractor)
	} else if _, ok := ex.Provider.(*sandbox.Local); !ok {
		t.Errorf("provider = %T", ex.Provider)
	}
}
