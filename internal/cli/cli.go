// Package cli implements the shed command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shed/pkg/archive"
	"github.com/matzehuels/shed/pkg/cache"
	"github.com/matzehuels/shed/pkg/config"
	"github.com/matzehuels/shed/pkg/deps/languages"
	"github.com/matzehuels/shed/pkg/license"
	"github.com/matzehuels/shed/pkg/pipeline"
	"github.com/matzehuels/shed/pkg/report"
	"github.com/matzehuels/shed/pkg/research"
	"github.com/matzehuels/shed/pkg/sandbox"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "shed"

	// redisPrefix namespaces shared license cache keys.
	redisPrefix = "shed:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// runFlags are the command-line overrides shared by run and serve.
type runFlags struct {
	configPath string
	sandbox    string
	noCache    bool
}

// loadConfig reads the configuration for repo and applies flag overrides.
func (f *runFlags) loadConfig(repo string) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, repo)
	if err != nil {
		return nil, err
	}
	if f.sandbox != "" {
		cfg.Sandbox.Provider = f.sandbox
	}
	if f.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	return cfg, cfg.Validate()
}

// stack is the set of collaborators behind one pipeline runner.
type stack struct {
	Runner   *pipeline.Runner
	Report   *report.Writer
	Archive  archive.Store
	licenses *license.Cache
}

// Close releases the license cache and the archive connection.
func (s *stack) Close(ctx context.Context) {
	if s.licenses != nil {
		s.licenses.Close()
	}
	if s.Archive != nil {
		s.Archive.Close(ctx)
	}
}

// newStack wires a runner from cfg: the sandbox provider, the license
// cache and research backends, and the report and archive sinks.
func (c *CLI) newStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	backend, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	licenses := license.NewCache(backend, cfg.Cache.TTL, c.Logger)

	resolver := license.New(newResearch(cfg), licenses, c.Logger)
	resolver.Concurrency = cfg.License.Concurrency
	resolver.RetryAttempts = cfg.License.RetryAttempts
	resolver.RetryBackoff = cfg.License.RetryBackoff

	extractor := sandbox.NewRunner(newProvider(cfg), c.Logger)
	extractor.Image = cfg.Sandbox.Image

	runner := pipeline.NewRunner(languages.Default, extractor, resolver, c.Logger)
	runner.Options = pipeline.Options{
		StageTimeout:    cfg.Pipeline.StageTimeout,
		RunTimeout:      cfg.Pipeline.RunTimeout,
		ExtractParallel: cfg.Pipeline.ExtractParallel,
		MinConfidence:   cfg.Pipeline.MinConfidence,
	}.WithDefaults()

	writer := report.NewWriter(cfg.Company.Name, cfg.Company.Email, c.Logger)
	runner.Sinks = []pipeline.Sink{writer}

	s := &stack{Runner: runner, Report: writer, Archive: archive.Null{}, licenses: licenses}
	if cfg.Archive.MongoURI != "" {
		store, err := archive.NewMongo(ctx, cfg.Archive.MongoURI, cfg.Archive.Database)
		if err != nil {
			s.Close(ctx)
			return nil, err
		}
		s.Archive = store
		runner.Sinks = append(runner.Sinks, store)
	}
	return s, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.Open(ctx, cache.Options{
		Backend:   cfg.Cache.Backend,
		Dir:       dir,
		RedisAddr: cfg.Cache.RedisAddr,
		Prefix:    redisPrefix,
	})
}

// newResearch builds the research backend. Registry metadata is always
// consulted; web search joins it when a search key is configured, and is
// condensed by a chat model when an OpenAI key is set as well.
func newResearch(cfg *config.Config) research.Backend {
	registry := research.NewRepository(research.NewRegistry(), cfg.Research.GitHubToken)
	if cfg.Research.Backend == config.ResearchRegistry || cfg.Research.TavilyAPIKey == "" {
		return registry
	}

	var web research.Backend = research.NewWeb(cfg.Research.TavilyAPIKey)
	if cfg.Research.OpenAIAPIKey != "" {
		web = research.NewSummarizer(web, cfg.Research.OpenAIAPIKey, cfg.Research.OpenAIBaseURL, cfg.Research.OpenAIModel)
	}
	if cfg.Research.Backend == config.ResearchWeb {
		return web
	}
	return research.Chain{registry, web}
}

func newProvider(cfg *config.Config) sandbox.Provider {
	if cfg.Sandbox.Provider == config.SandboxLocal {
		return &sandbox.Local{}
	}
	return &sandbox.Docker{Image: cfg.Sandbox.Image, Network: cfg.Sandbox.Network}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/shed/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// repoArg returns the repository argument, defaulting to the working
// directory.
func repoArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
