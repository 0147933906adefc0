// Package config loads shed settings.
//
// Settings come from, in increasing precedence: built-in defaults, a config
// file (TOML or YAML, chosen by extension) and environment variables.
//
//	cfg, err := config.Load(flagPath, repo)
//	if err != nil {
//	    return err
//	}
//	runner.Options.StageTimeout = cfg.Pipeline.StageTimeout
//
// When no path is given the first existing file of
// <repo>/.shed/config.toml, <repo>/.shed/config.yaml and
// $XDG_CONFIG_HOME/shed/config.toml is used.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/shed/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultStageTimeout       = 10 * time.Minute
	DefaultRunTimeout         = 30 * time.Minute
	DefaultExtractParallel    = 4
	DefaultMinConfidence      = 0.15
	DefaultLicenseConcurrency = 8
	DefaultRetryAttempts      = 3
	DefaultRetryBackoff       = time.Second
	DefaultCacheTTL           = 30 * 24 * time.Hour
	DefaultImage              = "shed-runtime:latest"
	DefaultServerAddr         = "127.0.0.1:8080"
	DefaultArchiveDatabase    = "shed"
)

// Sandbox providers.
const (
	SandboxDocker = "docker"
	SandboxLocal  = "local"
)

// Research backends.
const (
	ResearchRegistry = "registry"
	ResearchWeb      = "web"
	ResearchChain    = "chain"
)

// Cache backends, matching pkg/cache.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// =============================================================================
// Config
// =============================================================================

// Config holds every shed setting.
type Config struct {
	AppName  string   `toml:"app_name" yaml:"app_name"`
	Company  Company  `toml:"company" yaml:"company"`
	Pipeline Pipeline `toml:"pipeline" yaml:"pipeline"`
	Sandbox  Sandbox  `toml:"sandbox" yaml:"sandbox"`
	License  License  `toml:"license" yaml:"license"`
	Research Research `toml:"research" yaml:"research"`
	Cache    Cache    `toml:"cache" yaml:"cache"`
	Archive  Archive  `toml:"archive" yaml:"archive"`
	Server   Server   `toml:"server" yaml:"server"`
}

// Company is document metadata for the declaration.
type Company struct {
	Name  string `toml:"name" yaml:"name"`
	Email string `toml:"email" yaml:"email"`
}

// Pipeline bounds the run.
type Pipeline struct {
	StageTimeout    time.Duration `toml:"stage_timeout" yaml:"stage_timeout"`
	RunTimeout      time.Duration `toml:"run_timeout" yaml:"run_timeout"`
	ExtractParallel int           `toml:"extract_parallel" yaml:"extract_parallel"`
	MinConfidence   float64       `toml:"min_confidence" yaml:"min_confidence"`
}

// Sandbox selects where extractors run.
type Sandbox struct {
	Provider string `toml:"provider" yaml:"provider"`
	Image    string `toml:"image" yaml:"image"`
	Network  string `toml:"network" yaml:"network"`
}

// License tunes license resolution.
type License struct {
	Concurrency   int           `toml:"concurrency" yaml:"concurrency"`
	RetryAttempts int           `toml:"retry_attempts" yaml:"retry_attempts"`
	RetryBackoff  time.Duration `toml:"retry_backoff" yaml:"retry_backoff"`
}

// Research selects and configures research backends.
type Research struct {
	Backend       string `toml:"backend" yaml:"backend"`
	TavilyAPIKey  string `toml:"tavily_api_key" yaml:"tavily_api_key"`
	OpenAIAPIKey  string `toml:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url" yaml:"openai_base_url"`
	OpenAIModel   string `toml:"openai_model" yaml:"openai_model"`
	GitHubToken   string `toml:"github_token" yaml:"github_token"`
}

// Cache selects the license cache backend.
type Cache struct {
	Backend   string        `toml:"backend" yaml:"backend"`
	Dir       string        `toml:"dir" yaml:"dir"`
	RedisAddr string        `toml:"redis_addr" yaml:"redis_addr"`
	TTL       time.Duration `toml:"ttl" yaml:"ttl"`
}

// Archive configures the optional run archive.
type Archive struct {
	MongoURI string `toml:"mongo_uri" yaml:"mongo_uri"`
	Database string `toml:"database" yaml:"database"`
}

// Server configures `shed serve`.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.WithDefaults()
	return c
}

// WithDefaults fills zero values and returns c.
func (c *Config) WithDefaults() *Config {
	p := &c.Pipeline
	if p.StageTimeout == 0 {
		p.StageTimeout = DefaultStageTimeout
	}
	if p.RunTimeout == 0 {
		p.RunTimeout = DefaultRunTimeout
	}
	if p.ExtractParallel == 0 {
		p.ExtractParallel = DefaultExtractParallel
	}
	if p.MinConfidence == 0 {
		p.MinConfidence = DefaultMinConfidence
	}
	if c.Sandbox.Provider == "" {
		c.Sandbox.Provider = SandboxDocker
	}
	if c.Sandbox.Image == "" {
		c.Sandbox.Image = DefaultImage
	}
	l := &c.License
	if l.Concurrency == 0 {
		l.Concurrency = DefaultLicenseConcurrency
	}
	if l.RetryAttempts == 0 {
		l.RetryAttempts = DefaultRetryAttempts
	}
	if l.RetryBackoff == 0 {
		l.RetryBackoff = DefaultRetryBackoff
	}
	if c.Research.Backend == "" {
		c.Research.Backend = ResearchRegistry
		if c.Research.TavilyAPIKey != "" {
			c.Research.Backend = ResearchChain
		}
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Archive.Database == "" {
		c.Archive.Database = DefaultArchiveDatabase
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	return c
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Pipeline.StageTimeout < 0 || c.Pipeline.RunTimeout < 0:
		return invalid("timeouts must not be negative")
	case c.Pipeline.ExtractParallel < 1:
		return invalid("pipeline.extract_parallel must be at least 1")
	case c.Pipeline.MinConfidence < 0 || c.Pipeline.MinConfidence > 1:
		return invalid("pipeline.min_confidence must be within [0, 1]")
	case c.License.Concurrency < 1:
		return invalid("license.concurrency must be at least 1")
	case c.License.RetryAttempts < 1:
		return invalid("license.retry_attempts must be at least 1")
	case c.License.RetryBackoff < 0:
		return invalid("license.retry_backoff must not be negative")
	}
	if !oneOf(c.Sandbox.Provider, SandboxDocker, SandboxLocal) {
		return invalid("sandbox.provider %q must be docker or local", c.Sandbox.Provider)
	}
	if !oneOf(c.Research.Backend, ResearchRegistry, ResearchWeb, ResearchChain) {
		return invalid("research.backend %q must be registry, web or chain", c.Research.Backend)
	}
	if c.Research.Backend != ResearchRegistry && c.Research.TavilyAPIKey == "" {
		return invalid("research.backend %q requires TAVILY_API_KEY", c.Research.Backend)
	}
	if !oneOf(c.Cache.Backend, CacheFile, CacheSQLite, CacheRedis, CacheMemory, CacheNone) {
		return invalid("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return invalid("cache.backend redis requires cache.redis_addr")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the config file at path (or the first one Find locates for
// repo when path is empty), applies the environment and defaults, and
// validates the result. A missing implicit file is not an error.
func Load(path, repo string) (*Config, error) {
	if path == "" {
		path = Find(repo)
	}
	c := &Config{}
	if path != "" {
		var err error
		if c, err = ReadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadFile decodes a TOML or YAML file without applying defaults.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	c := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown format (want .toml, .yaml or .yml)", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return c, nil
}

// Find returns the first existing config file for repo, or "".
func Find(repo string) string {
	var candidates []string
	if repo != "" {
		for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
			candidates = append(candidates, filepath.Join(repo, ".shed", name))
		}
	}
	if dir, err := userConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "shed", "config.toml"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func userConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	return os.UserConfigDir()
}
