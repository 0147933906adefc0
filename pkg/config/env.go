package config

import (
	"strconv"
	"time"

	"github.com/matzehuels/shed/pkg/errors"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides c with the environment variables that are set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	strs := map[string]*string{
		"COMPANY_NAME":     &c.Company.Name,
		"COMPANY_EMAIL":    &c.Company.Email,
		"SHED_SANDBOX":     &c.Sandbox.Provider,
		"SHED_IMAGE":       &c.Sandbox.Image,
		"SHED_CACHE":       &c.Cache.Backend,
		"SHED_CACHE_DIR":   &c.Cache.Dir,
		"SHED_REDIS_ADDR":  &c.Cache.RedisAddr,
		"SHED_MONGO_URI":   &c.Archive.MongoURI,
		"SHED_RESEARCH":    &c.Research.Backend,
		"TAVILY_API_KEY":   &c.Research.TavilyAPIKey,
		"OPENAI_API_KEY":   &c.Research.OpenAIAPIKey,
		"OPENAI_BASE_URL":  &c.Research.OpenAIBaseURL,
		"OPENAI_MODEL":     &c.Research.OpenAIModel,
		"GITHUB_TOKEN":     &c.Research.GitHubToken,
		"SHED_SERVER_ADDR": &c.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SHED_STAGE_TIMEOUT": &c.Pipeline.StageTimeout,
		"SHED_RUN_TIMEOUT":   &c.Pipeline.RunTimeout,
		"SHED_RETRY_BACKOFF": &c.License.RetryBackoff,
		"SHED_CACHE_TTL":     &c.Cache.TTL,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", key)
		}
		*dst = d
	}

	ints := map[string]*int{
		"SHED_LICENSE_CONCURRENCY": &c.License.Concurrency,
		"SHED_RETRY_ATTEMPTS":      &c.License.RetryAttempts,
		"SHED_EXTRACT_PARALLEL":    &c.Pipeline.ExtractParallel,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", key)
		}
		*dst = n
	}

	if v, ok := lookup("SHED_MIN_CONFIDENCE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "SHED_MIN_CONFIDENCE")
		}
		c.Pipeline.MinConfidence = f
	}
	return nil
}
