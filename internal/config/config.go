package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration from an optional YAML file and the environment.
type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	QueueSize int    `yaml:"queue_size"`

	VCSBackend   string `yaml:"vcs_backend"`
	GHToken      string `yaml:"gh_token"`
	GitHubOwner  string `yaml:"github_owner"`
	GitHubAPIURL string `yaml:"github_api_url"`
	GitReposRoot string `yaml:"git_repos_root"`

	PipelineBackend string `yaml:"pipeline_backend"`

	StateBackend  string `yaml:"state_backend"`
	DatabaseURL   string `yaml:"database_url"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	BoltPath      string `yaml:"bolt_path"`

	PollIntervalSec  int      `yaml:"poll_interval_sec"`
	PollRepositories []string `yaml:"poll_repositories"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default values when neither the file nor the environment sets them.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultQueueSize       = 100
	DefaultVCSBackend      = "github"
	DefaultGitReposRoot    = "./repos"
	DefaultPipelineBackend = "github"
	DefaultStateBackend    = "memory"
	DefaultRedisAddr       = "localhost:6379"
	DefaultBoltPath        = "data/state.db"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

func defaults() *Config {
	return &Config{
		HTTPAddr:        DefaultHTTPAddr,
		QueueSize:       DefaultQueueSize,
		VCSBackend:      DefaultVCSBackend,
		GitReposRoot:    DefaultGitReposRoot,
		PipelineBackend: DefaultPipelineBackend,
		StateBackend:    DefaultStateBackend,
		RedisAddr:       DefaultRedisAddr,
		BoltPath:        DefaultBoltPath,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

// Load reads configuration from the environment.
// Uses defaults for optional values when unset.
func Load() *Config {
	c := defaults()
	c.applyEnv()
	return c
}

// LoadFile reads the YAML file at path over the defaults, then applies the
// environment on top.
func LoadFile(path string) (*Config, error) {
	c := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setPositiveInt(&c.QueueSize, "QUEUE_SIZE")
	setString(&c.VCSBackend, "VCS_BACKEND")
	setString(&c.GHToken, "GH_TOKEN")
	setString(&c.GitHubOwner, "GITHUB_OWNER")
	setString(&c.GitHubAPIURL, "GITHUB_API_URL")
	setString(&c.GitReposRoot, "GIT_REPOS_ROOT")
	setString(&c.PipelineBackend, "PIPELINE_BACKEND")
	setString(&c.StateBackend, "STATE_BACKEND")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPassword, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.RedisDB = n
		}
	}
	setString(&c.BoltPath, "BOLT_PATH")
	if v := os.Getenv("POLL_INTERVAL_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.PollIntervalSec = n
		}
	}
	if v := os.Getenv("POLL_REPOSITORIES"); v != "" {
		c.PollRepositories = splitList(v)
	}
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
}

// Validate reports configuration that cannot work for the selected backends.
func (c *Config) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be positive, got %d", c.QueueSize)
	}
	switch c.VCSBackend {
	case "github":
		if c.GitHubOwner == "" {
			return fmt.Errorf("GITHUB_OWNER is required for the github vcs backend")
		}
	case "git":
	default:
		return fmt.Errorf("unknown vcs backend %q", c.VCSBackend)
	}
	switch c.PipelineBackend {
	case "github":
		if c.GitHubOwner == "" {
			return fmt.Errorf("GITHUB_OWNER is required for the github pipeline backend")
		}
	case "dryrun":
	default:
		return fmt.Errorf("unknown pipeline backend %q", c.PipelineBackend)
	}
	switch c.StateBackend {
	case "memory", "bolt", "redis":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres state backend")
		}
	default:
		return fmt.Errorf("unknown state backend %q", c.StateBackend)
	}
	if c.PollIntervalSec > 0 && c.GitHubOwner == "" {
		return fmt.Errorf("GITHUB_OWNER is required for polling")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setPositiveInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
