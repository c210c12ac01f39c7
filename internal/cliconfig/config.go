// Package cliconfig resolves which engine the CLI talks to and which
// API key it authenticates with. The config file is optional; most
// users run entirely off environment variables and defaults.
package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEngineURL is used when neither flags, config, nor
// TENSORPOOL_ENGINE provide one.
const DefaultEngineURL = "https://engine.tensorpool.dev"

const (
	engineEnv = "TENSORPOOL_ENGINE"
	apiKeyEnv = "TENSORPOOL_KEY"
)

// Config models the optional context file: named engine endpoints plus
// the one currently selected.
type Config struct {
	CurrentContext string              `yaml:"currentContext"`
	Contexts       map[string]*Context `yaml:"contexts"`
}

// Context encodes connection details for one engine deployment.
type Context struct {
	Engine         string `yaml:"engine"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// ErrContextNotFound indicates the requested context is missing.
var ErrContextNotFound = errors.New("context not found")

// DefaultConfigPath points at ~/.tensorpool/config.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tensorpool", "config")
}

// Load decodes the config file. Missing files return (nil, nil).
func Load(path string) (*Config, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	expanded, err := expandPath(trimmed)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Resolve picks a context either by explicit name or the
// currentContext value.
func (c *Config) Resolve(name string) (*Context, error) {
	if c == nil {
		return nil, nil
	}
	ctxName := strings.TrimSpace(name)
	if ctxName == "" {
		ctxName = c.CurrentContext
	}
	if ctxName == "" {
		return nil, nil
	}
	ctx, ok := c.Contexts[ctxName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContextNotFound, ctxName)
	}
	return ctx, nil
}

// Connection is the fully resolved set of values every command needs.
type Connection struct {
	EngineURL string
	APIKey    string
	Timeout   time.Duration
}

// ResolveConnection applies the precedence flags > config file >
// environment > defaults. The API key is resolved separately (env,
// then .env in the working directory) and may legitimately be empty;
// the caller decides whether to start the login flow.
func ResolveConnection(configPath, contextName, engineURL string, timeout time.Duration) (*Connection, error) {
	conn := &Connection{
		EngineURL: strings.TrimSpace(engineURL),
		Timeout:   timeout,
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	ctx, err := cfg.Resolve(contextName)
	if err != nil {
		return nil, err
	}

	if conn.EngineURL == "" && ctx != nil {
		conn.EngineURL = ctx.Engine
	}
	if conn.EngineURL == "" {
		conn.EngineURL = os.Getenv(engineEnv)
	}
	if conn.EngineURL == "" {
		conn.EngineURL = DefaultEngineURL
	}
	conn.EngineURL = strings.TrimSuffix(conn.EngineURL, "/")

	if conn.Timeout == 0 {
		if ctx != nil && ctx.TimeoutSeconds > 0 {
			conn.Timeout = time.Duration(ctx.TimeoutSeconds) * time.Second
		} else {
			conn.Timeout = 30 * time.Second
		}
	}

	conn.APIKey = APIKey()
	return conn, nil
}

// APIKey reads the key from the environment first, then from a .env
// file in the current directory.
func APIKey() string {
	if key := os.Getenv(apiKeyEnv); key != "" {
		return key
	}
	return keyFromDotEnv(".env")
}

func keyFromDotEnv(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, apiKeyEnv) {
			continue
		}
		_, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `'"`)
	}
	return ""
}

// SaveAPIKey appends the key to .env in the current directory and
// exports it for the rest of the process.
func SaveAPIKey(apiKey string) error {
	f, err := os.OpenFile(".env", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("write .env: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "\n%s=%s\n", apiKeyEnv, apiKey); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}
	return os.Setenv(apiKeyEnv, apiKey)
}

func expandPath(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	case path == "~":
		return os.UserHomeDir()
	default:
		return path, nil
	}
}
