package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultGitHubBaseURL  = "https://github.com"
	defaultGitHubTimeout  = 60 * time.Second
	defaultMaxArchiveSize = 512 << 20
)

// Properties are the key-value pairs that `@key@` tokens in local
// descriptors resolve against.
type Properties map[string]string

// Resolve returns the non-empty value stored under key.
func (p Properties) Resolve(key string) (string, bool) {
	val, ok := p[key]
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return val, true
}

// GitHubConfig controls remote branch archive downloads.
type GitHubConfig struct {
	BaseURL          string   `yaml:"base_url"`
	Timeout          string   `yaml:"timeout"`
	MaxArchiveBytes  int64    `yaml:"max_archive_bytes"`
	BranchNamespaces []string `yaml:"branch_namespaces"`
}

// TimeoutDuration parses Timeout, falling back to the default.
func (g GitHubConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(g.Timeout)); err == nil && d > 0 {
		return d
	}
	return defaultGitHubTimeout
}

// HooksConfig is the packaging configuration file.
type HooksConfig struct {
	Properties  Properties   `yaml:"properties"`
	ExcludeDirs []string     `yaml:"exclude_dirs"`
	TempDir     string       `yaml:"temp_dir"`
	GitHub      GitHubConfig `yaml:"github"`
}

// LoadHooksConfig reads and validates the YAML file at path. A missing file
// yields defaults without error.
func LoadHooksConfig(path string) (*HooksConfig, error) {
	if strings.TrimSpace(path) == "" {
		return defaultHooksConfig(), nil
	}
	// #nosec G304 -- config path is operator-provided.
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultHooksConfig(), nil
	}
	if err != nil {
		return defaultHooksConfig(), fmt.Errorf("read hooks config: %w", err)
	}
	return ParseHooksConfig(data)
}

// ParseHooksConfig parses config data from YAML/JSON bytes.
func ParseHooksConfig(data []byte) (*HooksConfig, error) {
	if err := validateConfigSchema("hooks", pathpackSchemaFile, data); err != nil {
		return defaultHooksConfig(), err
	}
	var cfg HooksConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaultHooksConfig(), fmt.Errorf("parse hooks config: %w", err)
	}
	def := defaultHooksConfig()
	if cfg.Properties == nil {
		cfg.Properties = def.Properties
	}
	if cfg.GitHub.BaseURL == "" {
		cfg.GitHub.BaseURL = def.GitHub.BaseURL
	}
	if cfg.GitHub.Timeout == "" {
		cfg.GitHub.Timeout = def.GitHub.Timeout
	}
	if cfg.GitHub.MaxArchiveBytes <= 0 {
		cfg.GitHub.MaxArchiveBytes = def.GitHub.MaxArchiveBytes
	}
	return &cfg, nil
}

func defaultHooksConfig() *HooksConfig {
	return &HooksConfig{
		Properties: Properties{},
		GitHub: GitHubConfig{
			BaseURL:         defaultGitHubBaseURL,
			Timeout:         defaultGitHubTimeout.String(),
			MaxArchiveBytes: defaultMaxArchiveSize,
		},
	}
}
