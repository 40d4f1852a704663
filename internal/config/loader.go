package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"gemmad/internal/locator"
)

// Handler modes.
const (
	ModeEngine = "engine"
	ModeDemo   = "demo"
)

// Config holds runtime parameters for the service.
// Zero values in a loaded file mean "unspecified" and keep the defaults.
type Config struct {
	Addr    string `json:"addr" yaml:"addr" toml:"addr"`
	Mode    string `json:"mode" yaml:"mode" toml:"mode"`
	Channel string `json:"channel" yaml:"channel" toml:"channel"`

	// Model location: InternalDir/ModelFile first, then ExternalPaths
	// (ModelFile in the shared download folders when unset).
	ModelFile     string   `json:"model_file" yaml:"model_file" toml:"model_file"`
	InternalDir   string   `json:"internal_dir" yaml:"internal_dir" toml:"internal_dir"`
	ExternalPaths []string `json:"external_paths" yaml:"external_paths" toml:"external_paths"`
	// PreloadModel initializes the engine with the located model at startup.
	PreloadModel bool `json:"preload_model" yaml:"preload_model" toml:"preload_model"`

	MaxTopK         int `json:"max_top_k" yaml:"max_top_k" toml:"max_top_k"`
	CtxSize         int `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads         int `json:"threads" yaml:"threads" toml:"threads"`
	Workers         int `json:"workers" yaml:"workers" toml:"workers"`
	StreamChunks    int `json:"stream_chunks" yaml:"stream_chunks" toml:"stream_chunks"`
	ChunkIntervalMS int `json:"chunk_interval_ms" yaml:"chunk_interval_ms" toml:"chunk_interval_ms"`

	// RulesFile replaces the built-in demo answer table (YAML).
	RulesFile string `json:"rules_file" yaml:"rules_file" toml:"rules_file"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	MaxBodyBytes           int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled            bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins     []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	ShutdownTimeoutSeconds int      `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:                   ":8080",
		Mode:                   ModeEngine,
		ModelFile:              locator.DefaultFileName,
		InternalDir:            "~/.local/share/gemmad",
		MaxTopK:                64,
		Workers:                1,
		StreamChunks:           10,
		ChunkIntervalMS:        50,
		LogLevel:               "info",
		LogFormat:              "console",
		MaxBodyBytes:           1 << 20,
		ShutdownTimeoutSeconds: 5,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Resolve builds the configuration from defaults, then the file at path (if
// any), then GEMMAD_* environment variables. The result is not validated;
// callers layer their own overrides first and then call Validate.
func Resolve(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = cfg.Overlay(f)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Overlay returns c with every non-zero field of o applied on top.
func (c Config) Overlay(o Config) Config {
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	str(&c.Addr, o.Addr)
	str(&c.Mode, o.Mode)
	str(&c.Channel, o.Channel)
	str(&c.ModelFile, o.ModelFile)
	str(&c.InternalDir, o.InternalDir)
	if o.ExternalPaths != nil {
		c.ExternalPaths = append([]string{}, o.ExternalPaths...)
	}
	c.PreloadModel = c.PreloadModel || o.PreloadModel
	num(&c.MaxTopK, o.MaxTopK)
	num(&c.CtxSize, o.CtxSize)
	num(&c.Threads, o.Threads)
	num(&c.Workers, o.Workers)
	num(&c.StreamChunks, o.StreamChunks)
	num(&c.ChunkIntervalMS, o.ChunkIntervalMS)
	str(&c.RulesFile, o.RulesFile)
	str(&c.LogLevel, o.LogLevel)
	str(&c.LogFormat, o.LogFormat)
	if o.MaxBodyBytes != 0 {
		c.MaxBodyBytes = o.MaxBodyBytes
	}
	c.CORSEnabled = c.CORSEnabled || o.CORSEnabled
	if o.CORSAllowedOrigins != nil {
		c.CORSAllowedOrigins = append([]string(nil), o.CORSAllowedOrigins...)
	}
	num(&c.ShutdownTimeoutSeconds, o.ShutdownTimeoutSeconds)
	return c
}

// ApplyEnv overrides fields from GEMMAD_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"GEMMAD_ADDR":         &c.Addr,
		"GEMMAD_MODE":         &c.Mode,
		"GEMMAD_CHANNEL":      &c.Channel,
		"GEMMAD_MODEL_FILE":   &c.ModelFile,
		"GEMMAD_INTERNAL_DIR": &c.InternalDir,
		"GEMMAD_RULES_FILE":   &c.RulesFile,
		"GEMMAD_LOG_LEVEL":    &c.LogLevel,
		"GEMMAD_LOG_FORMAT":   &c.LogFormat,
	}
	for k, dst := range strs {
		if v, ok := lookup(k); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("GEMMAD_EXTERNAL_PATHS"); ok && v != "" {
		c.ExternalPaths = SplitCSV(v)
	}
	if v, ok := lookup("GEMMAD_PRELOAD_MODEL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GEMMAD_PRELOAD_MODEL: %w", err)
		}
		c.PreloadModel = b
	}
	if v, ok := lookup("GEMMAD_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GEMMAD_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeEngine, ModeDemo:
	default:
		return fmt.Errorf("invalid mode %q (want %s or %s)", c.Mode, ModeEngine, ModeDemo)
	}
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Workers < 0 || c.StreamChunks < 0 || c.ChunkIntervalMS < 0 || c.MaxTopK < 0 {
		return fmt.Errorf("workers, stream_chunks, chunk_interval_ms and max_top_k must not be negative")
	}
	return nil
}

// Candidates returns the model search order.
func (c Config) Candidates() []locator.Candidate {
	ext := c.ExternalPaths
	if ext == nil {
		ext = locator.DefaultExternalPaths(c.ModelFile)
	}
	return locator.DefaultCandidates(c.InternalDir, c.ModelFile, ext)
}

// SplitCSV splits a comma-separated list, trimming blanks. The result is
// never nil, so an empty input yields an explicit empty list.
func SplitCSV(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
