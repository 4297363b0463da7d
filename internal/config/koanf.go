package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names an explicit YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/moodtunes/config.yaml",
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"app_env":  "env",
	"node_env": "env",

	"server_addr":  "server.addr",
	"base_url":     "server.base_url",
	"cors_origins": "server.cors_origins",

	"log_level":  "log.level",
	"log_format": "log.format",
	"log_caller": "log.caller",

	"use_gemini":           "features.use_generative",
	"use_generative":       "features.use_generative",
	"use_youtube_api":      "features.use_youtube_api",
	"use_spotify_catalog":  "features.use_spotify_catalog",
	"use_lastfm_tags":      "features.use_lastfm_tags",
	"use_database":         "features.use_database",
	"use_firebase":         "features.use_database",
	"enable_notifications": "features.enable_notifications",

	"llm_provider":    "llm.provider",
	"llm_model":       "llm.model",
	"llm_temperature": "llm.temperature",
	"llm_top_p":       "llm.top_p",
	"llm_top_k":       "llm.top_k",
	"llm_max_tokens":  "llm.max_tokens",
	"llm_timeout":     "llm.timeout",
	"gemini_api_key":  "llm.gemini_api_key",
	"openai_api_key":  "llm.openai_api_key",
	"ollama_url":      "llm.ollama_url",

	"youtube_api_key":     "youtube.api_key",
	"youtube_max_results": "youtube.max_results",
	"youtube_cache_ttl":   "youtube.cache_ttl",

	"spotify_id":     "spotify.client_id",
	"spotify_secret": "spotify.client_secret",
	"spotify_market": "spotify.market",

	"lastfm_api_key": "lastfm.api_key",

	"database_url": "database.url",

	"google_client_id":     "auth.google_client_id",
	"google_client_secret": "auth.google_client_secret",
	"oauth_redirect_url":   "auth.redirect_url",
	"jwt_secret":           "auth.jwt_secret",
	"token_ttl":            "auth.token_ttl",
	"admin_emails":         "auth.admin_emails",

	"rate_limit_requests": "ratelimit.requests",
	"rate_limit_window":   "ratelimit.window",

	"vapid_public_key":             "notify.vapid_public_key",
	"next_public_vapid_public_key": "notify.vapid_public_key",
	"vapid_private_key":            "notify.vapid_private_key",
	"vapid_subject":                "notify.subject",
}

// sliceKeys are accepted as comma-separated strings from the environment.
var sliceKeys = []string{"server.cors_origins", "auth.admin_emails"}

// Load builds the configuration from, in increasing precedence, built-in
// defaults, an optional YAML file and environment variables, then
// validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}
