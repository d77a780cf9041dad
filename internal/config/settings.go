// Package config assembles typed settings from the config file, the
// environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
)

// Config file keys.
const (
	KeyProxyEndpoint       = "proxy.endpoint"
	KeyProxyRate           = "proxy.rate"
	KeyProxyTimeoutSeconds = "proxy.timeout_seconds"
	KeyLLMModel            = "llm.model"
	KeyLLMBaseURL          = "llm.base_url"
	KeyLLMTemperature      = "llm.temperature_percent"
	KeyCacheMaxAgeHours    = "cache.max_age_hours"
	KeyChatGuestLimit      = "chat.guest_limit"
	KeyChatWebSearch       = "chat.web_search"
)

// Environment variables.
const (
	EnvAPIKey = "GEMINI_API_KEY"
	EnvHome   = "DOCSRAG_HOME"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	Home  string
	Proxy ProxySettings
	LLM   LLMSettings
	Cache CacheSettings
	Chat  ChatSettings
}

// ProxySettings configure the page fetch proxy.
type ProxySettings struct {
	Endpoint string
	Rate     float64
	Timeout  time.Duration
}

// LLMSettings configure the generative model.
type LLMSettings struct {
	Model       string
	BaseURL     string
	Temperature float64
}

// CacheSettings configure the index cache.
type CacheSettings struct {
	MaxAge time.Duration
}

// ChatSettings configure the chat agent.
type ChatSettings struct {
	// DefaultAPIKey is the shared guest key from the environment.
	DefaultAPIKey string
	GuestLimit    int
	WebSearch     bool
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Proxy: ProxySettings{
			Endpoint: "https://api.allorigins.win/get",
			Rate:     2,
			Timeout:  20 * time.Second,
		},
		LLM: LLMSettings{
			Model:       "gemini-2.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Temperature: 0.2,
		},
		Cache: CacheSettings{MaxAge: 72 * time.Hour},
		Chat:  ChatSettings{GuestLimit: 5},
	}
}

// ResolveHome picks the data directory: the flag value, then
// $DOCSRAG_HOME, then ~/.docsrag.
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(EnvHome); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".docsrag"), nil
}

// LoadEnv loads .env files into the process environment. Missing files
// are skipped and variables already set win.
func LoadEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// FromStore overlays the config file and environment on the defaults.
// Zero or missing values keep the default.
func FromStore(store driven.ConfigStore, home string) Settings {
	s := Defaults()
	s.Home = home

	if v := store.GetString(KeyProxyEndpoint); v != "" {
		s.Proxy.Endpoint = v
	}
	if v := store.GetFloat(KeyProxyRate); v > 0 {
		s.Proxy.Rate = v
	}
	if v := store.GetInt(KeyProxyTimeoutSeconds); v > 0 {
		s.Proxy.Timeout = time.Duration(v) * time.Second
	}
	if v := store.GetString(KeyLLMModel); v != "" {
		s.LLM.Model = v
	}
	if v := store.GetString(KeyLLMBaseURL); v != "" {
		s.LLM.BaseURL = v
	}
	if _, ok := store.Get(KeyLLMTemperature); ok {
		s.LLM.Temperature = float64(store.GetInt(KeyLLMTemperature)) / 100
	}
	if v := store.GetInt(KeyCacheMaxAgeHours); v > 0 {
		s.Cache.MaxAge = time.Duration(v) * time.Hour
	}
	if v := store.GetInt(KeyChatGuestLimit); v > 0 {
		s.Chat.GuestLimit = v
	}
	s.Chat.WebSearch = store.GetBool(KeyChatWebSearch)
	s.Chat.DefaultAPIKey = os.Getenv(EnvAPIKey)

	return s
}

// DataDir is where the key-value database lives.
func (s Settings) DataDir() string {
	return filepath.Join(s.Home, "data")
}

// PromptDir is where editable prompt templates live.
func (s Settings) PromptDir() string {
	return filepath.Join(s.Home, "prompts")
}
