package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Port     int    `json:"port"`
	BaseURL  string `json:"base_url"`
	LogLevel string `json:"log_level"`

	// MockVoice selects the fake provider; no real calls are placed.
	MockVoice bool `json:"mock_voice"`

	// MaxDials bounds concurrent outbound call initiations.
	MaxDials int `json:"max_dials"`

	Dial struct {
		MaxAttempts int `json:"max_attempts"`
	} `json:"dial"`
	Vapi struct {
		APIKey        string `json:"api_key"`
		PhoneNumberID string `json:"phone_number_id"`
		Model         string `json:"model"`
		Voice         string `json:"voice"`
	} `json:"vapi"`
	LLM struct {
		BaseURL string `json:"base_url"`
		APIKey  string `json:"api_key"`
		Model   string `json:"model"`
	} `json:"llm"`
	Sweep struct {
		Schedule      string `json:"schedule"`
		StaleAfterMin int    `json:"stale_after_min"`
	} `json:"sweep"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Port = 3000
	cfg.LogLevel = "info"
	cfg.MockVoice = true
	cfg.MaxDials = 4
	cfg.Dial.MaxAttempts = 1
	cfg.Vapi.Model = "gpt-4o-mini"
	cfg.Vapi.Voice = "Zayd"
	cfg.LLM.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.Sweep.Schedule = "@every 1m"
	cfg.Sweep.StaleAfterMin = 30
	return cfg
}

// Load reads the config file at path, writing defaults there on first run.
// Environment variables take highest precedence.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			cfg.Port = n
		}
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if mock := os.Getenv("MOCK_VOICE"); mock != "" {
		cfg.MockVoice = mock == "true" || mock == "1"
	}
	if key := os.Getenv("VAPI_API_KEY"); key != "" {
		cfg.Vapi.APIKey = key
	}
	if id := os.Getenv("VAPI_PHONE_NUMBER_ID"); id != "" {
		cfg.Vapi.PhoneNumberID = id
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.LLM.Model = model
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	return cfg, nil
}

// Save writes the config to path atomically, creating the directory if
// needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
