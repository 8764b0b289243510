package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", cfg.Port)
	}
	if !cfg.MockVoice {
		t.Error("expected mock voice enabled by default")
	}
	if cfg.BaseURL != "http://localhost:3000" {
		t.Errorf("expected derived base URL, got %q", cfg.BaseURL)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file written on first run: %v", err)
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"port": 8080, "mock_voice": false, "vapi": {"api_key": "vk-123"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.MockVoice {
		t.Error("expected mock voice disabled")
	}
	if cfg.Vapi.APIKey != "vk-123" {
		t.Errorf("expected vapi key from file, got %q", cfg.Vapi.APIKey)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Vapi.Model != "gpt-4o-mini" {
		t.Errorf("expected default model, got %q", cfg.Vapi.Model)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	t.Setenv("PORT", "9000")
	t.Setenv("BASE_URL", "https://sdr.example.com")
	t.Setenv("MOCK_VOICE", "false")
	t.Setenv("VAPI_API_KEY", "vk-env")
	t.Setenv("VAPI_PHONE_NUMBER_ID", "pn-env")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected env port 9000, got %d", cfg.Port)
	}
	if cfg.BaseURL != "https://sdr.example.com" {
		t.Errorf("expected env base URL, got %q", cfg.BaseURL)
	}
	if cfg.MockVoice {
		t.Error("expected MOCK_VOICE=false to disable mock voice")
	}
	if cfg.Vapi.APIKey != "vk-env" || cfg.Vapi.PhoneNumberID != "pn-env" {
		t.Errorf("expected vapi creds from env, got %q/%q", cfg.Vapi.APIKey, cfg.Vapi.PhoneNumberID)
	}
	if cfg.LLM.APIKey != "sk-env" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("expected llm settings from env, got %q/%q", cfg.LLM.APIKey, cfg.LLM.Model)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := defaults()
	cfg.Port = 4242
	cfg.Vapi.APIKey = "vk-save"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Port != 4242 || loaded.Vapi.APIKey != "vk-save" {
		t.Errorf("round trip mismatch: port=%d key=%q", loaded.Port, loaded.Vapi.APIKey)
	}
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	nested := map[string]any{
		"port": float64(3000),
		"vapi": map[string]any{
			"api_key": "vk-1",
			"model":   "gpt-4o-mini",
		},
	}

	flat := Flatten(nested)
	if flat["port"] != float64(3000) {
		t.Errorf("expected port in flat map, got %v", flat["port"])
	}
	if flat["vapi.api_key"] != "vk-1" {
		t.Errorf("expected vapi.api_key in flat map, got %v", flat["vapi.api_key"])
	}

	back := Unflatten(flat)
	vapi, ok := back["vapi"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested vapi map, got %T", back["vapi"])
	}
	if vapi["model"] != "gpt-4o-mini" {
		t.Errorf("expected model restored, got %v", vapi["model"])
	}
}

func TestMaskSecrets(t *testing.T) {
	flat := map[string]any{
		"vapi.api_key": "vk-1234567890",
		"llm.api_key":  "",
		"vapi.model":   "gpt-4o-mini",
	}

	masked := MaskSecrets(flat)
	if masked["vapi.api_key"] != "***7890" {
		t.Errorf("expected masked vapi key, got %v", masked["vapi.api_key"])
	}
	if masked["llm.api_key"] != "" {
		t.Errorf("expected empty secret untouched, got %v", masked["llm.api_key"])
	}
	if masked["vapi.model"] != "gpt-4o-mini" {
		t.Errorf("expected non-secret untouched, got %v", masked["vapi.model"])
	}
}

func TestSetValueCoercesTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}

	if err := SetValue(path, "port", "8080"); err != nil {
		t.Fatalf("SetValue port failed: %v", err)
	}
	if err := SetValue(path, "mock_voice", "false"); err != nil {
		t.Fatalf("SetValue mock_voice failed: %v", err)
	}
	if err := SetValue(path, "vapi.api_key", "vk-set"); err != nil {
		t.Fatalf("SetValue vapi.api_key failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.MockVoice {
		t.Error("expected mock voice disabled")
	}
	if cfg.Vapi.APIKey != "vk-set" {
		t.Errorf("expected vapi key set, got %q", cfg.Vapi.APIKey)
	}

	if err := SetValue(path, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestGetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}

	val, err := GetValue(path, "sweep.schedule")
	if err != nil {
		t.Fatalf("GetValue failed: %v", err)
	}
	if val != "@every 1m" {
		t.Errorf("expected default sweep schedule, got %v", val)
	}

	if _, err := GetValue(path, "bogus"); err == nil {
		t.Error("expected error for unknown key")
	}
}
