package config

import "testing"

func TestLoadAPIFromEnv(t *testing.T) {
	t.Setenv("HOST_PASSWORD", "hunter2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "")
	t.Setenv("BIZSIM_API_ADDR", "")
	t.Setenv("BIZSIM_OPENAI_MODEL", "")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("LoadAPIFromEnv: %v", err)
	}
	if cfg.Addr != ":5050" {
		t.Errorf("Addr = %q, want :5050", cfg.Addr)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("OpenAIModel = %q, want gpt-4o-mini", cfg.OpenAIModel)
	}
	if cfg.HostPassword != "hunter2" {
		t.Errorf("HostPassword = %q", cfg.HostPassword)
	}
}

func TestLoadAPIFromEnvPortOverride(t *testing.T) {
	t.Setenv("HOST_PASSWORD", "hunter2")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "8080")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("LoadAPIFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
}

func TestLoadAPIFromEnvRequiredVars(t *testing.T) {
	t.Setenv("HOST_PASSWORD", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Error("missing HOST_PASSWORD should fail")
	}

	t.Setenv("HOST_PASSWORD", "hunter2")
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Error("missing OPENAI_API_KEY should fail")
	}
}

func TestLoadCLIFromEnv(t *testing.T) {
	t.Setenv("BIZSIM_API_BASE_URL", "http://example.com:9000/")
	cfg := LoadCLIFromEnv()
	if cfg.APIBaseURL != "http://example.com:9000" {
		t.Errorf("APIBaseURL = %q, trailing slash should be stripped", cfg.APIBaseURL)
	}

	t.Setenv("BIZSIM_API_BASE_URL", "")
	if got := LoadCLIFromEnv().APIBaseURL; got != "http://localhost:5050" {
		t.Errorf("default APIBaseURL = %q", got)
	}
}
