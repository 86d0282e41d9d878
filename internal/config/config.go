package config

import (
	"fmt"
	"os"
	"strings"
)

type APIConfig struct {
	Addr         string
	HostPassword string
	OpenAIKey    string
	OpenAIModel  string
	MarketingCSV string
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := strings.TrimSpace(os.Getenv("PORT"))
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("BIZSIM_API_ADDR", ":5050")
	}

	cfg := APIConfig{
		Addr:         addr,
		HostPassword: strings.TrimSpace(os.Getenv("HOST_PASSWORD")),
		OpenAIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:  envDefault("BIZSIM_OPENAI_MODEL", "gpt-4o-mini"),
		MarketingCSV: envDefault("BIZSIM_MARKETING_CSV", "marketing_stats.csv"),
	}
	if cfg.HostPassword == "" {
		return cfg, fmt.Errorf("HOST_PASSWORD is required")
	}
	if cfg.OpenAIKey == "" {
		return cfg, fmt.Errorf("OPENAI_API_KEY is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("BIZSIM_API_BASE_URL", "http://localhost:5050"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
