package infra

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("ANALYSIS_PROVIDER", "")
	t.Setenv("IMAGE_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QWEN_API_KEY", "")
	t.Setenv("SESSION_TTL_MINUTES", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.AnalysisProvider != "gemini" || cfg.ImageProvider != "gemini" {
		t.Fatalf("provider defaults: %q / %q", cfg.AnalysisProvider, cfg.ImageProvider)
	}
	if cfg.GeminiAnalysisModel == "" || cfg.GeminiImageModel == "" {
		t.Fatal("model defaults missing")
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.AnalysisCacheTTL != 24*time.Hour {
		t.Fatalf("AnalysisCacheTTL = %v", cfg.AnalysisCacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRequiresGeminiKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected a GEMINI_API_KEY error, got %v", err)
	}
}

func TestLoadConfigValidatesProviderSelection(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "openai without key",
			env:     map[string]string{"ANALYSIS_PROVIDER": "openai"},
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "qwen without key",
			env:     map[string]string{"IMAGE_PROVIDER": "qwen"},
			wantErr: "QWEN_API_KEY",
		},
		{
			name:    "unknown analysis provider",
			env:     map[string]string{"ANALYSIS_PROVIDER": "llama"},
			wantErr: "ANALYSIS_PROVIDER",
		},
		{
			name:    "unknown image provider",
			env:     map[string]string{"IMAGE_PROVIDER": "dalle"},
			wantErr: "IMAGE_PROVIDER",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGetEnvIntFallsBackOnJunk(t *testing.T) {
	t.Setenv("SOME_NUMBER", "not-a-number")
	if got := getEnvInt("SOME_NUMBER", 42); got != 42 {
		t.Fatalf("getEnvInt = %d, want fallback 42", got)
	}
	t.Setenv("SOME_NUMBER", "7")
	if got := getEnvInt("SOME_NUMBER", 42); got != 7 {
		t.Fatalf("getEnvInt = %d, want 7", got)
	}
}

func TestLoadConfigAcceptsAlternativeProviders(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ANALYSIS_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("IMAGE_PROVIDER", "qwen")
	t.Setenv("QWEN_API_KEY", "qwen-key")
	t.Setenv("SESSION_TTL_MINUTES", "15")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.AnalysisProvider != "openai" || cfg.ImageProvider != "qwen" {
		t.Fatalf("providers: %q / %q", cfg.AnalysisProvider, cfg.ImageProvider)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
}
