package config

import (
	"testing"
	"time"
)

func TestEnvOr_Fallback(t *testing.T) {
	t.Setenv("COPILOTO_TEST_KEY", "")
	if got := envOr("COPILOTO_TEST_KEY", "x"); got != "x" {
		t.Errorf("got %q, want %q", got, "x")
	}
}

func TestEnvOr_Set(t *testing.T) {
	t.Setenv("COPILOTO_TEST_KEY", "y")
	if got := envOr("COPILOTO_TEST_KEY", "x"); got != "y" {
		t.Errorf("got %q, want %q", got, "y")
	}
}

func TestEnvInt_Invalid(t *testing.T) {
	t.Setenv("COPILOTO_TEST_INT", "abc")
	if got := envInt("COPILOTO_TEST_INT", 7); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}

func TestEnvDuration_Forms(t *testing.T) {
	t.Setenv("COPILOTO_TEST_DUR", "90s")
	if got := envDuration("COPILOTO_TEST_DUR", 0); got != 90*time.Second {
		t.Errorf("got %v, want 90s", got)
	}
	t.Setenv("COPILOTO_TEST_DUR", "12")
	if got := envDuration("COPILOTO_TEST_DUR", 0); got != 12*time.Second {
		t.Errorf("got %v, want 12s", got)
	}
	t.Setenv("COPILOTO_TEST_DUR", "soon")
	if got := envDuration("COPILOTO_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("got %v, want 1m", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("PORT", "")
	t.Setenv("LLM_API_SHAPE", "")
	cfg := Load()
	if cfg.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want openai", cfg.LLMProvider)
	}
	if cfg.Port != "3001" {
		t.Errorf("Port = %q, want 3001", cfg.Port)
	}
	if cfg.LLMAPIShape != "chat" {
		t.Errorf("LLMAPIShape = %q, want chat", cfg.LLMAPIShape)
	}
}
