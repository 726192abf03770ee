package config

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestResolver_String_EnvWinsAndLogsConflict(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	resolver := NewResolver(logger)

	envKey := "WHREL_TEST_STRING_ENV"
	t.Setenv(envKey, "env-value")

	val := resolver.String("test-string", envKey, "cli-value", true, "default")

	if val != "env-value" {
		t.Errorf("expected env value 'env-value', got %q", val)
	}

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}

	entry := logs.All()[0]
	if entry.Message != "config: conflict for test-string" {
		t.Errorf("unexpected log message: %q", entry.Message)
	}

	fields := entry.ContextMap()
	if fields["env"] != "env-value" {
		t.Errorf("expected env field to be 'env-value', got %q", fields["env"])
	}
	if fields["cli"] != "cli-value" {
		t.Errorf("expected cli field to be 'cli-value', got %q", fields["cli"])
	}
}

func TestResolver_String_FallsBackToDefault(t *testing.T) {
	resolver := NewResolver(zap.NewNop())

	val := resolver.String("test-string", "WHREL_TEST_STRING_UNSET", "", false, "fallback")

	if val != "fallback" {
		t.Errorf("expected default 'fallback', got %q", val)
	}
}

func TestResolver_Bool_ParsesEnv(t *testing.T) {
	resolver := NewResolver(zap.NewNop())

	envKey := "WHREL_TEST_BOOL_ENV"
	t.Setenv(envKey, "true")

	val, err := resolver.Bool("test-bool", envKey, false, false, false)
	if err != nil {
		t.Fatalf("resolve bool: %v", err)
	}
	if !val {
		t.Error("expected env true to win")
	}
}

func TestResolver_Bool_RejectsInvalidEnv(t *testing.T) {
	resolver := NewResolver(zap.NewNop())

	envKey := "WHREL_TEST_BOOL_BAD"
	t.Setenv(envKey, "definitely")

	if _, err := resolver.Bool("test-bool", envKey, false, false, false); err == nil {
		t.Fatal("expected error for invalid boolean env value")
	}
}

func TestResolver_StringSlice_SplitsEnv(t *testing.T) {
	resolver := NewResolver(zap.NewNop())

	envKey := "WHREL_TEST_SLICE_ENV"
	t.Setenv(envKey, "packaging, docs ,")

	val := resolver.StringSlice("test-slice", envKey, nil, false, []string{"unused"})

	if len(val) != 2 || val[0] != "packaging" || val[1] != "docs" {
		t.Errorf("unexpected slice: %#v", val)
	}
}
