package env

import (
	"log/slog"
	"testing"
)

func TestGet(t *testing.T) {
	t.Setenv("LENDPOOL_TEST_SET", "value")

	if got := Get("LENDPOOL_TEST_SET", "default"); got != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}
	if got := Get("LENDPOOL_TEST_UNSET", "default"); got != "default" {
		t.Errorf("Get() = %q, want %q", got, "default")
	}
}

func TestFirst(t *testing.T) {
	t.Setenv("LENDPOOL_SECOND", "second")
	t.Setenv("LENDPOOL_THIRD", "third")

	if got := First("default", "LENDPOOL_FIRST", "LENDPOOL_SECOND", "LENDPOOL_THIRD"); got != "second" {
		t.Errorf("First() = %q, want %q", got, "second")
	}
	if got := First("default", "LENDPOOL_NONE"); got != "default" {
		t.Errorf("First() = %q, want %q", got, "default")
	}
}

func TestGetUint64(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  uint64
	}{
		{name: "valid", value: "42", want: 42},
		{name: "empty falls back", value: "", want: 7},
		{name: "invalid falls back", value: "abc", want: 7},
		{name: "negative falls back", value: "-1", want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LENDPOOL_UINT", tt.value)
			if got := GetUint64("LENDPOOL_UINT", 7); got != tt.want {
				t.Errorf("GetUint64() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{raw: "debug", want: slog.LevelDebug},
		{raw: "INFO", want: slog.LevelInfo},
		{raw: "warn", want: slog.LevelWarn},
		{raw: "error", want: slog.LevelError},
		{raw: "", want: slog.LevelWarn},
		{raw: "verbose", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.raw)
			if got := ParseLogLevel(slog.LevelWarn); got != tt.want {
				t.Errorf("ParseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
