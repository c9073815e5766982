package cmd

import (
	"testing"
	"time"

	"github.com/dlangk/daniel-daily/internal/state"
)

func TestTruncateError(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a long error message", 10, "this is a ..."},
		{"", 5, ""},
	}
	for _, tt := range tests {
		got := truncateError(tt.input, tt.n)
		if got != tt.want {
			t.Errorf("truncateError(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}

func TestTruncateErrorUTF8(t *testing.T) {
	// Multi-byte characters must truncate by rune, not byte
	got := truncateError("こんにちは世界です", 5)
	want := "こんにちは..."
	if got != want {
		t.Errorf("truncateError = %q, want %q", got, want)
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "Never" {
		t.Errorf("formatTime(zero) = %q, want Never", got)
	}
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := formatTime(ts); got != "2026-01-02T03:04:05Z" {
		t.Errorf("formatTime = %q", got)
	}
}

func TestHealthLabel(t *testing.T) {
	if got := healthLabel(state.SourceState{LastFetchSuccess: true}); got != "OK" {
		t.Errorf("healthy state labelled %q", got)
	}
	if got := healthLabel(state.SourceState{LastFetchSuccess: false}); got != "FAILING" {
		t.Errorf("failing state labelled %q", got)
	}
}
