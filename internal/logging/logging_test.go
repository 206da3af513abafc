package logging

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    log.Level
		wantErr bool
	}{
		{in: "", want: log.InfoLevel},
		{in: "debug", want: log.DebugLevel},
		{in: " WARN ", want: log.WarnLevel},
		{in: "error", want: log.ErrorLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLevel(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("rejects unknown format", func(t *testing.T) {
		if _, _, err := New(Config{Format: "xml"}); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "voicescout.log")
		logger, closer, err := New(Config{Level: "debug", Format: "logfmt", File: path, MaxSizeMB: 1})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		logger.Debug("hello", "segment", "192.168.1")
		if err := closer.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel, Formatter: log.LogfmtFormatter})

	Component(base, "scanner").Info("started")
	if !strings.Contains(buf.String(), "component=scanner") {
		t.Errorf("expected component field, got %q", buf.String())
	}

	// nil logger must not panic
	Component(nil, "scanner").Info("dropped")
}
