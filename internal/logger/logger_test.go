package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevels(t *testing.T) {
	if got := New(false).GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("default level = %v; want info", got)
	}
	if got := New(true).GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("verbose level = %v; want debug", got)
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.Info().Str("source", "axis").Msg("ingested statement")

	out := buf.String()
	if !strings.Contains(out, `"source":"axis"`) || !strings.Contains(out, "ingested statement") {
		t.Errorf("unexpected log output: %s", out)
	}
}
