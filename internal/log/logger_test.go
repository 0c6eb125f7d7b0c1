package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewParsesLevels(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":     zerolog.DebugLevel,
		"info":      zerolog.InfoLevel,
		"warn":      zerolog.WarnLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"":          zerolog.InfoLevel,
		"gibberish": zerolog.InfoLevel,
	}

	for input, want := range cases {
		if got := New(input).GetLevel(); got != want {
			t.Fatalf("level %q: got %v, want %v", input, got, want)
		}
	}
}

func TestComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	sub := Component(&base, "relay")
	sub.Info().Msg("ticket opened")

	if out := buf.String(); !strings.Contains(out, `"component":"relay"`) {
		t.Fatalf("component field missing from output: %s", out)
	}
}
