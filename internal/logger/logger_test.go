package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWritesJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, "prod", "warn")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l.Info().Msg("dropped")
	l.Warn().Str("race_id", "r1").Msg("kept")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output %q is not one JSON line: %v", buf.String(), err)
	}
	if line["message"] != "kept" || line["race_id"] != "r1" || line["app"] != "racecraft" {
		t.Errorf("line = %v", line)
	}
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	newWithWriter(&buf, "dev", "loud")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v", zerolog.GlobalLevel())
	}
}
