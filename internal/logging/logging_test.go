package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	logger := FromContext(context.Background())
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("expected nop logger, got level %v", logger.GetLevel())
	}

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))
	ctxLogger := FromContext(ctx)
	ctxLogger.Info().Msg("hello")
	if buf.Len() == 0 {
		t.Error("logger from context did not write")
	}
}

func TestLogEvaluation(t *testing.T) {
	var buf bytes.Buffer
	logger := WithIndicator(zerolog.New(&buf).Level(zerolog.DebugLevel), "SMA(period=3)")

	LogEvaluation(logger, "fast", "SMA", 2, 8, time.Millisecond, nil)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["event"] != "evaluation" || entry["kind"] != "SMA" || entry["indicator"] != "SMA(period=3)" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["count"].(float64) != 8 {
		t.Errorf("count = %v, want 8", entry["count"])
	}
}

func TestLogEvaluation_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.WarnLevel)

	LogEvaluation(logger, "j", "ATR", 0, 0, time.Millisecond, errors.New("bad input"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["level"] != "error" || entry["error"] != "bad input" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
