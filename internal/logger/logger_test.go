package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestNewWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := New("studyhub-api", Options{Writer: &buf})

	log.Info().Str("k", "v").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log line: %v (%s)", err, buf.String())
	}
	if entry["service"] != "studyhub-api" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
	if entry["message"] != "hello" || entry["k"] != "v" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("expected timestamp field, got %v", entry)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("svc", Options{Level: "warn", Writer: &buf})

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
	log.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("expected warn line")
	}
}

func TestStackIsAttachedToErrors(t *testing.T) {
	var buf bytes.Buffer
	log := New("svc", Options{Writer: &buf})

	log.Error().Stack().Err(errors.New("boom")).Msg("failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse log line: %v", err)
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("expected stack field, got %v", entry)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	for _, raw := range []string{"", "nope"} {
		if got := parseLevel(raw); got.String() != "info" {
			t.Fatalf("parseLevel(%q) = %s, want info", raw, got)
		}
	}
}
