package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDateStamp(t *testing.T) {
	ts := time.Date(2025, 3, 7, 15, 4, 5, 0, time.UTC)
	if got := DateStamp(ts); got != "20250307" {
		t.Fatalf("unexpected stamp %q", got)
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("bad", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
}
