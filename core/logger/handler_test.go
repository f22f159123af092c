package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func renderLine(t *testing.T, format logFormat, ctx context.Context, component, event string, attrs ...slog.Attr) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{level: slog.LevelInfo, writer: aw, format: format})
	LogEvent(ctx, slog.New(h).With("component", component), slog.LevelInfo, event, attrs...)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	return line
}

func TestKVLineKeyOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)
	line := renderLine(t, formatKV, ctx, "dialog", "dialog.advance",
		slog.String("status", "ok"),
		slog.String("dialog", "order"),
	)
	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=dialog", "event=dialog.advance", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "dialog=order"}
	if len(tokens) < len(want) {
		t.Fatalf("unexpected token count: %s", line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONLineOrderAndCompactRID(t *testing.T) {
	ctx := WithRID(Background(), "12:34:56")
	line := renderLine(t, formatJSON, ctx, "store", "redis.unlock",
		slog.String("status", "error"),
		slog.String("err", "boom"),
	)
	ordered := []string{`{"ts":`, `"level":"INFO"`, `"component":"store"`, `"event":"redis.unlock"`, `"status":"fail"`, `"rid":"` + CompactRID("12:34:56") + `"`, `"rid_full":"12:34:56"`}
	pos := -1
	for _, part := range ordered {
		idx := strings.Index(line, part)
		if idx == -1 || idx < pos {
			t.Fatalf("%s not found in order within %s", part, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano in %s", line)
	}
}

func TestDurationsRenderedInMilliseconds(t *testing.T) {
	line := renderLine(t, formatKV, Background(), "app", "ready",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("startup", 2*time.Second),
	)
	if !strings.Contains(line, "duration_ms=2") || !strings.Contains(line, "startup_ms=2000") {
		t.Fatalf("unexpected durations: %s", line)
	}
}

func TestKVQuotesValuesWithSpaces(t *testing.T) {
	line := renderLine(t, formatKV, Background(), "tg", "send", slog.String("err", "chat not found"))
	if !strings.Contains(line, `err="chat not found"`) {
		t.Fatalf("expected quoted value: %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("36:72:1"); got != "10.20.1" {
		t.Fatalf("CompactRID = %s", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID = %s", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(parseRatio("1/3"))
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	s.Set(parseRatio("garbage"))
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("привет\x00мир", 7); got != "приветм" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
