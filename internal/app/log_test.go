package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestHandler(file, echo *bytes.Buffer, echoLevel slog.Level) *plateHandler {
	h := &plateHandler{mu: &sync.Mutex{}, echoLevel: echoLevel, sessionID: "s-1"}
	if file != nil {
		h.file = file
	}
	if echo != nil {
		h.echo = echo
	}
	return h
}

func TestPlateHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			level:   slog.LevelInfo,
			message: "entry logged",
			want:    "2024-06-15T14:30:45Z\tINFO\ts-1\tentry logged\n",
		},
		{
			name:    "debug level",
			level:   slog.LevelDebug,
			message: "camera released",
			want:    "2024-06-15T14:30:45Z\tDEBUG\ts-1\tcamera released\n",
		},
		{
			name:    "with record attrs",
			level:   slog.LevelInfo,
			message: "draft created",
			attrs:   []slog.Attr{slog.String("name", "Apple"), slog.Float64("calories", 95)},
			want:    "2024-06-15T14:30:45Z\tINFO\ts-1\tdraft created\tname=Apple\tcalories=95\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTestHandler(&buf, nil, slog.LevelWarn)

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestPlateHandler_EchoLevel(t *testing.T) {
	var file, echo bytes.Buffer
	logger := slog.New(newTestHandler(&file, &echo, slog.LevelWarn))

	logger.Info("draft created")
	logger.Warn("estimation failed", "error", "timeout")

	if n := strings.Count(file.String(), "\n"); n != 2 {
		t.Errorf("file got %d lines, want 2", n)
	}
	if strings.Contains(echo.String(), "draft created") {
		t.Error("info record echoed below echo level")
	}
	if !strings.Contains(echo.String(), "estimation failed\terror=timeout") {
		t.Errorf("warn record not echoed: %q", echo.String())
	}
}

func TestPlateHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(&buf, nil, slog.LevelWarn)
	h.attrs = []slog.Attr{slog.String("a", "1")}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "server")}).(*plateHandler)
	if len(h.attrs) != 1 || len(h2.attrs) != 2 {
		t.Errorf("attrs: original %d (want 1), derived %d (want 2)", len(h.attrs), len(h2.attrs))
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "request", 0)
	r.AddAttrs(slog.String("path", "/api/state"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "component=server") || !strings.Contains(got, "path=/api/state") {
		t.Errorf("output = %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-session", slog.LevelError)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	logger.Info("hello")
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "plate.log"))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), "\ttest-session\thello") {
		t.Errorf("log file = %q", data)
	}
}
