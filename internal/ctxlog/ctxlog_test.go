package ctxlog

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Fatalf("empty context: got %p, want the default logger", got)
	}
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := FromContext(WithLogger(context.Background(), lg)); got != lg {
		t.Fatalf("got %p, want %p", got, lg)
	}
}
