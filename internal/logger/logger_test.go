package logger

import (
	"context"
	"log/slog"
	"testing"

	"cinebook/internal/middleware"

	"github.com/stretchr/testify/assert"
)

// captureHandler resolves a log call into a flat attribute map so tests
// can see what the line would carry.
type captureHandler struct {
	attrs []slog.Attr
	got   map[string]string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	for _, a := range h.attrs {
		h.got[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		h.got[a.Key] = a.Value.String()
		return true
	})
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &captureHandler{attrs: merged, got: h.got}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func swapLogger(t *testing.T) map[string]string {
	t.Helper()

	got := map[string]string{}
	prev := defaultLogger
	defaultLogger = slog.New(&captureHandler{got: got})
	t.Cleanup(func() { defaultLogger = prev })
	return got
}

func TestWithContextAttachesIdentity(t *testing.T) {
	got := swapLogger(t)

	ctx := middleware.ContextWithUserID(context.Background(), "alice")
	ctx = middleware.ContextWithRequestID(ctx, "req-42")
	WithContext(ctx).Info("checkout started")

	assert.Equal(t, "alice", got["user_id"])
	assert.Equal(t, "req-42", got["request_id"])
}

func TestWithContextBareContext(t *testing.T) {
	got := swapLogger(t)

	WithContext(context.Background()).Info("sweep finished")

	assert.NotContains(t, got, "user_id")
	assert.NotContains(t, got, "request_id")
}
