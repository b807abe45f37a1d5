package log

import (
	"context"
	"log/slog"
)

// sinkHandler adapts a plain (level, tag, message) callback to slog.Handler,
// for callers migrating from the original library's single log-callback config.
type sinkHandler struct {
	sink func(level Level, tag string, msg string)
	tag  string
}

func (h *sinkHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *sinkHandler) Handle(_ context.Context, r slog.Record) error {
	tag := h.tag
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "tag" {
			tag = a.Value.String()
			return false
		}
		return true
	})
	h.sink(Level(r.Level), tag, r.Message)
	return nil
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	for _, a := range attrs {
		if a.Key == "tag" {
			next.tag = a.Value.String()
		}
	}
	return &next
}

func (h *sinkHandler) WithGroup(string) slog.Handler { return h }
