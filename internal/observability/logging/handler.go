package logging

import (
	"context"
	"io"
	"log/slog"
)

type HandlerOptions struct {
	Level         slog.Leveler
	Service       ServiceInfo
	Environment   Environment
	GCPProjectID  string
	DefaultModule Module
}

// Handler decorates JSON records with service identity, module, request id
// and, on Google Cloud, trace correlation fields.
type Handler struct {
	inner         slog.Handler
	projectID     string
	defaultModule Module
}

func NewHandler(w io.Writer, opts HandlerOptions) *Handler {
	inner := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: replaceAttr,
	})

	return &Handler{
		inner: inner.WithAttrs([]slog.Attr{
			slog.Group("service",
				slog.String("name", opts.Service.Name),
				slog.String("version", opts.Service.Version),
				slog.String("revision", opts.Service.Revision),
			),
			slog.String("env", string(opts.Environment)),
		}),
		projectID:     opts.GCPProjectID,
		defaultModule: opts.DefaultModule,
	}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	module := h.defaultModule
	if m, ok := ModuleFromContext(ctx); ok {
		module = m
	}
	if module != "" {
		r.AddAttrs(slog.String("module", string(module)))
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}

	if ctx != nil {
		r.AddAttrs(gcpTraceAttrs(ctx, h.projectID)...)
	}

	return h.inner.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner:         h.inner.WithAttrs(attrs),
		projectID:     h.projectID,
		defaultModule: h.defaultModule,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		inner:         h.inner.WithGroup(name),
		projectID:     h.projectID,
		defaultModule: h.defaultModule,
	}
}

// replaceAttr renames the top-level keys Cloud Logging understands.
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}
