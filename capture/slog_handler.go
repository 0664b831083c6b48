package capture

import (
	"context"
	"log/slog"
	"slices"

	"github.com/samber/lo"
)

type SlogHandlerOptions struct {
	// Level is the minimum level of records to collect.
	Level slog.Leveler
}

// SlogHandler collects records into the Recorder of the context passed to the logger.
// Combine it with a regular handler using slogmulti.Fanout.
type SlogHandler struct {
	options SlogHandlerOptions

	attrs  []slog.Attr
	groups []string
}

func NewSlogHandler(options SlogHandlerOptions) *SlogHandler {
	if options.Level == nil {
		options.Level = slog.LevelDebug
	}
	return &SlogHandler{
		options: options,
		attrs:   []slog.Attr{},
		groups:  []string{},
	}
}

func (h *SlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.options.Level.Level() > level {
		return false
	}
	_, ok := FromContext(ctx)
	return ok
}

func (h *SlogHandler) Handle(ctx context.Context, record slog.Record) error {
	rec, ok := FromContext(ctx)
	if !ok {
		return nil
	}

	// Handler attributes go before the record attributes
	newRecord := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	newRecord.AddAttrs(h.attrs...)

	attrs := []slog.Attr{}
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	for i := range h.groups {
		k := h.groups[len(h.groups)-1-i]
		attrs = []slog.Attr{
			slog.Group(k, lo.ToAnySlice(attrs)...),
		}
	}
	newRecord.AddAttrs(attrs...)

	rec.CollectLog(newRecord)
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SlogHandler{
		options: h.options,
		attrs:   appendAttrsToGroup(h.groups, h.attrs, attrs...),
		groups:  h.groups,
	}
}

func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &SlogHandler{
		options: h.options,
		attrs:   h.attrs,
		groups:  append(slices.Clone(h.groups), name),
	}
}

// Copied from github.com/samber/slog-mock
func appendAttrsToGroup(groups []string, actualAttrs []slog.Attr, newAttrs ...slog.Attr) []slog.Attr {
	actualAttrs = slices.Clone(actualAttrs)

	if len(groups) == 0 {
		return append(actualAttrs, newAttrs...)
	}

	for i := range actualAttrs {
		attr := actualAttrs[i]
		if attr.Key == groups[0] && attr.Value.Kind() == slog.KindGroup {
			actualAttrs[i] = slog.Group(groups[0], lo.ToAnySlice(appendAttrsToGroup(groups[1:], attr.Value.Group(), newAttrs...))...)
			return actualAttrs
		}
	}

	return append(
		actualAttrs,
		slog.Group(
			groups[0],
			lo.ToAnySlice(appendAttrsToGroup(groups[1:], []slog.Attr{}, newAttrs...))...,
		),
	)
}

// ScopedHandler attributes records logged without a recorder in their context to rec and
// passes them on to next. Page objects log without a context; giving them a scoped logger
// keeps their records in the scenario report.
func ScopedHandler(next slog.Handler, rec *Recorder) slog.Handler {
	return &scopedHandler{next: next, rec: rec}
}

type scopedHandler struct {
	next slog.Handler
	rec  *Recorder
}

func (h *scopedHandler) scope(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := FromContext(ctx); ok {
		return ctx
	}
	return WithRecorder(ctx, h.rec)
}

func (h *scopedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(h.scope(ctx), level)
}

func (h *scopedHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.next.Handle(h.scope(ctx), record)
}

func (h *scopedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &scopedHandler{next: h.next.WithAttrs(attrs), rec: h.rec}
}

func (h *scopedHandler) WithGroup(name string) slog.Handler {
	return &scopedHandler{next: h.next.WithGroup(name), rec: h.rec}
}
