package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// ReportOptions controls how a report is rendered.
type ReportOptions struct {
	// Color highlights bodies with terminal escape codes
	Color bool
	// Style is the chroma style name. Default: monokai
	Style string
}

// WriteReport renders everything rec captured as plain text.
func WriteReport(w io.Writer, rec *Recorder, opts ReportOptions) error {
	rw := &reportWriter{w: w, opts: opts}

	rw.printf("Scenario: %s\n", rec.Scenario)
	rw.printf("Recorder: %s (started %s)\n", rec.ID, rec.Started.Format(time.RFC3339))

	logs := rec.Logs()
	rw.section("Log", len(logs), rec.logs.Dropped())
	for _, record := range logs {
		rw.printf("%s %-5s %s%s\n", record.Time.Format("15:04:05.000"), record.Level, record.Message, formatAttrs(record))
	}

	exchanges := rec.Exchanges()
	rw.section("HTTP", len(exchanges), rec.exchanges.Dropped())
	for _, ex := range exchanges {
		if ex.Error != nil {
			rw.printf("%s %s failed after %s: %v\n", ex.Method, ex.URL, ex.Duration().Round(time.Millisecond), ex.Error)
		} else {
			rw.printf("%s %s -> %d (%s)\n", ex.Method, ex.URL, ex.StatusCode, ex.Duration().Round(time.Millisecond))
		}
		rw.body("request", ex.RequestBody, ex.RequestHeaders.Get("Content-Type"))
		rw.body("response", ex.ResponseBody, ex.ResponseHeaders.Get("Content-Type"))
	}

	ops := rec.StoreOps()
	rw.section("Store", len(ops), rec.storeOps.Dropped())
	for _, op := range ops {
		rw.printf("%s %s", op.Name, op.Collection)
		if len(op.Filter) > 0 {
			rw.printf(" filter=%s", compactJSON(op.Filter))
		}
		if len(op.Set) > 0 {
			rw.printf(" set=%s", compactJSON(op.Set))
		}
		if op.Error != nil {
			rw.printf(" error=%v\n", op.Error)
			continue
		}
		rw.printf(" affected=%d (%s)\n", op.Affected, op.Duration.Round(time.Microsecond))
	}

	return rw.err
}

type reportWriter struct {
	w    io.Writer
	opts ReportOptions
	err  error
}

func (rw *reportWriter) printf(format string, args ...any) {
	if rw.err != nil {
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, format, args...)
}

func (rw *reportWriter) section(name string, count int, dropped uint64) {
	if dropped > 0 {
		rw.printf("\n== %s (%d, %d older dropped)\n", name, count, dropped)
		return
	}
	rw.printf("\n== %s (%d)\n", name, count)
}

func (rw *reportWriter) body(label string, body *LimitedBuffer, contentType string) {
	if body == nil || body.Len() == 0 {
		return
	}
	content := body.String()
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" || json.Valid(body.Bytes()) {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body.Bytes(), "   ", "  "); err == nil {
			content = pretty.String()
		}
		if mediaType == "" {
			mediaType = "application/json"
		}
	}

	rw.printf("   %s body:\n   ", label)
	if rw.opts.Color {
		if err := rw.highlight(content, mediaType); err == nil {
			rw.printf("\n")
			rw.truncated(body)
			return
		}
	}
	rw.printf("%s\n", content)
	rw.truncated(body)
}

func (rw *reportWriter) truncated(body *LimitedBuffer) {
	if body.IsTruncated() {
		rw.printf("   (truncated)\n")
	}
}

func (rw *reportWriter) highlight(content, mediaType string) error {
	if rw.err != nil {
		return rw.err
	}

	lexer := lexers.MatchMimeType(mediaType)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := rw.opts.Style
	if styleName == "" {
		styleName = "monokai"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return err
	}
	return formatters.TTY256.Format(rw.w, style, iterator)
}

func formatAttrs(record slog.Record) string {
	var sb strings.Builder
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&sb, "", attr)
		return true
	})
	return sb.String()
}

func writeAttr(sb *strings.Builder, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		for _, a := range attr.Value.Group() {
			writeAttr(sb, prefix+attr.Key+".", a)
		}
		return
	}
	fmt.Fprintf(sb, " %s%s=%v", prefix, attr.Key, attr.Value.Any())
}

// compactJSON renders v on one line with sorted keys.
func compactJSON(v map[string]any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
