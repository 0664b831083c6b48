package steps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cucumber/godog"
	slogmulti "github.com/samber/slog-multi"

	"github.com/networkteam/fogonqa/actors"
	"github.com/networkteam/fogonqa/capture"
	"github.com/networkteam/fogonqa/pages"
)

func (s *scenario) before(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	s.name = sc.Name

	recorderOptions := capture.DefaultRecorderOptions()
	if s.opts.RecorderOptions != nil {
		recorderOptions = *s.opts.RecorderOptions
	}
	s.recorder = capture.NewRecorderWithOptions(sc.Name, recorderOptions)
	ctx = capture.WithRecorder(ctx, s.recorder)

	handler := slogmulti.Fanout(
		s.opts.Logger.Handler(),
		capture.NewSlogHandler(capture.SlogHandlerOptions{}),
	)
	s.logger = slog.New(capture.ScopedHandler(handler, s.recorder)).
		With(slog.String("scenario", sc.Name))

	if s.opts.Contexts != nil {
		s.actors = actors.NewRegistry(s.opts.Contexts, s.pageOptions(s.logger), s.logger)
	}

	s.logger.InfoContext(ctx, "Scenario started", slog.String("recorder", s.recorder.ID.String()))
	return ctx, nil
}

func (s *scenario) beforeStep(ctx context.Context, st *godog.Step) (context.Context, error) {
	s.mu.Lock()
	s.step = st.Text
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Step", slog.String("step", st.Text))
	return ctx, nil
}

func (s *scenario) after(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "Scenario failed", slog.Any("error", err), slog.String("step", s.currentStep()))
		s.writeDiagnostics(ctx)
	} else {
		s.logger.InfoContext(ctx, "Scenario passed")
	}

	if s.actors != nil {
		if closeErr := s.actors.CloseAll(ctx); closeErr != nil {
			s.logger.WarnContext(ctx, "Closing actors failed", slog.Any("error", closeErr))
		}
	}
	return ctx, nil
}

// writeDiagnostics records URL, title and a screenshot of every actor page and writes the
// capture report of the scenario.
func (s *scenario) writeDiagnostics(ctx context.Context) {
	dir := s.opts.Settings.DiagnosticsDir
	base := diagnosticsName(s.name, s.recorder)
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.WarnContext(ctx, "Creating diagnostics directory failed", slog.String("dir", dir), slog.Any("error", err))
			dir = ""
		}
	}

	if s.actors != nil {
		for _, actor := range s.actors.Actors() {
			screenshot := ""
			if dir != "" {
				screenshot = filepath.Join(dir, base+"-"+slugify(actor.Name)+".png")
			}
			d := pages.CaptureDiagnostics(actor.Page, screenshot)
			s.logger.ErrorContext(ctx, "Actor diagnostics",
				slog.String("actor", actor.Name),
				slog.String("url", d.URL),
				slog.String("title", d.Title),
				slog.String("screenshot", d.Screenshot),
			)
			if d.Err != nil {
				s.logger.WarnContext(ctx, "Capturing diagnostics failed", slog.String("actor", actor.Name), slog.Any("error", d.Err))
			}
		}
	}

	if dir != "" {
		path := filepath.Join(dir, base+".log")
		if err := writeReportFile(path, s.recorder); err != nil {
			s.logger.WarnContext(ctx, "Writing capture report failed", slog.String("path", path), slog.Any("error", err))
		} else {
			s.logger.InfoContext(ctx, "Capture report written", slog.String("path", path))
		}
	}
	if s.opts.ReportWriter != nil {
		if err := capture.WriteReport(s.opts.ReportWriter, s.recorder, capture.ReportOptions{Color: s.opts.ReportColor}); err != nil {
			s.logger.WarnContext(ctx, "Writing capture report failed", slog.Any("error", err))
		}
	}
}

func writeReportFile(path string, rec *capture.Recorder) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return capture.WriteReport(f, rec, capture.ReportOptions{})
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "scenario"
	}
	return slug
}

// diagnosticsName is unique per scenario run: the random tail of the recorder id tells
// apart scenario outlines with equal names.
func diagnosticsName(scenario string, rec *capture.Recorder) string {
	id := rec.ID.String()
	return fmt.Sprintf("%s-%s", slugify(scenario), id[len(id)-8:])
}
