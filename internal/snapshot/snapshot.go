// Package snapshot captures the rendered dashboard page as a PNG using a
// headless Chrome driven by chromedp.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-playground/validator/v10"

	apperrors "strakdash/internal/errors"
)

// DefaultSelector matches once Plotly has drawn the page 1 area chart
const DefaultSelector = "#area-chart .main-svg"

// Options controls one capture. Quality 100 produces a PNG and anything lower
// a JPEG. ExecPath overrides the Chrome binary found on PATH.
type Options struct {
	URL      string        `validate:"required,url"`
	Selector string        `validate:"omitempty"`
	Width    int64         `validate:"gte=320,lte=7680"`
	Height   int64         `validate:"gte=240,lte=4320"`
	Quality  int           `validate:"gte=1,lte=100"`
	Wait     time.Duration `validate:"gte=0"`
	Timeout  time.Duration `validate:"gt=0"`
	Headless bool
	ExecPath string
}

// DefaultOptions returns a 1440x900 headless capture of url
func DefaultOptions(url string) Options {
	return Options{
		URL:      url,
		Selector: DefaultSelector,
		Width:    1440,
		Height:   900,
		Quality:  100,
		Wait:     500 * time.Millisecond,
		Timeout:  60 * time.Second,
		Headless: true,
	}
}

var optionsValidator = validator.New()

// Validate checks the options before a browser is started
func (o Options) Validate() error {
	if err := optionsValidator.Struct(o); err != nil {
		return apperrors.NewAppValidationError(fmt.Sprintf("invalid snapshot options: %v", err))
	}
	return nil
}

// allocatorOptions builds the Chrome flags for o
func (o Options) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", o.Headless),
		chromedp.WindowSize(int(o.Width), int(o.Height)),
	)
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	return opts
}

// tasks navigates, waits for the figures and takes a full-page screenshot
func (o Options) tasks(buf *[]byte, logger *slog.Logger) chromedp.Tasks {
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(o.Width, o.Height),
		timedAction(logger, "navigate", chromedp.Navigate(o.URL)),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if o.Selector != "" {
		tasks = append(tasks, timedAction(logger, "wait_figures", chromedp.WaitVisible(o.Selector, chromedp.ByQuery)))
	}
	if o.Wait > 0 {
		tasks = append(tasks, chromedp.Sleep(o.Wait))
	}
	return append(tasks, timedAction(logger, "screenshot", chromedp.FullScreenshot(buf, o.Quality)))
}

func timedAction(logger *slog.Logger, name string, act chromedp.Action) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		start := time.Now()
		err := act.Do(ctx)
		logger.DebugContext(ctx, "browser step finished",
			slog.String("step", name),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("ok", err == nil))
		return err
	})
}

// Capture renders opts.URL and returns the PNG bytes
func Capture(ctx context.Context, opts Options, logger *slog.Logger) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger = logger.With(slog.String("component", "snapshot"), slog.String("url", opts.URL))

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Page dialogs would block navigation; page exceptions are only logged
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			logger.Warn("dismissing page dialog", slog.String("message", ev.Message))
			go func() {
				_ = chromedp.Run(browserCtx, page.HandleJavaScriptDialog(false))
			}()
		case *runtime.EventExceptionThrown:
			if ev.ExceptionDetails != nil {
				logger.Warn("page script error", slog.String("error", ev.ExceptionDetails.Text))
			}
		}
	})

	start := time.Now()
	var buf []byte
	if err := chromedp.Run(browserCtx, opts.tasks(&buf, logger)); err != nil {
		return nil, apperrors.NewNetworkError("dashboard snapshot failed", err)
	}

	logger.InfoContext(ctx, "snapshot captured",
		slog.Int("bytes", len(buf)),
		slog.Duration("duration", time.Since(start)))
	return buf, nil
}

// CaptureFile is Capture writing the PNG to path
func CaptureFile(ctx context.Context, opts Options, path string, logger *slog.Logger) error {
	buf, err := Capture(ctx, opts, logger)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewStorageError("failed to create snapshot directory", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return apperrors.NewStorageError("failed to write snapshot", err)
	}
	return nil
}
