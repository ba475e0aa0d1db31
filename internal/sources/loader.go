package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
)

// Tables holds loaded datasets by name
type Tables map[string]*dataset.Table

// LoadObserver is told about every dataset load, successful or not
type LoadObserver interface {
	DatasetLoaded(ctx context.Context, name string, rows int, elapsed time.Duration, err error)
}

// Loader fetches and normalizes catalog entries
type Loader struct {
	opts     Options
	logger   *slog.Logger
	observer LoadObserver
	tracer   trace.Tracer
}

// NewLoader creates a loader. observer may be nil.
func NewLoader(opts Options, logger *slog.Logger, observer LoadObserver) *Loader {
	return &Loader{
		opts:     opts,
		logger:   logger.With(slog.String("component", "loader")),
		observer: observer,
		tracer:   otel.Tracer("strakdash/sources"),
	}
}

// Load fetches and normalizes one named entry of cat
func (l *Loader) Load(ctx context.Context, cat *Catalog, name string) (*dataset.Table, error) {
	e, ok := cat.Entry(name)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("dataset %q", name))
	}
	return l.load(ctx, e, cat.URI(e))
}

// LoadAll loads every entry of cat concurrently. The first failure cancels
// the remaining loads and is returned; no partial result is produced.
func (l *Loader) LoadAll(ctx context.Context, cat *Catalog) (Tables, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(Tables, len(cat.Datasets))
	for _, e := range cat.Datasets {
		g.Go(func() error {
			t, err := l.load(gctx, e, cat.URI(e))
			if err != nil {
				return err
			}
			mu.Lock()
			out[e.Name] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
		return nil, err
	}

	l.logger.InfoContext(ctx, "all datasets loaded",
		slog.Int("count", len(out)),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func (l *Loader) load(ctx context.Context, e Entry, uri string) (t *dataset.Table, err error) {
	ctx, span := l.tracer.Start(ctx, "dataset.load", trace.WithAttributes(
		attribute.String("dataset.name", e.Name),
		attribute.String("dataset.uri", uri),
	))
	start := time.Now()
	defer func() {
		rows := 0
		if t != nil {
			rows = t.Len()
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("dataset.rows", rows))
		}
		span.End()
		if l.observer != nil {
			l.observer.DatasetLoaded(ctx, e.Name, rows, time.Since(start), err)
		}
	}()

	src, err := Resolve(uri, l.opts)
	if err != nil {
		return nil, apperrors.NewConfigError("resolve source", err).WithContext("dataset", e.Name)
	}

	raw, err := src.Load(ctx)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("dataset", e.Name)
			return nil, fmt.Errorf("load %s: %w", e.Name, appErr)
		}
		return nil, fmt.Errorf("load %s: %w", e.Name, err)
	}

	t, err = dataset.Normalize(raw, e.Normalize)
	if err != nil {
		perr := apperrors.NewParsingError("normalize", err).WithContext("dataset", e.Name)
		var ce *dataset.CoercionError
		if errors.As(err, &ce) {
			perr.WithContext("column", ce.Column).WithContext("row", ce.Row).WithContext("value", ce.Value)
		}
		return nil, fmt.Errorf("load %s: %w", e.Name, perr)
	}

	l.logger.DebugContext(ctx, "dataset loaded",
		slog.String("dataset", e.Name),
		slog.String("uri", uri),
		slog.Int("rows", t.Len()),
		slog.Duration("duration", time.Since(start)))
	return t, nil
}
