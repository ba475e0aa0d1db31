package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"strakdash/internal/dashboard"
	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
	"strakdash/internal/sources"
)

// RecomputeRecorder is told about every dispatched dashboard event
type RecomputeRecorder interface {
	Recomputed(ctx context.Context, event string, err error)
}

// DashboardService serves page payloads and datasets from a loaded Store
type DashboardService struct {
	store      *dashboard.Store
	dispatcher *dashboard.Dispatcher
	catalog    *sources.Catalog
	recorder   RecomputeRecorder
	logger     *slog.Logger
}

// DatasetSummary describes one table held by the store
type DatasetSummary struct {
	Name        string           `json:"name"`
	Source      string           `json:"source"`
	Description string           `json:"description,omitempty"`
	YearColumn  string           `json:"year_column,omitempty"`
	Rows        int              `json:"rows"`
	Columns     []dataset.Column `json:"columns"`
}

// DatasetQuery selects rows of one dataset. A nil bound means the whole table;
// both bounds must be given together.
type DatasetQuery struct {
	Name       string
	MinYear    *int
	MaxYear    *int
	YearColumn string
}

// NewDashboardService creates the service. recorder may be nil.
func NewDashboardService(store *dashboard.Store, catalog *sources.Catalog, recorder RecomputeRecorder, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = sources.DefaultCatalog()
	}
	svc := &DashboardService{
		store:    store,
		catalog:  catalog,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
	if store != nil {
		svc.dispatcher = dashboard.NewDispatcher(store)
	}
	return svc
}

// Ready reports whether the store is loaded
func (s *DashboardService) Ready() bool {
	return s.store != nil
}

// Store returns the underlying store
func (s *DashboardService) Store() *dashboard.Store {
	return s.store
}

// Pages returns the tab list
func (s *DashboardService) Pages(_ context.Context) []dashboard.Tab {
	out := make([]dashboard.Tab, len(dashboard.Tabs))
	copy(out, dashboard.Tabs)
	return out
}

// EventTypes lists the event types the dispatcher accepts
func (s *DashboardService) EventTypes() []dashboard.EventType {
	if s.dispatcher == nil {
		return nil
	}
	return s.dispatcher.Types()
}

// Range resolves optional bounds against the store domain. Both nil means the
// full domain; a single bound is rejected.
func (s *DashboardService) Range(minYear, maxYear *int) (dashboard.Range, error) {
	if s.store == nil {
		return dashboard.Range{}, translate(ErrStoreNotReady)
	}
	switch {
	case minYear == nil && maxYear == nil:
		return s.store.Domain(), nil
	case minYear == nil || maxYear == nil:
		return dashboard.Range{}, translate(ErrPartialRange)
	}
	r := dashboard.Range{MinYear: *minYear, MaxYear: *maxYear}
	if err := s.store.CheckRange(r); err != nil {
		return dashboard.Range{}, translate(err)
	}
	return r, nil
}

// Page1 computes page 1 for the given bounds
func (s *DashboardService) Page1(ctx context.Context, minYear, maxYear *int) (*dashboard.Page1, error) {
	r, err := s.Range(minYear, maxYear)
	if err != nil {
		return nil, err
	}
	page, err := s.store.Page1(r)
	if err != nil {
		s.logger.ErrorContext(ctx, "page 1 failed",
			slog.String("range", r.String()),
			slog.String("error", err.Error()))
		return nil, translate(err)
	}
	return page, nil
}

// Page2 computes page 2
func (s *DashboardService) Page2(ctx context.Context) (*dashboard.Page2, error) {
	if s.store == nil {
		return nil, translate(ErrStoreNotReady)
	}
	page, err := s.store.Page2()
	if err != nil {
		s.logger.ErrorContext(ctx, "page 2 failed", slog.String("error", err.Error()))
		return nil, translate(err)
	}
	return page, nil
}

// Dispatch runs one dashboard event and records the recompute
func (s *DashboardService) Dispatch(ctx context.Context, ev dashboard.Event) (*dashboard.Result, error) {
	if s.dispatcher == nil {
		return nil, translate(ErrStoreNotReady)
	}
	if ev.Type == dashboard.EventTabSelected && ev.Tab == "" {
		return nil, translate(ErrInvalidEventTab)
	}

	start := time.Now()
	res, err := s.dispatcher.Dispatch(ctx, ev)
	if s.recorder != nil {
		s.recorder.Recomputed(ctx, string(ev.Type), err)
	}
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownEvent) {
			return nil, apperrors.UnknownEventError(string(ev.Type))
		}
		s.logger.WarnContext(ctx, "dashboard event rejected",
			slog.String("event", string(ev.Type)),
			slog.String("error", err.Error()))
		return nil, translate(err)
	}

	s.logger.DebugContext(ctx, "dashboard event handled",
		slog.String("event", string(ev.Type)),
		slog.String("tab", res.Tab),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// Datasets summarises every table in the store, sorted by name
func (s *DashboardService) Datasets(_ context.Context) ([]DatasetSummary, error) {
	if s.store == nil {
		return nil, translate(ErrStoreNotReady)
	}
	names := s.store.Names()
	out := make([]DatasetSummary, 0, len(names))
	for _, name := range names {
		t, _ := s.store.Table(name)
		sum := DatasetSummary{
			Name:    name,
			Rows:    t.Len(),
			Columns: t.Columns(),
		}
		if e, ok := s.catalog.Entry(name); ok {
			sum.Source = s.catalog.URI(e)
			sum.Description = e.Description
			sum.YearColumn = e.YearColumn
		} else if name == dashboard.MergedName {
			sum.Source = "derived"
			sum.Description = "Price rows with timeline remarks"
			sum.YearColumn = dashboard.ColYear
		}
		out = append(out, sum)
	}
	return out, nil
}

// Dataset returns the rows of one table, filtered by year when q has bounds
func (s *DashboardService) Dataset(ctx context.Context, q DatasetQuery) (*dataset.Table, error) {
	if s.store == nil {
		return nil, translate(ErrStoreNotReady)
	}
	t, ok := s.store.Table(q.Name)
	if !ok {
		return nil, apperrors.DatasetNotFoundError(q.Name)
	}

	switch {
	case q.MinYear == nil && q.MaxYear == nil:
		return t, nil
	case q.MinYear == nil || q.MaxYear == nil:
		return nil, translate(ErrPartialRange)
	case *q.MinYear > *q.MaxYear:
		return nil, translate(fmt.Errorf("%w: %d-%d", dashboard.ErrRangeInverted, *q.MinYear, *q.MaxYear))
	}

	col := s.yearColumn(q)
	if col == "" {
		return nil, translate(fmt.Errorf("%w: %s", ErrNoYearColumn, q.Name))
	}
	kind, err := t.Kind(col)
	if err != nil {
		return nil, translate(err)
	}
	if kind == dataset.KindText {
		return nil, translate(fmt.Errorf("%w: %s", ErrTextYearColumn, col))
	}

	filtered, err := dataset.FilterRange(t, col, float64(*q.MinYear), float64(*q.MaxYear))
	if err != nil {
		return nil, translate(err)
	}
	s.logger.DebugContext(ctx, "dataset filtered",
		slog.String("dataset", q.Name),
		slog.String("year_column", col),
		slog.Int("rows", filtered.Len()))
	return filtered, nil
}

func (s *DashboardService) yearColumn(q DatasetQuery) string {
	if q.YearColumn != "" {
		return q.YearColumn
	}
	if e, ok := s.catalog.Entry(q.Name); ok {
		return e.YearColumn
	}
	if q.Name == dashboard.MergedName {
		return dashboard.ColYear
	}
	return ""
}
