package http

import (
	"context"

	"strakdash/internal/dashboard"
	"strakdash/internal/dataset"
	"strakdash/internal/services"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	Pages(ctx context.Context) []dashboard.Tab
	Page1(ctx context.Context, minYear, maxYear *int) (*dashboard.Page1, error)
	Page2(ctx context.Context) (*dashboard.Page2, error)
	Dispatch(ctx context.Context, ev dashboard.Event) (*dashboard.Result, error)
	Datasets(ctx context.Context) ([]services.DatasetSummary, error)
	Dataset(ctx context.Context, q services.DatasetQuery) (*dataset.Table, error)
}
