package services

import (
	"errors"
	"fmt"
	"net/http"

	"strakdash/internal/dashboard"
	"strakdash/internal/dataset"
	apperrors "strakdash/internal/errors"
)

// Service errors
var (
	ErrStoreNotReady   = errors.New("dashboard store not loaded")
	ErrNoYearColumn    = errors.New("dataset has no year column")
	ErrPartialRange    = dashboard.ErrPartialRange
	ErrInvalidEventTab = errors.New("tab_selected requires a tab")
	ErrTextYearColumn  = errors.New("year column is not numeric")
)

// translate maps dashboard and dataset errors to API errors. Errors it does
// not recognise are wrapped and surface as internal errors.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var missing *dataset.MissingColumnError
	switch {
	case errors.Is(err, dashboard.ErrUnknownEvent):
		return apperrors.New(http.StatusBadRequest, "UNKNOWN_EVENT", err.Error())
	case errors.Is(err, dashboard.ErrUnknownTab):
		return apperrors.ErrValidation("tab", err.Error())
	case errors.Is(err, dashboard.ErrMissingRange), errors.Is(err, ErrPartialRange):
		return apperrors.ErrValidation("min_year", err.Error())
	case errors.Is(err, dashboard.ErrRangeInverted):
		return apperrors.ErrValidation("min_year", err.Error())
	case errors.Is(err, dashboard.ErrRangeOutside):
		return apperrors.ErrValidation("max_year", err.Error())
	case errors.Is(err, ErrInvalidEventTab):
		return apperrors.ErrValidation("tab", err.Error())
	case errors.Is(err, ErrNoYearColumn), errors.Is(err, ErrTextYearColumn):
		return apperrors.ErrValidation("year_column", err.Error())
	case errors.As(err, &missing):
		return apperrors.ErrValidation("year_column", missing.Error())
	case errors.Is(err, ErrStoreNotReady):
		return apperrors.ErrServiceUnavailable
	}
	return fmt.Errorf("dashboard: %w", err)
}
