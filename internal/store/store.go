// Package store provides bar persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"indicator-engine/internal/models"
)

// BarStore defines the interface for bar persistence.
type BarStore interface {
	// Bars
	SaveBars(ctx context.Context, symbol, timeframe string, bars models.Bars) error
	GetBars(ctx context.Context, symbol, timeframe string, from, to time.Time) (models.Bars, error)
	GetBarsFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)
	ListSeries(ctx context.Context) ([]models.SeriesInfo, error)
	DeleteSeries(ctx context.Context, symbol, timeframe string) (int64, error)

	// Imports
	RecordImport(ctx context.Context, rec ImportRecord) error
	LastImport(ctx context.Context, symbol, timeframe string) (*ImportRecord, error)

	// Lifecycle
	Close() error
}

// ImportRecord describes one bar import.
type ImportRecord struct {
	Symbol     string
	Timeframe  string
	Source     string
	Bars       int
	ImportedAt time.Time
}
