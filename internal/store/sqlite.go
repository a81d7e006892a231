package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/models"
)

// SQLiteStore implements BarStore using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.RWMutex
	imports map[string]ImportRecord
}

// NewSQLiteStore creates a new SQLite-based bar store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:      db,
		imports: make(map[string]ImportRecord),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Bars table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_bars_series ON bars(symbol, timeframe, timestamp);

	-- Import history
	CREATE TABLE IF NOT EXISTS imports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		source TEXT NOT NULL,
		bars INTEGER NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Bars Methods
// ============================================================================

// SaveBars saves bars to the database, replacing bars with the same timestamp.
func (s *SQLiteStore) SaveBars(ctx context.Context, symbol, timeframe string, bars models.Bars) error {
	if len(bars) == 0 {
		return nil
	}
	if strings.TrimSpace(symbol) == "" || strings.TrimSpace(timeframe) == "" {
		return apperrors.NewValidationError("series", symbol+"/"+timeframe, "symbol and timeframe are required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewDataError("bars", symbol, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.NewDataError("bars", symbol, "failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, symbol, timeframe, b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return apperrors.NewDataError("bars", symbol, "failed to insert bar", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewDataError("bars", symbol, "failed to commit transaction", err)
	}

	return nil
}

// GetBars retrieves bars in [from, to] ordered by time. A zero from or to
// leaves that side unbounded. An unknown series yields ErrDataNotFound.
func (s *SQLiteStore) GetBars(ctx context.Context, symbol, timeframe string, from, to time.Time) (models.Bars, error) {
	query := `
		SELECT timestamp, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND timeframe = ?`
	args := []interface{}{symbol, timeframe}
	if !from.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, to.UTC())
	}
	query += " ORDER BY timestamp ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDataError("bars", symbol, "failed to query bars", err)
	}
	defer rows.Close()

	var bars models.Bars
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, apperrors.NewDataError("bars", symbol, "failed to scan bar", err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataError("bars", symbol, "error iterating bars", err)
	}
	if len(bars) == 0 {
		return nil, apperrors.NewDataError("bars", symbol, "no bars for "+timeframe, apperrors.ErrDataNotFound)
	}

	return bars, nil
}

// GetBarsFreshness returns the timestamp of the most recent bar.
func (s *SQLiteStore) GetBarsFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	var timestamp sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(timestamp) FROM bars WHERE symbol = ? AND timeframe = ?
	`, symbol, timeframe).Scan(&timestamp)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, apperrors.NewDataError("bars", symbol, "failed to get bars freshness", err)
	}
	if !timestamp.Valid {
		return time.Time{}, nil
	}
	return parseStoredTime(timestamp.String)
}

// ListSeries summarises every stored symbol/timeframe pair.
func (s *SQLiteStore) ListSeries(ctx context.Context) ([]models.SeriesInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, timeframe, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM bars
		GROUP BY symbol, timeframe
		ORDER BY symbol, timeframe
	`)
	if err != nil {
		return nil, apperrors.NewDataError("series", "", "failed to list series", err)
	}
	defer rows.Close()

	var out []models.SeriesInfo
	for rows.Next() {
		var info models.SeriesInfo
		var first, last string
		if err := rows.Scan(&info.Symbol, &info.Timeframe, &info.Bars, &first, &last); err != nil {
			return nil, apperrors.NewDataError("series", "", "failed to scan series", err)
		}
		if info.First, err = parseStoredTime(first); err != nil {
			return nil, err
		}
		if info.Last, err = parseStoredTime(last); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSeries removes every bar of a series and returns how many were removed.
func (s *SQLiteStore) DeleteSeries(ctx context.Context, symbol, timeframe string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bars WHERE symbol = ? AND timeframe = ?`, symbol, timeframe)
	if err != nil {
		return 0, apperrors.NewDataError("bars", symbol, "failed to delete series", err)
	}
	return res.RowsAffected()
}

// Aggregates come back as text rather than DATETIME-typed columns.
var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewDataError("bars", "", fmt.Sprintf("unparseable timestamp %q", s), apperrors.ErrDatabaseError)
}

// ============================================================================
// Import Methods
// ============================================================================

func importKey(symbol, timeframe string) string {
	return symbol + "/" + timeframe
}

// RecordImport stores an import record.
func (s *SQLiteStore) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (symbol, timeframe, source, bars, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Symbol, rec.Timeframe, rec.Source, rec.Bars, rec.ImportedAt.UTC())
	if err != nil {
		return apperrors.NewDataError("imports", rec.Symbol, "failed to record import", err)
	}

	s.mu.Lock()
	s.imports[importKey(rec.Symbol, rec.Timeframe)] = rec
	s.mu.Unlock()

	return nil
}

// LastImport returns the most recent import of a series, or nil when there
// is none.
func (s *SQLiteStore) LastImport(ctx context.Context, symbol, timeframe string) (*ImportRecord, error) {
	s.mu.RLock()
	if rec, ok := s.imports[importKey(symbol, timeframe)]; ok {
		s.mu.RUnlock()
		return &rec, nil
	}
	s.mu.RUnlock()

	rec := ImportRecord{Symbol: symbol, Timeframe: timeframe}
	err := s.db.QueryRowContext(ctx, `
		SELECT source, bars, imported_at FROM imports
		WHERE symbol = ? AND timeframe = ?
		ORDER BY imported_at DESC, id DESC LIMIT 1
	`, symbol, timeframe).Scan(&rec.Source, &rec.Bars, &rec.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewDataError("imports", symbol, "failed to read import history", err)
	}

	s.mu.Lock()
	s.imports[importKey(symbol, timeframe)] = rec
	s.mu.Unlock()

	return &rec, nil
}
