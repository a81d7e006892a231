// Package models provides the bar data model indicators are evaluated over.
package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Bar represents OHLCV data for a time period.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Validate checks that the bar is finite and internally consistent.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar %s: non-finite price", b.Timestamp.Format(time.RFC3339))
		}
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s: high %.4f below low %.4f", b.Timestamp.Format(time.RFC3339), b.High, b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s: negative volume", b.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// Field selects one derived column of a bar.
type Field string

const (
	FieldOpen     Field = "open"
	FieldHigh     Field = "high"
	FieldLow      Field = "low"
	FieldClose    Field = "close"
	FieldVolume   Field = "volume"
	FieldMedian   Field = "median"   // (high+low)/2
	FieldTypical  Field = "typical"  // (high+low+close)/3
	FieldWeighted Field = "weighted" // (high+low+2*close)/4
)

// Fields lists every selectable column.
func Fields() []Field {
	return []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume, FieldMedian, FieldTypical, FieldWeighted}
}

// ParseField resolves a column name, case-insensitively.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Fields() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown bar field %q", name)
}

// Value returns field f of the bar.
func (b Bar) Value(f Field) float64 {
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldVolume:
		return float64(b.Volume)
	case FieldMedian:
		return (b.High + b.Low) / 2
	case FieldTypical:
		return (b.High + b.Low + b.Close) / 3
	case FieldWeighted:
		return (b.High + b.Low + 2*b.Close) / 4
	default:
		return b.Close
	}
}

// Bars is a time-ordered bar sequence.
type Bars []Bar

// Column extracts field f for every bar.
func (bs Bars) Column(f Field) []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		out[i] = b.Value(f)
	}
	return out
}

// Validate checks every bar and strict timestamp ordering.
func (bs Bars) Validate() error {
	for i, b := range bs {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !b.Timestamp.After(bs[i-1].Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after %s", i,
				b.Timestamp.Format(time.RFC3339), bs[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// SeriesInfo summarises one stored symbol/timeframe series.
type SeriesInfo struct {
	Symbol    string
	Timeframe string
	Bars      int
	First     time.Time
	Last      time.Time
}
