package store

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/models"
)

// csvTimeLayouts are tried in order when reading the time column.
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseCSVTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("time", s, "expected RFC3339, 2006-01-02 15:04:05 or 2006-01-02")
}

type csvBar struct {
	Time   string  `csv:"time"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume int64   `csv:"volume"`
}

// LoadBarsCSV reads bars with the header time,open,high,low,close,volume and
// validates them.
func LoadBarsCSV(r io.Reader) (models.Bars, error) {
	var rows []*csvBar
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInputValidation, "parse bars csv: "+err.Error())
	}
	bars := make(models.Bars, len(rows))
	for i, row := range rows {
		ts, err := parseCSVTime(row.Time)
		if err != nil {
			return nil, apperrors.Wrapf(err, "row %d", i+1)
		}
		bars[i] = models.Bar{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		}
	}
	if err := bars.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInputValidation, err.Error())
	}
	return bars, nil
}

// LoadBarsFile reads a bar CSV file from disk.
func LoadBarsFile(path string) (models.Bars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError("csv", path, "failed to open file", err)
	}
	defer f.Close()
	return LoadBarsCSV(f)
}

// WriteBarsCSV writes bars in the format LoadBarsCSV reads.
func WriteBarsCSV(w io.Writer, bars models.Bars) error {
	rows := make([]*csvBar, len(bars))
	for i, b := range bars {
		rows[i] = &csvBar{
			Time:   b.Timestamp.UTC().Format(time.RFC3339),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return gocsv.Marshal(rows, w)
}

// WriteTableCSV writes a header and rows of pre-formatted cells. Columns
// vary with the indicator's outputs, so there is no struct to marshal.
func WriteTableCSV(w io.Writer, header []string, rows [][]string) error {
	out := csv.NewWriter(w)
	if err := out.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
