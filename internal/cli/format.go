package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"indicator-engine/internal/analysis/indicators"
)

// FormatValue renders v with exactly precision decimal places, rounding half
// away from zero. Non-finite values render as NaN, +Inf and -Inf.
func FormatValue(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	if precision < 0 {
		precision = 0
	}
	return decimal.NewFromFloat(v).StringFixed(int32(precision))
}

// RoundValue rounds v like FormatValue. Non-finite values give nil so they
// encode as JSON null.
func RoundValue(v float64, precision int) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	if precision < 0 {
		precision = 0
	}
	r, _ := decimal.NewFromFloat(v).Round(int32(precision)).Float64()
	return &r
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatVolume formats volume in compact form.
func FormatVolume(volume int64) string {
	switch {
	case volume >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(volume)/1e9)
	case volume >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(volume)/1e6)
	case volume >= 1000:
		return fmt.Sprintf("%.2fK", float64(volume)/1e3)
	}
	return fmt.Sprintf("%d", volume)
}

// FormatTime formats a bar time in UTC. Midnight times print as dates.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

// FormatParamValue renders a parameter value the way it is typed on the
// command line.
func FormatParamValue(spec indicators.ParamSpec, v float64) string {
	switch spec.Type {
	case indicators.ChoiceParam:
		if i := int(v); i >= 0 && i < len(spec.Choices) {
			return spec.Choices[i]
		}
	case indicators.BoolParam:
		return strconv.FormatBool(v != 0)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatParamRange renders the accepted values of a parameter.
func FormatParamRange(spec indicators.ParamSpec) string {
	switch spec.Type {
	case indicators.ChoiceParam:
		return strings.Join(spec.Choices, "|")
	case indicators.BoolParam:
		return "true|false"
	}
	return fmt.Sprintf("%s..%s", strconv.FormatFloat(spec.Min, 'g', -1, 64), strconv.FormatFloat(spec.Max, 'g', -1, 64))
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
