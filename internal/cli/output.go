// Package cli provides the command-line interface for the indicator engine.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"indicator-engine/internal/store"
)

// Terminal styles
var (
	styleSuccess = color.New(color.FgGreen)
	styleError   = color.New(color.FgRed)
	styleWarning = color.New(color.FgYellow)
	styleInfo    = color.New(color.FgCyan)
	styleBold    = color.New(color.Bold)
	styleDim     = color.New(color.Faint)
)

// Output handles formatted output for the CLI. Values go to the command's
// stdout; warnings and errors go to its stderr.
type Output struct {
	writer       io.Writer
	errWriter    io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		errWriter:    cmd.ErrOrStderr(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// Writer returns the value stream.
func (o *Output) Writer() io.Writer {
	return o.writer
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.styled(o.writer, styleSuccess, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.styled(o.errWriter, styleError, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.styled(o.errWriter, styleWarning, format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.styled(o.writer, styleInfo, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.styled(o.writer, styleBold, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.styled(o.writer, styleDim, format, args...)
}

func (o *Output) styled(w io.Writer, style *color.Color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if o.colorEnabled {
		msg = style.Sprint(msg)
	}
	fmt.Fprintln(w, msg)
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := utf8.RuneCountInString(cell); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	t.printRow(t.headers, widths, styleBold)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, nil)
	}
}

// RenderCSV writes the table as CSV.
func (t *Table) RenderCSV() error {
	return store.WriteTableCSV(t.output.writer, t.headers, t.rows)
}

func (t *Table) printRow(cells []string, widths []int, style *color.Color) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padding := widths[i] - utf8.RuneCountInString(cell)
			if padding < 0 {
				padding = 0
			}
			padded := cell + strings.Repeat(" ", padding)
			if style != nil && t.output.colorEnabled {
				padded = style.Sprint(padded)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	sep := strings.Join(parts, "──")
	if t.output.colorEnabled {
		sep = styleDim.Sprint(sep)
	}
	t.output.Println(sep)
}
