// Package output renders flowctl results: status lines, JSON dumps, and
// aligned tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/flowsight-systems/flowsight-stack/cli/pkg/color"
)

// Stdout and Stderr are swappable so tests can capture output.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var (
	successStyle = color.New(color.FgGreen, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	infoStyle    = color.New(color.FgCyan)
	warnStyle    = color.New(color.FgYellow)
	headerStyle  = color.New(color.FgWhite, color.Bold)
)

// Success prints a checkmarked status line.
func Success(format string, a ...interface{}) {
	successStyle.Fprintf(Stdout, "✓ "+format+"\n", a...)
}

// Error prints a failure line to stderr.
func Error(format string, a ...interface{}) {
	errorStyle.Fprintf(Stderr, "✗ "+format+"\n", a...)
}

// Info prints an informational line.
func Info(format string, a ...interface{}) {
	infoStyle.Fprintf(Stdout, format+"\n", a...)
}

// Warn prints a warning line.
func Warn(format string, a ...interface{}) {
	warnStyle.Fprintf(Stdout, "⚠ "+format+"\n", a...)
}

// JSON pretty-prints v for --json output.
func JSON(v interface{}) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table accumulates rows and renders them with each column padded to its
// widest cell.
type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{headers: headers}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	cells := make([]string, len(t.headers))
	for i, h := range t.headers {
		cells[i] = fmt.Sprintf("%-*s", widths[i], h)
	}
	headerStyle.Fprintf(Stdout, "%s\n", strings.Join(cells, "  "))

	for i, w := range widths {
		cells[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(Stdout, strings.Join(cells, "  "))

	for _, row := range t.rows {
		for i := range cells {
			cells[i] = strings.Repeat(" ", widths[i])
			if i < len(row) {
				cells[i] = fmt.Sprintf("%-*s", widths[i], row[i])
			}
		}
		fmt.Fprintln(Stdout, strings.Join(cells, "  "))
	}
}
