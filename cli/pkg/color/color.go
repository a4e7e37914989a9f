// Package color renders ANSI-styled terminal text for flowctl output.
// Styling follows the NO_COLOR convention (https://no-color.org): set the
// environment variable and every Color degrades to plain text.
package color

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const reset = "\033[0m"

// SGR parameters.
const (
	Bold = 1
	Dim  = 2

	FgRed    = 31
	FgGreen  = 32
	FgYellow = 33
	FgCyan   = 36
	FgWhite  = 37
)

// Disabled turns every Color into a plain-text passthrough.
var Disabled = os.Getenv("NO_COLOR") != ""

// Color is an immutable set of SGR parameters, precompiled into the escape
// prefix at construction.
type Color struct {
	prefix string
}

// New builds a Color from SGR parameters. No parameters means no styling.
func New(params ...int) *Color {
	if len(params) == 0 {
		return &Color{}
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = strconv.Itoa(p)
	}
	return &Color{prefix: "\033[" + strings.Join(parts, ";") + "m"}
}

// Sprintf formats like fmt.Sprintf and wraps the result in this color's
// escape codes, unless styling is disabled.
func (c *Color) Sprintf(format string, a ...interface{}) string {
	s := fmt.Sprintf(format, a...)
	if Disabled || c.prefix == "" {
		return s
	}
	return c.prefix + s + reset
}

// Fprintf writes styled formatted output to w.
func (c *Color) Fprintf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprint(w, c.Sprintf(format, a...))
}
