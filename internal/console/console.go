// Package console prints the user-facing status lines of mcpchat.
//
// Status lines go to stdout with an emoji prefix; diagnostics go through
// log/slog on stderr instead.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

const (
	iconWarn    = "⚠️"
	iconOK      = "✅"
	iconError   = "❌"
	iconConnect = "🔗"
	iconTool    = "🔧"
	iconAgent   = "🤖"
	iconBye     = "👋"
)

var (
	warnColor    = color.New(color.FgYellow)
	okColor      = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	connectColor = color.New(color.FgCyan)
	toolColor    = color.New(color.FgBlue)
	agentColor   = color.New(color.FgMagenta, color.Bold)
)

// Printer writes status lines to a single writer.
type Printer struct {
	out io.Writer
}

// New returns a Printer writing to w. A nil w means stdout.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.out }

// Break writes an empty line.
func (p *Printer) Break() {
	fmt.Fprintln(p.out)
}

// Println writes an uncolored line.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted text without a trailing newline.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

func (p *Printer) Warnf(format string, a ...any)    { p.line(warnColor, iconWarn, format, a) }
func (p *Printer) Successf(format string, a ...any) { p.line(okColor, iconOK, format, a) }
func (p *Printer) Errorf(format string, a ...any)   { p.line(errorColor, iconError, format, a) }
func (p *Printer) Connectf(format string, a ...any) { p.line(connectColor, iconConnect, format, a) }
func (p *Printer) Toolf(format string, a ...any)    { p.line(toolColor, iconTool, format, a) }
func (p *Printer) Agentf(format string, a ...any)   { p.line(agentColor, iconAgent, format, a) }
func (p *Printer) Byef(format string, a ...any)     { p.line(nil, iconBye, format, a) }

func (p *Printer) line(c *color.Color, icon, format string, a []any) {
	msg := icon + " " + fmt.Sprintf(format, a...)
	if c == nil {
		fmt.Fprintln(p.out, msg)
		return
	}
	c.Fprintln(p.out, msg)
}
