// Package report renders validation diagnostics and run summaries for a
// terminal.
package report

import (
	"fmt"
	"io"
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/gookit/color"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jmylchreest/oggkit/internal/merge"
	"github.com/jmylchreest/oggkit/internal/validate"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var printer = message.NewPrinter(language.English)

// UseColor resolves a color mode for f. In auto mode color is used only when
// f is a terminal.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return f != nil && term.IsTerminal(int(f.Fd()))
	}
}

// Options configures a Renderer.
type Options struct {
	// Program prefixes tool-level messages.
	Program string
	Color   bool
	// MultiFile announces the file name before the first error of each file.
	MultiFile bool
}

// Renderer writes diagnostics as they are reported.
type Renderer struct {
	w    io.Writer
	opts Options

	file       string
	fileErrors int
	files      int
	failed     int
	errors     int64
}

// New returns a Renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	if opts.Program == "" {
		opts.Program = "oggkit"
	}
	return &Renderer{w: w, opts: opts}
}

func (r *Renderer) paint(code, s string) string {
	if !r.opts.Color {
		return s
	}
	return color.RenderString(code, s)
}

// StartFile begins the diagnostics of one input.
func (r *Renderer) StartFile(name string) {
	r.file = name
	r.fileErrors = 0
	r.files++
}

// Diagnostic renders one validation error.
func (r *Renderer) Diagnostic(d validate.Diagnostic) {
	if r.opts.MultiFile && r.fileErrors == 0 {
		fmt.Fprintf(r.w, "%s: %s\n", r.file, r.paint(color.Error.Code(), "Error:"))
	}
	r.fileErrors++
	r.errors++

	code := color.Warn.Code()
	switch d.Kind {
	case validate.EmptyFile, validate.MissingEos, validate.MissingBos, validate.EosWithoutBos:
		code = color.Error.Code()
	}
	fmt.Fprintln(r.w, r.paint(code, d.String()))
}

// EndFile closes the diagnostics of the current input.
func (r *Renderer) EndFile(failed bool) {
	if failed {
		r.failed++
	}
}

// Bail reports that the error budget stopped validation of the current file.
func (r *Renderer) Bail() {
	fmt.Fprintf(r.w, "%s: %s\n", r.opts.Program,
		r.paint(color.Error.Code(), "maximum error count reached, bailing out ..."))
}

// OpenFailure reports an input that could not be opened.
func (r *Renderer) OpenFailure(name string, err error) {
	fmt.Fprintf(r.w, "%s: %s\n", r.opts.Program,
		r.paint(color.Error.Code(), fmt.Sprintf("unable to open file %s: %v", name, err)))
}

// Summary writes totals for the validated files.
func (r *Renderer) Summary() {
	msg := printer.Sprintf("%d file(s) checked, %d failed, %d error(s)", r.files, r.failed, r.errors)
	code := color.Green.Code()
	if r.failed > 0 {
		code = color.Error.Code()
	}
	fmt.Fprintln(r.w, r.paint(code, msg))
}

// ListKinds writes the description of every detectable error.
func ListKinds(w io.Writer) {
	for _, k := range validate.Kinds() {
		fmt.Fprintf(w, "  %s\n", k.Description())
	}
}

// MergeSummary describes a completed merge.
func MergeSummary(stats merge.Stats) string {
	return printer.Sprintf("merged %d input(s): %d pages, %s written",
		stats.Inputs, stats.Pages, bytefmt.ByteSize(uint64(max(stats.Bytes, 0))))
}
