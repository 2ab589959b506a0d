package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tpp/internal/source"
)

// PrettyOpts configures human-readable diagnostic rendering.
type PrettyOpts struct {
	Color bool
	// Context is how many source lines to print under each diagnostic:
	// the offending line (caret-underlined) plus up to Context-1 lines
	// before it. Zero prints none.
	Context int
}

var (
	prettyErrorColor   = color.New(color.FgRed, color.Bold)
	prettyWarningColor = color.New(color.FgYellow, color.Bold)
	prettyInfoColor    = color.New(color.FgCyan)
	prettyLocColor     = color.New(color.FgWhite, color.Bold)
)

// Pretty renders each diagnostic as
//
//	<path>:<line>:<col>: <SEVERITY> <CODE>: <message>
//
// optionally followed by the source line and a caret underline covering the
// primary span. Callers are expected to Sort the bag first.
func Pretty(w io.Writer, bag *Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	for _, d := range bag.Items() {
		file := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)

		loc := fmt.Sprintf("%s:%d:%d:", file.Path, start.Line, start.Col)
		sev := d.Severity.String()
		if opts.Color {
			loc = prettyLocColor.Sprint(loc)
			sev = severityColor(d.Severity).Sprint(sev)
		}
		fmt.Fprintf(w, "%s %s %s: %s\n", loc, sev, d.Code.ID(), d.Message)

		if opts.Context > 0 {
			writeContext(w, file, d.Primary, start, opts.Context)
		}
		for _, note := range d.Notes {
			nfile := fs.Get(note.Span.File)
			nstart, _ := fs.Resolve(note.Span)
			fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", nfile.Path, nstart.Line, nstart.Col, note.Msg)
		}
	}
}

func severityColor(sev Severity) *color.Color {
	switch sev {
	case SevError:
		return prettyErrorColor
	case SevWarning:
		return prettyWarningColor
	default:
		return prettyInfoColor
	}
}

func writeContext(w io.Writer, file *source.File, span source.Span, start source.LineCol, lines int) {
	first := int(start.Line) - lines + 1
	if first < 1 {
		first = 1
	}
	for ln := first; ln < int(start.Line); ln++ {
		if text := lineText(file, uint32(ln)); text != "" {
			fmt.Fprintf(w, "  %s\n", text)
		}
	}

	line := lineText(file, start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	caretLen := int(span.Len())
	if caretLen < 1 {
		caretLen = 1
	}
	maxLen := len(line) - int(start.Col) + 1
	if caretLen > maxLen {
		caretLen = maxLen
	}
	if caretLen < 1 {
		return
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", int(start.Col)-1), strings.Repeat("^", caretLen))
}

func lineText(f *source.File, lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	var start, end int
	switch {
	case lineNum == 1:
		start = 0
	case int(lineNum-2) < len(f.LineIdx):
		start = int(f.LineIdx[lineNum-2]) + 1
	default:
		return ""
	}
	if int(lineNum-1) < len(f.LineIdx) {
		end = int(f.LineIdx[lineNum-1])
	} else {
		end = len(f.Content)
	}
	if start >= len(f.Content) || start > end {
		return ""
	}
	return string(f.Content[start:end])
}
