// Package output provides consistent CLI output formatting, including the
// search result table.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/hayatlabs/multiret/internal/search"
)

// PreviewLength is the maximum rune count for text previews in the result
// table; longer text is cut and suffixed with an ellipsis.
const PreviewLength = 180

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Results prints fused search results: a compact row per result, then the
// full text of the top hit.
func (w *Writer) Results(results []search.ScoredResult) {
	if len(results) == 0 {
		w.Status("", "no results")
		return
	}

	for _, r := range results {
		_, _ = fmt.Fprintf(w.out, "%2d. [%.4f] %s (%s)  %s\n",
			r.Rank, r.Score, r.DocID, r.Lang, Preview(r.Text))
		if r.Translation != "" {
			_, _ = fmt.Fprintf(w.out, "    ↳ %s\n", Preview(r.Translation))
		}
	}

	top := results[0]
	w.Newline()
	w.Statusf("", "top result (%s):", top.DocID)
	w.Status("", top.Text)
	if top.Translation != "" {
		w.Status("", "translation: "+top.Translation)
	}
}

// Preview truncates text to PreviewLength runes.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return strings.TrimSpace(string(runes[:PreviewLength])) + "…"
}

// Progress prints a progress bar with message, updating in place.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	bar := renderProgressBar(current, total, 30)
	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", bar, pct, msg)

	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// renderProgressBar creates a text progress bar.
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	pct := float64(current) / float64(total)
	filled := int(pct * float64(width))

	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
