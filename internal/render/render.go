// Package render produces the user-facing forms of a validation report:
// colored terminal text for humans, JSON for machines.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/prism-data/prism/internal/stats"
	"github.com/prism-data/prism/pkg/prism"
)

// Renderer writes reports to a single output stream.
type Renderer struct {
	out   io.Writer
	color bool
}

// New creates a renderer for the given stream. Color is enabled only
// when the stream is a terminal.
func New(out io.Writer) *Renderer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Renderer{out: out, color: color}
}

// NewWithColor creates a renderer with an explicit color choice, used by
// tests and the --no-color flag.
func NewWithColor(out io.Writer, color bool) *Renderer {
	return &Renderer{out: out, color: color}
}

// JSON writes the machine-consumable report.
func (r *Renderer) JSON(report *prism.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

// Text writes the human-readable report: findings grouped in their
// deterministic order, aggregate counts, dataset composition and the
// verdict line.
func (r *Renderer) Text(report *prism.Report, composition *stats.Summary) error {
	findings := report.Findings()
	for _, f := range findings {
		if err := r.writeFinding(f); err != nil {
			return err
		}
	}
	if len(findings) > 0 {
		fmt.Fprintln(r.out)
	}

	if composition != nil {
		fmt.Fprintf(r.out, "%s\n", r.style(MutedStyle, fmt.Sprintf(
			"dataset: %d subjects, %d sessions, %d tasks, %d files",
			composition.Subjects, composition.Sessions, composition.Tasks, composition.Files)))
	}

	summary := report.Summarize()
	fmt.Fprintf(r.out, "findings: %s, %s, %s\n",
		r.count(summary.Errors, "error", ErrorStyle),
		r.count(summary.Warnings, "warning", WarningStyle),
		r.count(summary.Infos, "info", InfoStyle))

	verdict := report.Verdict()
	line := r.style(PassStyle, string(verdict))
	if verdict == prism.VerdictFail {
		line = r.style(FailStyle, string(verdict))
	} else if summary.Warnings > 0 {
		line += r.style(MutedStyle, " (with warnings)")
	}
	_, err := fmt.Fprintf(r.out, "verdict: %s\n", line)
	return err
}

func (r *Renderer) writeFinding(f prism.Finding) error {
	label := r.severityLabel(f.Severity)

	location := f.Path
	if location == "" {
		location = "dataset"
	}
	if f.Field != "" {
		location += " [" + f.Field + "]"
	}

	_, err := fmt.Fprintf(r.out, "%s %s %s: %s\n",
		label,
		r.style(MutedStyle, string(f.Code)),
		r.style(PathStyle, location),
		f.Message)
	return err
}

func (r *Renderer) severityLabel(sev prism.Severity) string {
	switch sev {
	case prism.SeverityError:
		return r.style(ErrorStyle, "ERROR  ")
	case prism.SeverityWarning:
		return r.style(WarningStyle, "WARNING")
	default:
		return r.style(InfoStyle, "INFO   ")
	}
}

func (r *Renderer) count(n int, noun string, style lipgloss.Style) string {
	s := fmt.Sprintf("%d %s", n, noun)
	if n != 1 {
		s += "s"
	}
	if n == 0 {
		return r.style(MutedStyle, s)
	}
	return r.style(style, s)
}

func (r *Renderer) style(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}
