package cli

import (
	"os"

	"github.com/prism-data/prism/internal/render"
	"github.com/prism-data/prism/internal/stats"
	"github.com/prism-data/prism/pkg/prism"
)

// renderReport writes the report to stdout in the form the validate
// flags ask for.
func renderReport(report *prism.Report, composition *stats.Summary) error {
	if validateFlags.jsonOut {
		return render.New(os.Stdout).JSON(report)
	}

	r := render.New(os.Stdout)
	if validateFlags.noColor {
		r = render.NewWithColor(os.Stdout, false)
	}
	return r.Text(report, composition)
}

// renderFindings wraps loose findings in a report so the library
// commands share the validate output path.
func renderFindings(findings []prism.Finding, schemaVersion string, jsonOut, noColor bool) error {
	report := prism.NewReport()
	report.SchemaVersion = schemaVersion
	report.Accumulate(findings...)

	if jsonOut {
		return render.New(os.Stdout).JSON(report)
	}
	r := render.New(os.Stdout)
	if noColor {
		r = render.NewWithColor(os.Stdout, false)
	}
	return r.Text(report, nil)
}
