// Package report renders a human-readable summary of one analysis run.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"

	"pacbayes/domain/connectivity"
	"pacbayes/internal/density"
)

// Markdown builds the markdown report for a run manifest. The density
// summary and histogram are diagnostic only; the inference result is fully
// described by the prior and the matrices.
func Markdown(m *connectivity.RunManifest, summary density.Summary, dividers, counts []float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Directional PAC connectivity run %s\n\n", m.ID)
	fmt.Fprintf(&b, "Generated %s\n\n", m.CreatedAt)

	b.WriteString("## Configuration\n\n")
	fmt.Fprintf(&b, "- fragments: %d\n", m.Settings.NumFragments)
	fmt.Fprintf(&b, "- surrogates per observation: %d\n", m.Settings.NumSurrogates)
	fmt.Fprintf(&b, "- alpha: %g (Bonferroni-corrected z-threshold %.4f)\n", m.Settings.Alpha, m.Result.ZThreshold)
	fmt.Fprintf(&b, "- posterior display threshold: %g\n\n", m.Settings.PosteriorThreshold)

	b.WriteString("## Significance\n\n")
	fmt.Fprintf(&b, "- channels: %d\n", m.Result.NumChannels)
	fmt.Fprintf(&b, "- significant observations: %d\n", m.Result.SignificantCount)
	fmt.Fprintf(&b, "- pooled population: n=%d, mean=%.4f, std=%.4f, median=%.4f, bandwidth=%.4f\n",
		summary.Count, summary.Mean, summary.StdDev, summary.Median, summary.Bandwidth)
	if summary.Degenerate {
		b.WriteString("- warning: degenerate pooled population (all magnitudes identical)\n")
	}
	b.WriteString("\n")

	b.WriteString("## Prior P(destination)\n\n")
	for i, p := range m.Result.Prior {
		fmt.Fprintf(&b, "- channel %d: %.4f\n", i, p)
	}
	b.WriteString("\n")

	b.WriteString("## Aggregate posterior (prevalence of significance)\n\n")
	writeMatrix(&b, m.Result.Aggregate)

	fmt.Fprintf(&b, "## Thresholded posterior (tau = %g)\n\n", m.Settings.PosteriorThreshold)
	writeMatrix(&b, m.Thresholded)

	if len(counts) > 0 {
		b.WriteString("## Pooled magnitude histogram\n\n")
		b.WriteString("| bin | count |\n|---|---|\n")
		for i, c := range counts {
			fmt.Fprintf(&b, "| [%.4f, %.4f) | %.0f |\n", dividers[i], dividers[i+1], c)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the markdown report to HTML.
func HTML(m *connectivity.RunManifest, summary density.Summary, dividers, counts []float64) []byte {
	md := Markdown(m, summary, dividers, counts)
	return markdown.ToHTML([]byte(md), nil, nil)
}

// writeMatrix emits a (destination x source) matrix as a markdown table.
func writeMatrix(b *strings.Builder, matrix [][]float64) {
	if len(matrix) == 0 {
		b.WriteString("(empty)\n\n")
		return
	}

	b.WriteString("| dest \\ src |")
	for x := range matrix[0] {
		fmt.Fprintf(b, " %d |", x)
	}
	b.WriteString("\n|---|")
	for range matrix[0] {
		b.WriteString("---|")
	}
	b.WriteString("\n")

	for i, row := range matrix {
		fmt.Fprintf(b, "| %d |", i)
		for _, v := range row {
			fmt.Fprintf(b, " %.4f |", v)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
