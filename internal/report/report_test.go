package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
	"pacbayes/internal/density"
)

func sampleManifest(t *testing.T) (*connectivity.RunManifest, density.Summary, []float64, []float64) {
	t.Helper()

	model, err := density.Fit([]float64{0.4, 0.5, 0.6, 0.55})
	require.NoError(t, err)

	manifest := &connectivity.RunManifest{
		ID:        core.NewRunID(),
		CreatedAt: core.Now(),
		Settings: connectivity.Settings{
			NumFragments: 4, NumSurrogates: 100, Alpha: 0.05,
			NumBins: 4, PosteriorThreshold: 0.1,
		},
		Result: connectivity.RunResult{
			NumChannels:      2,
			NumFragments:     4,
			ZThreshold:       2.2414,
			SignificantCount: 3,
			Prior:            connectivity.PriorTable{0.0, 1.0},
			Aggregate:        [][]float64{{0, 0}, {0.75, 0}},
			Support:          [][]float64{{0, 0}, {0.75, 0}},
		},
		Thresholded: [][]float64{{0, 0}, {0.75, 0}},
	}

	dividers, counts := model.Histogram(4)
	return manifest, model.Summarize(), dividers, counts
}

func TestMarkdown_ContainsRunSummary(t *testing.T) {
	manifest, summary, dividers, counts := sampleManifest(t)

	md := Markdown(manifest, summary, dividers, counts)

	assert.Contains(t, md, manifest.ID.String())
	assert.Contains(t, md, "significant observations: 3")
	assert.Contains(t, md, "0.7500")
	assert.Contains(t, md, "## Prior P(destination)")
	assert.Contains(t, md, "channel 1: 1.0000")
	assert.Contains(t, md, "## Pooled magnitude histogram")
}

func TestMarkdown_EmptyHistogramOmitsSection(t *testing.T) {
	manifest, summary, _, _ := sampleManifest(t)

	md := Markdown(manifest, summary, nil, nil)
	assert.NotContains(t, md, "histogram")
}

func TestHTML_RendersMarkdown(t *testing.T) {
	manifest, summary, dividers, counts := sampleManifest(t)

	html := string(HTML(manifest, summary, dividers, counts))

	assert.True(t, strings.Contains(html, "<h1"), "expected rendered heading, got: %s", html[:min(200, len(html))])
	assert.Contains(t, html, manifest.ID.String())
}
