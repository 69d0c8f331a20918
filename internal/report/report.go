// Package report renders a standalone HTML summary of a dataprep run
// using go-echarts: per-layer polygon/vertex counts and the area change
// introduced by the grow/shrink bias.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/litho-tools/maskprep/internal/dataprep"
)

// WriteSummary renders the run summary page for the given per-layer
// statistics.
func WriteSummary(w io.Writer, jobName string, stats []dataprep.LayerStats) error {
	labels := make([]string, 0, len(stats))
	inVerts := make([]opts.BarData, 0, len(stats))
	outVerts := make([]opts.BarData, 0, len(stats))
	areaDelta := make([]opts.BarData, 0, len(stats))
	for _, st := range stats {
		labels = append(labels, st.Key.String())
		inVerts = append(inVerts, opts.BarData{Value: st.InVerts})
		outVerts = append(outVerts, opts.BarData{Value: st.OutVerts})
		areaDelta = append(areaDelta, opts.BarData{Value: st.OutArea - st.InArea})
	}

	verts := charts.NewBar()
	verts.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    fmt.Sprintf("dataprep: %s", jobName),
		Subtitle: "vertex counts per layer before/after manhattanization",
	}))
	verts.SetXAxis(labels).
		AddSeries("input vertices", inVerts).
		AddSeries("output vertices", outVerts)

	area := charts.NewBar()
	area.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    "area delta per layer",
		Subtitle: "positive = net growth (expected for grow-biased layers)",
	}))
	area.SetXAxis(labels).AddSeries("area delta (user units²)", areaDelta)

	page := components.NewPage()
	page.AddCharts(verts, area)
	return page.Render(w)
}

// WriteSummaryFile renders the summary page to a file.
func WriteSummaryFile(path, jobName string, stats []dataprep.LayerStats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if err := WriteSummary(f, jobName, stats); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
