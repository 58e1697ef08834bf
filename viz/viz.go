// Package viz renders HTML visualizations of a solve: per-route scatter
// plots of node sequences and a convergence trace of the ALNS objective
// over iterations.
//
// Grounded directly on descheduler's PlotResults (go-echarts scatter chart
// with titled axes, a legend, and one series per logical group), adapted
// from a 2D Pareto-front/solution-population scatter to a route-per-
// vehicle scatter and a single-series objective-vs-iteration line.
package viz

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/mirzoyan-dev/pdptw-alns/instance"
	"github.com/mirzoyan-dev/pdptw-alns/pdperr"
	"github.com/mirzoyan-dev/pdptw-alns/solution"
)

// RenderRoutes writes an HTML scatter plot of every vehicle's route, one
// series per vehicle, node coordinates taken from meta.
func RenderRoutes(w io.Writer, meta *instance.Meta, sol *solution.Solution) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "PDPTW routes"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", SplitLine: &opts.SplitLine{Show: opts.Bool(true)}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", SplitLine: &opts.SplitLine{Show: opts.Bool(true)}}),
	)

	vehicleIDs := sol.RoutedVehicleIDs()
	if len(vehicleIDs) == 0 {
		return pdperr.NewStateViolation("viz.RenderRoutes", "solution has no routed vehicles to plot")
	}

	for _, vid := range vehicleIDs {
		route, ok := sol.RouteFor(vid)
		if !ok {
			continue
		}
		points := make([]opts.ScatterData, 0, len(route.Nodes))
		for _, nodeID := range route.Nodes {
			n, ok := meta.Node(nodeID)
			if !ok {
				return pdperr.NewStateViolation("viz.RenderRoutes", "route references an unknown node id")
			}
			points = append(points, opts.ScatterData{
				Value:      []float64{n.X, n.Y},
				Symbol:     "circle",
				SymbolSize: 6,
			})
		}
		scatter.AddSeries(fmt.Sprintf("vehicle %d", vid), points)
	}
	scatter.SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		charts.WithEmphasisOpts(opts.Emphasis{}),
	)

	return scatter.Render(w)
}

// ConvergencePoint is one (iteration, objective) sample for RenderConvergence.
type ConvergencePoint struct {
	Iteration int
	Objective float64
}

// RenderConvergence writes an HTML line plot of the best-known objective
// value across ALNS iterations.
func RenderConvergence(w io.Writer, trace []ConvergencePoint) error {
	if len(trace) == 0 {
		return pdperr.NewStateViolation("viz.RenderConvergence", "empty convergence trace")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "ALNS convergence"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "objective", SplitLine: &opts.SplitLine{Show: opts.Bool(true)}}),
	)

	xAxis := make([]string, len(trace))
	series := make([]opts.LineData, len(trace))
	for i, p := range trace {
		xAxis[i] = fmt.Sprintf("%d", p.Iteration)
		series[i] = opts.LineData{Value: p.Objective}
	}
	line.SetXAxis(xAxis).AddSeries("best objective", series)
	line.SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))

	return line.Render(w)
}
