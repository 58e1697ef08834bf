package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/mirzoyan-dev/pdptw-alns/driver"
	"github.com/mirzoyan-dev/pdptw-alns/litformat"
	"github.com/mirzoyan-dev/pdptw-alns/metrics"
	"github.com/mirzoyan-dev/pdptw-alns/params"
	"github.com/mirzoyan-dev/pdptw-alns/viz"
)

type solveOptions struct {
	paramsPath     string
	seed           int64
	routesOut      string
	convergenceOut string
}

func newSolveCommand() *cobra.Command {
	opts := &solveOptions{seed: 1}

	cmd := &cobra.Command{
		Use:   "solve <li-lim-file>",
		Short: "Read a Li & Lim instance and run the two-stage ALNS driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.paramsPath, "params", "", "optional JSON file overriding the default Parameters")
	flags.Int64Var(&opts.seed, "seed", opts.seed, "deterministic RNG seed")
	flags.StringVar(&opts.routesOut, "routes-html", "", "optional path to write a route scatter plot")
	flags.StringVar(&opts.convergenceOut, "convergence-html", "", "optional path to write a convergence line plot")
	return cmd
}

func runSolve(inputPath string, opts *solveOptions) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	meta, err := litformat.ReadLiLim(f)
	if err != nil {
		return err
	}

	if opts.paramsPath != "" {
		pf, err := os.Open(opts.paramsPath)
		if err != nil {
			return err
		}
		defer pf.Close()
		p, err := params.Load(pf)
		if err != nil {
			return err
		}
		meta.Params = p
	}

	mcol := metrics.New()
	d := driver.New(meta, opts.seed, klog.Background(), mcol)

	sol, err := d.Run()
	if err != nil {
		return err
	}

	fmt.Printf("objective: %.4f\n", sol.Objective())
	fmt.Printf("vehicles used: %d\n", len(sol.RoutedVehicleIDs()))
	fmt.Printf("requests unassigned: %d\n", len(sol.RequestBankIDs()))

	if opts.routesOut != "" {
		rf, err := os.Create(opts.routesOut)
		if err != nil {
			return err
		}
		defer rf.Close()
		if err := viz.RenderRoutes(rf, meta, sol); err != nil {
			return err
		}
	}

	if opts.convergenceOut != "" {
		cf, err := os.Create(opts.convergenceOut)
		if err != nil {
			return err
		}
		defer cf.Close()
		trace := make([]viz.ConvergencePoint, len(d.ConvergenceTrace()))
		for i, s := range d.ConvergenceTrace() {
			trace[i] = viz.ConvergencePoint{Iteration: s.Iteration, Objective: s.BestObjective}
		}
		if err := viz.RenderConvergence(cf, trace); err != nil {
			return err
		}
	}

	if d.Warning() != nil {
		fmt.Printf("warning: %v\n", d.Warning())
	}

	return nil
}
