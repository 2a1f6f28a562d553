package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"schedd/internal/daemon"
	"schedd/internal/planning"
)

func main() {
	var (
		cfgPath  string
		scenario string
		out      string
		watch    bool
	)
	flag.StringVar(&cfgPath, "config", "", "path to config file (json or yaml, optional)")
	flag.StringVar(&scenario, "scenario", "", "path to scenario file (json or yaml)")
	flag.StringVar(&out, "out", "", "path for the solution output (default stdout)")
	flag.BoolVar(&watch, "watch", false, "keep running and re-solve on scenario changes")
	flag.Parse()

	if scenario == "" {
		fmt.Println("fatal: -scenario is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(daemon.Options{
		ConfigPath:   cfgPath,
		ScenarioPath: scenario,
		OutPath:      out,
	})
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	defer func() { _ = d.Close() }()

	if watch {
		if err := d.Run(ctx); err != nil {
			fmt.Println("fatal run:", err)
			os.Exit(1)
		}
		return
	}

	resp, err := d.RunOnce(ctx)
	if err != nil {
		fmt.Println("fatal solve:", err)
		os.Exit(1)
	}
	if resp.SolverStatus.StatusCode == planning.StatusInfeasible {
		os.Exit(3)
	}
}
