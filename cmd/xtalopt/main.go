/*
This file is the entry point for the xtalopt command line utility.

Initial argparsing and app definition is done entirely through
"github.com/urfave/cli/v2", following the same &cli.App{} + subcommand shape the
ancestor toolkit's own cmd/poly/main.go uses.

The search engine itself lives in the generate/genetic/fitness/queue packages; this
file is deliberately thin, wiring a Settings file and a work directory into a
queue.Manager and driving its Tick loop until cutoff or an operator-requested exit.
External optimizer/hardness/objective adapters are not constructed here — supplying
them is left to a Go program that imports this module directly, per spec.md section 1's
Non-goals around SSH/local schedulers and the ML hardness predictor.
*/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/xtalopt/xtalopt-go/config"
	"github.com/xtalopt/xtalopt-go/persist"
	"github.com/xtalopt/xtalopt-go/queue"
	"github.com/xtalopt/xtalopt-go/tracker"
)

func main() {
	run(os.Args)
}

// run is separated from main for testability, matching the ancestor toolkit's own
// main()/run() split.
func run(args []string) {
	app := application()
	if err := app.Run(args); err != nil {
		log.Fatal(err)
	}
}

func application() *cli.App {
	return &cli.App{
		Name:  "xtalopt",
		Usage: "An evolutionary search engine for crystal structure prediction.",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Start (or resume) a search using the given settings file.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Required: true, Usage: "Path to the YAML settings file."},
					&cli.StringFlag{Name: "workdir", Value: "./xtalopt-run", Usage: "Directory for per-structure working directories and snapshots."},
					&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Random seed for the search's private RNG."},
					&cli.DurationFlag{Name: "tick-interval", Value: 5 * time.Second, Usage: "Wall-clock time between scheduling ticks."},
				},
				Action: runCommand,
			},
			{
				Name:  "results",
				Usage: "Print the results table from a run's saved snapshots.",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workdir", Value: "./xtalopt-run", Usage: "Directory containing saved snapshots."},
				},
				Action: resultsCommand,
			},
		},
	}
}

func runCommand(c *cli.Context) error {
	loader, err := config.NewLoader(c.String("config"))
	if err != nil {
		return fmt.Errorf("xtalopt: loading config: %w", err)
	}

	t := tracker.New()
	snapDir := c.String("workdir")
	m := queue.NewManager(t, loader, c.Int64("seed"))
	m.WorkDir = func(tag string) string { return snapDir + "/" + tag }
	m.SaveDir = snapDir

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("xtalopt: interrupt received, finishing in-progress work (interrupt again to stop immediately)")
		m.RequestSoftExit()
		<-sigCh
		log.Println("xtalopt: second interrupt received, stopping immediately")
		m.RequestHardExit()
		cancel()
	}()

	ticker := time.NewTicker(c.Duration("tick-interval"))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return persist.SaveAll(snapDir, t.All())
		case <-ticker.C:
			if _, err := loader.Poll(); err != nil {
				log.Printf("xtalopt: config reload error: %v", err)
			}
			if err := m.Tick(ctx); err != nil {
				log.Printf("xtalopt: tick error: %v", err)
			}
			if loader.Current().MaxStructures > 0 && t.Size() >= loader.Current().MaxStructures {
				return persist.SaveAll(snapDir, t.All())
			}
		}
	}
}

func resultsCommand(c *cli.Context) error {
	snaps, err := persist.LoadAll(c.String("workdir"))
	if err != nil {
		return fmt.Errorf("xtalopt: loading snapshots: %w", err)
	}
	for _, s := range snaps {
		fmt.Printf("%d×%d\tenthalpy=%.4f\tstatus=%s\n", s.Generation, s.ID, s.Enthalpy, s.Status)
	}
	return nil
}
