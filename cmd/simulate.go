package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/raildispatch/app"
	"github.com/kilianp07/raildispatch/core/dispatch"
	"github.com/kilianp07/raildispatch/infra/logger"
)

var (
	simCycles   int
	simSeed     int64
	simArrivals float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run generated traffic for a number of cycles and print a summary",
	RunE:  simulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simCycles, "cycles", 100, "number of cycles to run")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "generator seed (0 seeds from the clock)")
	simulateCmd.Flags().Float64Var(&simArrivals, "arrivals", 0, "mean requests per cycle (0 keeps the configured value)")
	rootCmd.AddCommand(simulateCmd)
}

// Summary is printed by the simulate command.
type Summary struct {
	Cycles      int                  `json:"cycles"`
	Station     string               `json:"station"`
	ElapsedTime int                  `json:"elapsed_time"`
	QueueDepth  int                  `json:"queue_depth"`
	Waiting     int                  `json:"waiting"`
	Travel      dispatch.TravelStats `json:"travel"`
}

func summarize(st dispatch.Status) Summary {
	waiting := 0
	for _, n := range st.Waiting {
		waiting += n
	}
	return Summary{
		Cycles:      st.Cycles,
		Station:     string(st.Station),
		ElapsedTime: st.ElapsedTime,
		QueueDepth:  st.QueueDepth,
		Waiting:     waiting,
		Travel:      st.Travel,
	}
}

func simulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := setup()
	if err != nil {
		return err
	}
	cfg.Simulation.Cycles = simCycles
	cfg.Simulation.IntervalMS = 0
	cfg.Generator.Enabled = true
	if simSeed != 0 {
		cfg.Generator.Seed = simSeed
	}
	if simArrivals > 0 {
		cfg.Generator.ArrivalsPerCycle = simArrivals
	}
	cfg.MQTT.Enabled = false
	cfg.API.Enabled = false

	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("simulate").Errorf("service close: %v", err)
		}
	}()
	if err := svc.Run(ctx); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summarize(svc.Status()))
}
