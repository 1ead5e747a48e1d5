package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/raildispatch/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario FILE...",
	Short: "Replay YAML scenarios and check their expectations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		sc, err := scenarios.Load(path)
		if err != nil {
			return err
		}
		res, err := scenarios.Run(sc)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		msgs := sc.Expected.Check(res)
		if len(msgs) == 0 {
			fmt.Fprintf(out, "PASS %s (%d cycles)\n", sc.Name, res.Status.Cycles)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL %s\n", sc.Name)
		for _, m := range msgs {
			fmt.Fprintf(out, "  %s\n", m)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}
