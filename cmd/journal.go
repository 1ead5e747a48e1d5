package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kilianp07/raildispatch/core/journal"
	"github.com/kilianp07/raildispatch/infra/logger"
)

var journalQuery journal.Query

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print journaled cycles as JSON lines",
	RunE:  queryJournal,
}

func init() {
	f := journalCmd.Flags()
	f.StringVar(&journalQuery.RunID, "run", "", "service run id")
	f.IntVar(&journalQuery.FromCycle, "from", 0, "first cycle")
	f.IntVar(&journalQuery.ToCycle, "to", 0, "last cycle")
	f.StringVar(&journalQuery.PassengerID, "passenger", "", "passenger id")
	f.StringVar(&journalQuery.Station, "station", "", "start or end station")
	rootCmd.AddCommand(journalCmd)
}

func queryJournal(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := journal.New(ctx, cfg.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.New("journal").Errorf("close: %v", err)
		}
	}()
	records, err := store.Query(ctx, journalQuery)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}
