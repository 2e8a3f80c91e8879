package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/store"
	sfpkg "github.com/horeca-group/horeca-cli/pkg/salesforce"
)

var (
	crmpushMinScore int
	crmpushDryRun   bool
)

var crmpushCmd = &cobra.Command{
	Use:   "crmpush",
	Short: "Push qualified venues to Salesforce as Leads",
	Long: `Selects venues at or above the lead-score cutoff, skips existing
customers, and inserts the rest as Salesforce Leads in one collection
call. Per-record failures are reported without aborting the batch.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "crmpush: init store")
		}
		defer st.Close()

		minScore := crmpushMinScore
		if minScore == 0 {
			minScore = cfg.Salesforce.MinLeadScore
		}

		venues, err := st.ListVenues(ctx, store.VenueFilter{MinScore: minScore})
		if err != nil {
			return eris.Wrap(err, "crmpush: list venues")
		}

		qualified := make([]*model.Venue, 0, len(venues))
		for i := range venues {
			if venues[i].Status == model.VenueStatusCustomer {
				continue
			}
			qualified = append(qualified, &venues[i])
		}

		if len(qualified) == 0 {
			zap.L().Info("no venues qualify", zap.Int("min_score", minScore))
			return nil
		}

		if crmpushDryRun {
			zap.L().Info("dry run, printing qualified venues",
				zap.Int("count", len(qualified)))
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(qualified)
		}

		client, err := initSalesforce()
		if err != nil {
			return err
		}

		summary, err := sfpkg.NewLeadPusher(client).Push(ctx, qualified)
		if err != nil {
			return eris.Wrap(err, "crmpush: push leads")
		}

		zap.L().Info("crm push complete",
			zap.Int("pushed", summary.Pushed),
			zap.Int("failed", summary.Failed),
		)
		for _, msg := range summary.Errors {
			zap.L().Warn("lead rejected", zap.String("detail", msg))
		}
		return nil
	},
}

func init() {
	crmpushCmd.Flags().IntVar(&crmpushMinScore, "min-score", 0, "lead-score cutoff (default from config)")
	crmpushCmd.Flags().BoolVar(&crmpushDryRun, "dry-run", false, "print qualified venues instead of pushing")
	rootCmd.AddCommand(crmpushCmd)
}
