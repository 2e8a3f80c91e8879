package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/scoring"
	"github.com/horeca-group/horeca-cli/internal/store"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute every venue's lead score",
	Long: `Recalculates lead scores from current venue signals. Useful after a
catalog change or a bulk import touched ratings and gaps. Venues whose
score is unchanged are left alone.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "rescore: init store")
		}
		defer st.Close()

		venues, err := st.ListVenues(ctx, store.VenueFilter{})
		if err != nil {
			return eris.Wrap(err, "rescore: list venues")
		}

		var changed int
		for i := range venues {
			v := &venues[i]
			score := scoring.LeadScore(scoring.LeadSignals{
				Rating:          v.Rating,
				ReviewCount:     v.ReviewCount,
				MissingProducts: len(v.MissingProducts),
				LastContactDate: v.LastContactDate,
			})
			if score == v.LeadScore {
				continue
			}
			if err := st.UpdateVenue(ctx, v.ID, model.VenueUpdate{}, score, v.Priority); err != nil {
				return eris.Wrapf(err, "rescore: update %s", v.ID)
			}
			changed++
		}

		zap.L().Info("rescore complete",
			zap.Int("venues", len(venues)),
			zap.Int("changed", changed),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rescoreCmd)
}
