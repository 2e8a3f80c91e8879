package main

import (
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/horeca-group/horeca-cli/internal/detect"
	"github.com/horeca-group/horeca-cli/internal/scoring"
	"github.com/horeca-group/horeca-cli/internal/store"
)

var (
	analyzeCity       string
	analyzeLimit      int
	analyzeUseClaude  bool
	analyzeRPS        float64
	analyzeConfidence float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect brand products and gaps across stored venues",
	Long: `Scans each venue's menu text for catalog brands and records what the
venue carries and what it is missing. Lead scores are recomputed from the
updated gap count.

The default detector is keyword matching against the brand catalog. With
--claude the menu text is sent to an Anthropic model instead, which also
catches misspellings and house names for branded products.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "analyze: init store")
		}
		defer st.Close()

		catalog, err := initCatalog()
		if err != nil {
			return eris.Wrap(err, "analyze: load catalog")
		}

		var detector detect.Detector = detect.NewKeywordDetector()
		var limiter *rate.Limiter
		if analyzeUseClaude {
			detector, err = initClaudeDetector()
			if err != nil {
				return err
			}
			limiter = rate.NewLimiter(rate.Limit(analyzeRPS), 1)
		}

		venues, err := st.ListVenues(ctx, store.VenueFilter{
			City:  analyzeCity,
			Limit: analyzeLimit,
		})
		if err != nil {
			return eris.Wrap(err, "analyze: list venues")
		}

		var analyzed, skipped atomic.Int64

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Detect.MaxConcurrency)

		for i := range venues {
			v := &venues[i]
			if v.MenuText == "" {
				skipped.Add(1)
				continue
			}

			g.Go(func() error {
				if limiter != nil {
					if err := limiter.Wait(gCtx); err != nil {
						return err
					}
				}

				found := detect.BestEffort(gCtx, detector, v.MenuText, catalog)
				gaps := detect.Gaps(catalog, found, analyzeConfidence)

				names := make([]string, len(found))
				for i, d := range found {
					names[i] = d.Brand
				}
				v.ApplyDetection(names, gaps)

				leadScore := scoring.LeadScore(scoring.LeadSignals{
					Rating:          v.Rating,
					ReviewCount:     v.ReviewCount,
					MissingProducts: len(v.MissingProducts),
					LastContactDate: v.LastContactDate,
				})

				if err := st.UpdateVenueDetection(gCtx, v.ID,
					v.CurrentProducts, v.MissingProducts, v.CompetitorProducts,
					leadScore, v.Priority); err != nil {
					zap.L().Error("analyze: update venue",
						zap.String("venue_id", v.ID), zap.Error(err))
					return nil // keep going, one venue failing is not fatal
				}

				analyzed.Add(1)
				zap.L().Info("venue analyzed",
					zap.String("venue", v.Name),
					zap.Int("brands_found", len(names)),
					zap.Int("gaps", len(v.MissingProducts)),
					zap.Int("lead_score", leadScore),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "analyze: worker pool")
		}

		zap.L().Info("analysis complete",
			zap.Int("total", len(venues)),
			zap.Int64("analyzed", analyzed.Load()),
			zap.Int64("skipped_no_menu", skipped.Load()),
		)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCity, "city", "", "only analyze venues in this city")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0, "max venues to analyze (0 = all)")
	analyzeCmd.Flags().BoolVar(&analyzeUseClaude, "claude", false, "use the Anthropic detector instead of keyword matching")
	analyzeCmd.Flags().Float64Var(&analyzeRPS, "rps", 2, "Anthropic requests per second with --claude")
	analyzeCmd.Flags().Float64Var(&analyzeConfidence, "gap-confidence", 50, "confidence assigned to detected gaps (0-100)")
	rootCmd.AddCommand(analyzeCmd)
}
