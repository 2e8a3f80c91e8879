package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
	"github.com/horeca-group/horeca-cli/internal/routeplan"
	"github.com/horeca-group/horeca-cli/internal/store"
)

var (
	planName        string
	planSalesPerson string
	planCity        string
	planMinScore    int
	planLimit       int
	planDate        string
	planStartLat    float64
	planStartLng    float64
	planHasStart    bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan an optimized visit route over filtered venues",
	Long: `Selects venues by city and minimum lead score, orders them with the
nearest-neighbor heuristic, and persists the route with its stops.

Without --start-lat/--start-lng the route begins at the first selected
venue. The planned route is printed as JSON.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "plan: init store")
		}
		defer st.Close()

		limit := planLimit
		if maxStops := cfg.Routes.MaxStops; limit == 0 || limit > maxStops {
			limit = maxStops
		}

		venues, err := st.ListVenues(ctx, store.VenueFilter{
			City:     planCity,
			MinScore: planMinScore,
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "plan: list venues")
		}
		if len(venues) == 0 {
			return eris.New("plan: no venues match the filters")
		}

		// Customers are visited through the funnel, not prospecting routes.
		candidates := make([]*model.Venue, 0, len(venues))
		for i := range venues {
			if venues[i].Status == model.VenueStatusCustomer {
				continue
			}
			candidates = append(candidates, &venues[i])
		}
		if len(candidates) == 0 {
			return eris.New("plan: every matching venue is already a customer")
		}

		var start *routeplan.Start
		if planHasStart {
			start = &routeplan.Start{Lat: planStartLat, Lng: planStartLng}
		}

		plan, err := routeplan.Optimize(candidates, start)
		if err != nil {
			return eris.Wrap(err, "plan: optimize")
		}

		plannedDate := time.Now().UTC()
		if planDate != "" {
			plannedDate, err = time.Parse("2006-01-02", planDate)
			if err != nil {
				return eris.Wrapf(err, "plan: parse date %q", planDate)
			}
		}

		route := &model.Route{
			Name:             planName,
			SalesPerson:      planSalesPerson,
			PlannedDate:      plannedDate,
			Status:           model.RouteStatusPlanned,
			TotalDistanceKm:  plan.TotalDistanceKm,
			EstimatedMinutes: plan.EstimatedMinutes,
		}
		if planHasStart {
			route.StartLat = &planStartLat
			route.StartLng = &planStartLng
		}
		for i, v := range plan.OrderedStops {
			route.Stops = append(route.Stops, model.RouteStop{
				VenueID:    v.ID,
				OrderIndex: i,
				Venue:      v,
			})
		}

		if err := st.CreateRoute(ctx, route); err != nil {
			return eris.Wrap(err, "plan: create route")
		}

		zap.L().Info("route planned",
			zap.String("route_id", route.ID),
			zap.Int("stops", len(route.Stops)),
			zap.Float64("total_km", route.TotalDistanceKm),
			zap.Int("estimated_minutes", route.EstimatedMinutes),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(route)
	},
}

func init() {
	planCmd.Flags().StringVar(&planName, "name", "", "route name")
	planCmd.Flags().StringVar(&planSalesPerson, "sales-person", "", "salesperson the route is for")
	planCmd.Flags().StringVar(&planCity, "city", "", "only include venues in this city")
	planCmd.Flags().IntVar(&planMinScore, "min-score", 0, "minimum lead score for inclusion")
	planCmd.Flags().IntVar(&planLimit, "limit", 0, "max stops (0 = config max)")
	planCmd.Flags().StringVar(&planDate, "date", "", "planned date, YYYY-MM-DD (default today)")
	planCmd.Flags().Float64Var(&planStartLat, "start-lat", 0, "starting latitude")
	planCmd.Flags().Float64Var(&planStartLng, "start-lng", 0, "starting longitude")
	planCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		planHasStart = cmd.Flags().Changed("start-lat") && cmd.Flags().Changed("start-lng")
	}
	rootCmd.AddCommand(planCmd)
}
