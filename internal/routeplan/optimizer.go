// Package routeplan orders venue visits into a travel-efficient sequence.
package routeplan

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/horeca-group/horeca-cli/internal/geo"
	"github.com/horeca-group/horeca-cli/internal/model"
)

// MaxStops caps the number of venues in a single route. The optimizer is
// O(n²); tens of stops is the realistic case and a few hundred is already
// far beyond a day's visits, so oversized requests are rejected outright
// rather than cancelled mid-flight.
const MaxStops = 200

// Dwell and travel constants for the duration estimate. This is a linear
// model, not a routing engine: 10 minutes per stop plus 3 minutes per km.
const (
	dwellMinutesPerStop = 10
	travelMinutesPerKm  = 3
)

// Plan is the result of route optimization: a visiting order with its
// stored travel totals.
type Plan struct {
	OrderedStops     []*model.Venue
	TotalDistanceKm  float64
	EstimatedMinutes int
}

// Start is an optional explicit starting point for the optimizer.
type Start struct {
	Lat float64
	Lng float64
}

// Optimize orders venues with a greedy nearest-neighbor heuristic and
// computes the route totals. The result is a permutation of the input:
// nothing is added, dropped, or duplicated. With no explicit start the
// first input venue's coordinates seed the walk, so that venue is always
// visited first (its distance to the start is zero).
//
// Nearest-neighbor is deterministic and O(n²) but can be arbitrarily worse
// than the true shortest route; it is a heuristic, not a TSP solver. Ties
// on distance go to the earliest venue in input order.
//
// TotalDistanceKm sums the legs between consecutive stops in the optimized
// order only. The leg from an explicit start point to the first stop is
// not included: the start point is a planning aid, not part of the route.
//
// An empty input is not an error: it yields an empty plan with zero
// distance and duration.
func Optimize(venues []*model.Venue, start *Start) (*Plan, error) {
	if len(venues) > MaxStops {
		return nil, eris.Errorf("routeplan: %d venues exceeds the %d-stop limit", len(venues), MaxStops)
	}
	for _, v := range venues {
		if err := validateCoordinates(v.Latitude, v.Longitude); err != nil {
			return nil, eris.Wrapf(err, "routeplan: venue %q", v.Name)
		}
	}
	if start != nil {
		if err := validateCoordinates(start.Lat, start.Lng); err != nil {
			return nil, eris.Wrap(err, "routeplan: start point")
		}
	}

	ordered := nearestNeighborOrder(venues, start)

	totalKm := interStopDistance(ordered)
	return &Plan{
		OrderedStops:     ordered,
		TotalDistanceKm:  totalKm,
		EstimatedMinutes: EstimateDurationMinutes(len(ordered), totalKm),
	}, nil
}

// EstimateDurationMinutes applies the fixed dwell-plus-travel model.
func EstimateDurationMinutes(stopCount int, totalKm float64) int {
	return stopCount*dwellMinutesPerStop + int(math.Round(totalKm*travelMinutesPerKm))
}

func nearestNeighborOrder(venues []*model.Venue, start *Start) []*model.Venue {
	if len(venues) <= 1 {
		return append([]*model.Venue(nil), venues...)
	}

	remaining := append([]*model.Venue(nil), venues...)
	ordered := make([]*model.Venue, 0, len(venues))

	currentLat := venues[0].Latitude
	currentLng := venues[0].Longitude
	if start != nil {
		currentLat = start.Lat
		currentLng = start.Lng
	}

	for len(remaining) > 0 {
		nearestIdx := 0
		nearestDist := math.Inf(1)

		for i, v := range remaining {
			d := geo.DistanceKm(currentLat, currentLng, v.Latitude, v.Longitude)
			if d < nearestDist {
				nearestDist = d
				nearestIdx = i
			}
		}

		nearest := remaining[nearestIdx]
		ordered = append(ordered, nearest)
		remaining = append(remaining[:nearestIdx], remaining[nearestIdx+1:]...)
		currentLat = nearest.Latitude
		currentLng = nearest.Longitude
	}

	return ordered
}

// interStopDistance sums the legs between consecutive venues in order.
func interStopDistance(ordered []*model.Venue) float64 {
	var total float64
	for i := 0; i+1 < len(ordered); i++ {
		total += geo.DistanceKm(
			ordered[i].Latitude, ordered[i].Longitude,
			ordered[i+1].Latitude, ordered[i+1].Longitude,
		)
	}
	return total
}

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return eris.New("coordinates must be finite")
	}
	if lat < -90 || lat > 90 {
		return eris.Errorf("latitude %v out of range", lat)
	}
	if lng < -180 || lng > 180 {
		return eris.Errorf("longitude %v out of range", lng)
	}
	return nil
}
