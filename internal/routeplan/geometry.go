package routeplan

import (
	"github.com/twpayne/go-geom"
)

// Geometry returns the planned route as a LineString in lng/lat order,
// suitable for GeoJSON serialization on a map overlay. Routes with fewer
// than two stops have no line geometry and return nil.
func (p *Plan) Geometry() *geom.LineString {
	if len(p.OrderedStops) < 2 {
		return nil
	}

	coords := make([]geom.Coord, len(p.OrderedStops))
	for i, v := range p.OrderedStops {
		coords[i] = geom.Coord{v.Longitude, v.Latitude}
	}

	ls := geom.NewLineString(geom.XY)
	ls.MustSetCoords(coords)
	return ls
}

// Bounds returns the bounding box of all stops as [minLng, minLat, maxLng,
// maxLat], or nil for an empty plan. Used by the dashboard to frame the map.
func (p *Plan) Bounds() *geom.Bounds {
	if len(p.OrderedStops) == 0 {
		return nil
	}

	bounds := geom.NewBounds(geom.XY)
	for _, v := range p.OrderedStops {
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{v.Longitude, v.Latitude}))
	}
	return bounds
}
