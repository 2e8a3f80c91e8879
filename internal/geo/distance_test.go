package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// Barcelona city center to Sagrada Familia ≈ 2.2km.
	d := DistanceKm(41.3851, 2.1734, 41.4036, 2.1744)
	assert.InDelta(t, 2.1, d, 0.2)

	// Madrid to Barcelona ≈ 505km.
	d = DistanceKm(40.4168, -3.7038, 41.3851, 2.1734)
	assert.InDelta(t, 505, d, 10)
}

func TestDistanceKm_Identity(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(41.3851, 2.1734, 41.3851, 2.1734))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{41.3851, 2.1734, 40.4168, -3.7038},
		{41.4036, 2.1744, 41.3888, 2.1590},
		{36.7213, -4.4214, 43.2630, -2.9350},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1], p[2], p[3])
		ba := DistanceKm(p[2], p[3], p[0], p[1])
		assert.Equal(t, ab, ba)
	}
}

func TestDistanceKm_OneDecimal(t *testing.T) {
	d := DistanceKm(41.3851, 2.1734, 41.3888, 2.1590)
	assert.Equal(t, math.Round(d*10)/10, d)
}
