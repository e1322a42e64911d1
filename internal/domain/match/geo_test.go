package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceKmKnownPairs(t *testing.T) {
	sf := Coordinate{Lat: 37.7749, Lng: -122.4194}
	oakland := Coordinate{Lat: 37.8044, Lng: -122.2712}
	la := Coordinate{Lat: 34.0522, Lng: -118.2437}

	require.InDelta(t, 13.5, DistanceKm(sf, oakland), 1.0)
	require.InDelta(t, 559, DistanceKm(sf, la), 10)
}

func TestDistanceKmProperties(t *testing.T) {
	a := Coordinate{Lat: 1.3521, Lng: 103.8198}
	b := Coordinate{Lat: 1.29, Lng: 103.85}

	require.Zero(t, DistanceKm(a, a))
	require.Equal(t, DistanceKm(a, b), DistanceKm(b, a))
	require.Greater(t, DistanceKm(a, b), 0.0)
}

func TestValidCoordinate(t *testing.T) {
	require.True(t, validCoordinate(Coordinate{Lat: 0, Lng: 0}))
	require.True(t, validCoordinate(Coordinate{Lat: -90, Lng: 180}))
	require.False(t, validCoordinate(Coordinate{Lat: 90.1, Lng: 0}))
	require.False(t, validCoordinate(Coordinate{Lat: 0, Lng: -180.1}))
	require.False(t, validCoordinate(Coordinate{Lat: math.NaN(), Lng: 0}))
	require.False(t, validCoordinate(Coordinate{Lat: 0, Lng: math.Inf(1)}))
}
