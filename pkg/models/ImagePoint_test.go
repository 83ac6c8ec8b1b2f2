package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImagePointImageURL(t *testing.T) {
	assert.Equal(t, "/high.jpg", ImagePoint{ImageURLHigh: "/high.jpg", ImageURLLow: "/low.jpg"}.ImageURL())
	assert.Equal(t, "/low.jpg", ImagePoint{ImageURLLow: "/low.jpg"}.ImageURL())
	assert.Empty(t, ImagePoint{}.ImageURL())
}

func TestImagePointCoordinates(t *testing.T) {
	point := ImagePoint{
		CoordinatesSnapped:  Coordinates{Lon: 1, Lat: 2},
		CoordinatesOriginal: Coordinates{Lon: 3, Lat: 4},
	}

	assert.Equal(t, Coordinates{Lon: 1, Lat: 2}, point.Coordinates(CoordinateModeSnapped))
	assert.Equal(t, Coordinates{Lon: 3, Lat: 4}, point.Coordinates(CoordinateModeOriginal))
	assert.Equal(t, []float64{3, 4}, point.CoordinatesOriginal.Slice())
}

func TestViewPositionIsFinite(t *testing.T) {
	assert.True(t, ViewPosition{Yaw: 1, Pitch: 2, Hfov: 100}.IsFinite())
	assert.False(t, ViewPosition{Yaw: math.NaN(), Hfov: 100}.IsFinite())
	assert.False(t, ViewPosition{Yaw: 1, Pitch: math.Inf(-1), Hfov: 100}.IsFinite())
}

func TestParseCoordinateMode(t *testing.T) {
	assert.Equal(t, CoordinateModeOriginal, ParseCoordinateMode(" Original "))
	assert.Equal(t, CoordinateModeSnapped, ParseCoordinateMode("snapped"))
	assert.Equal(t, CoordinateModeSnapped, ParseCoordinateMode(""))
	assert.Equal(t, CoordinateModeSnapped, ParseCoordinateMode("bogus"))
}

func TestViewPositionDiffersBy(t *testing.T) {
	base := ViewPosition{Yaw: 10, Pitch: 0, Hfov: 100}

	assert.False(t, base.DiffersBy(ViewPosition{Yaw: 10.4, Pitch: 0, Hfov: 100}, 1))
	assert.False(t, base.DiffersBy(ViewPosition{Yaw: 11, Pitch: -1, Hfov: 99}, 1))
	assert.True(t, base.DiffersBy(ViewPosition{Yaw: 12, Pitch: 0, Hfov: 100}, 1))
	assert.True(t, base.DiffersBy(ViewPosition{Yaw: 10, Pitch: 0, Hfov: 101.5}, 1))
}
