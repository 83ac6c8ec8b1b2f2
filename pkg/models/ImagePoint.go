package models

import "math"

const (
	DefaultInitialYaw   float64 = 0
	DefaultInitialPitch float64 = 0
	DefaultInitialHfov  float64 = 100
)

/*
Coordinates is a longitude/latitude pair in decimal degrees. Lon comes first
to match GeoJSON ordering.
*/
type Coordinates struct {
	Lon float64
	Lat float64
}

func (c Coordinates) Slice() []float64 {
	return []float64{c.Lon, c.Lat}
}

/*
ImagePoint is one photographed location. CoordinatesSnapped is the position
shown on the map, CoordinatesOriginal the raw GPS fix. When the source has no
distinct original fix both pairs are equal.
*/
type ImagePoint struct {
	ID                  string
	ImageURLLow         string
	ImageURLHigh        string
	InitialYaw          float64
	InitialPitch        float64
	InitialHfov         float64
	ShowCompass         bool
	CoordinatesSnapped  Coordinates
	CoordinatesOriginal Coordinates
}

// ImageURL returns the high resolution URL, falling back to the low one.
func (p ImagePoint) ImageURL() string {
	if p.ImageURLHigh != "" {
		return p.ImageURLHigh
	}

	return p.ImageURLLow
}

func (p ImagePoint) Coordinates(mode CoordinateMode) Coordinates {
	if mode == CoordinateModeOriginal {
		return p.CoordinatesOriginal
	}

	return p.CoordinatesSnapped
}

func (p ImagePoint) InitialViewPosition() ViewPosition {
	return ViewPosition{
		Yaw:   p.InitialYaw,
		Pitch: p.InitialPitch,
		Hfov:  p.InitialHfov,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
