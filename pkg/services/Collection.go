package services

import (
	"github.com/adampresley/streetview/pkg/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

/*
Collection is the derived view over one load of the data source: the
normalized points in feed order and the tracks built from them.
*/
type Collection struct {
	Mode     models.CoordinateMode
	Points   []models.ImagePoint
	Tracks   []models.Track
	Rejected int
}

func (c Collection) Find(id string) (models.ImagePoint, bool) {
	for _, point := range c.Points {
		if point.ID == id {
			return point, true
		}
	}

	return models.ImagePoint{}, false
}

/*
Adjacent returns the id of the neighbouring point within the same track,
following track order. direction is +1 for next and -1 for previous. An
empty string means there is no neighbour.
*/
func (c Collection) Adjacent(id string, direction int) string {
	if direction == 0 {
		return ""
	}

	for _, track := range c.Tracks {
		for index, point := range track.Points {
			if point.ID != id {
				continue
			}

			target := index + direction

			if target < 0 || target >= len(track.Points) {
				return ""
			}

			return track.Points[target].ID
		}
	}

	return ""
}

// PointsGeoJSON renders the points, in feed order, for the map's point layers.
func (c Collection) PointsGeoJSON() *geojson.FeatureCollection {
	result := geojson.NewFeatureCollection()

	for _, point := range c.Points {
		coordinates := point.Coordinates(c.Mode)
		feature := geojson.NewFeature(orb.Point{coordinates.Lon, coordinates.Lat})

		feature.Properties = geojson.Properties{
			"id":                  point.ID,
			"trackName":           TrackName(point.ID),
			"imageUrl":            point.ImageURL(),
			"imageUrl_High":       point.ImageURLHigh,
			"imageUrl_Comp":       point.ImageURLLow,
			"initialYaw":          point.InitialYaw,
			"initialPitch":        point.InitialPitch,
			"initialHfov":         point.InitialHfov,
			"showCompass":         point.ShowCompass,
			"coordinatesSnapped":  point.CoordinatesSnapped.Slice(),
			"coordinatesOriginal": point.CoordinatesOriginal.Slice(),
		}

		result.Append(feature)
	}

	return result
}

// PathsGeoJSON renders one LineString per track.
func (c Collection) PathsGeoJSON() *geojson.FeatureCollection {
	result := geojson.NewFeatureCollection()

	for _, track := range c.Tracks {
		line := make(orb.LineString, 0, len(track.Path))

		for _, vertex := range track.Path {
			line = append(line, orb.Point{vertex.Lon, vertex.Lat})
		}

		feature := geojson.NewFeature(line)
		feature.Properties = geojson.Properties{
			"trackName":  track.Name,
			"pointCount": len(track.Points),
		}

		result.Append(feature)
	}

	return result
}
