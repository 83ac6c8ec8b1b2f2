package features

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/adampresley/streetview/cmd/website/internal/viewmodels"
	"github.com/adampresley/streetview/pkg/models"
	"github.com/adampresley/streetview/pkg/services"
	"github.com/paulmach/orb/geojson"
)

type FeaturesHandlers interface {
	GetFeatures(w http.ResponseWriter, r *http.Request)
	GetTracks(w http.ResponseWriter, r *http.Request)
	GetTrackSummary(w http.ResponseWriter, r *http.Request)
	GetAdjacent(w http.ResponseWriter, r *http.Request)
}

type FeaturesControllerConfig struct {
	DefaultMode  models.CoordinateMode
	Source       services.FeatureSourcer
	TrackBuilder services.TrackBuilderServicer
}

type FeaturesController struct {
	defaultMode  models.CoordinateMode
	source       services.FeatureSourcer
	trackBuilder services.TrackBuilderServicer
}

func NewFeaturesController(config FeaturesControllerConfig) FeaturesController {
	if config.DefaultMode == "" {
		config.DefaultMode = models.CoordinateModeSnapped
	}

	return FeaturesController{
		defaultMode:  config.DefaultMode,
		source:       config.Source,
		trackBuilder: config.TrackBuilder,
	}
}

/*
GET /api/features?mode=snapped|original
*/
func (c FeaturesController) GetFeatures(w http.ResponseWriter, r *http.Request) {
	collection, ok := c.load(w, r)

	if !ok {
		return
	}

	writeFeatureCollection(w, collection, collection.PointsGeoJSON())
}

/*
GET /api/tracks?mode=snapped|original
*/
func (c FeaturesController) GetTracks(w http.ResponseWriter, r *http.Request) {
	collection, ok := c.load(w, r)

	if !ok {
		return
	}

	writeFeatureCollection(w, collection, collection.PathsGeoJSON())
}

/*
GET /api/tracks/summary
*/
func (c FeaturesController) GetTrackSummary(w http.ResponseWriter, r *http.Request) {
	collection, ok := c.load(w, r)

	if !ok {
		return
	}

	result := viewmodels.TrackList{
		BaseViewModel: viewmodels.Success(),
		Mode:          string(collection.Mode),
		Tracks:        make([]viewmodels.TrackSummary, 0, len(collection.Tracks)),
		Rejected:      collection.Rejected,
	}

	for _, track := range collection.Tracks {
		summary := viewmodels.TrackSummary{
			Name:       track.Name,
			PointCount: len(track.Points),
		}

		if len(track.Points) > 0 {
			summary.FirstID = track.Points[0].ID
		}

		result.Tracks = append(result.Tracks, summary)
	}

	viewmodels.WriteJSON(w, http.StatusOK, result)
}

/*
GET /api/features/{id}/adjacent?direction=next|prev
*/
func (c FeaturesController) GetAdjacent(w http.ResponseWriter, r *http.Request) {
	var (
		err       error
		direction int
	)

	id := r.PathValue("id")

	if direction, err = parseDirection(r.URL.Query().Get("direction")); err != nil {
		viewmodels.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	collection, ok := c.load(w, r)

	if !ok {
		return
	}

	if _, found := collection.Find(id); !found {
		viewmodels.WriteError(w, http.StatusNotFound, fmt.Sprintf("image '%s' not found", id))
		return
	}

	viewmodels.WriteJSON(w, http.StatusOK, viewmodels.AdjacentImage{
		BaseViewModel: viewmodels.Success(),
		FromID:        id,
		ID:            collection.Adjacent(id, direction),
		Direction:     direction,
	})
}

func (c FeaturesController) load(w http.ResponseWriter, r *http.Request) (services.Collection, bool) {
	var (
		err        error
		body       []byte
		collection services.Collection
	)

	mode := c.defaultMode

	if value := r.URL.Query().Get("mode"); value != "" {
		mode = models.ParseCoordinateMode(value)
	}

	if body, err = c.source.Fetch(r.Context()); err != nil {
		slog.Error("error fetching features", "error", err)
		viewmodels.WriteError(w, http.StatusInternalServerError, "Failed to load street view data")
		return collection, false
	}

	if collection, err = c.trackBuilder.Build(body, mode); err != nil {
		slog.Error("error building tracks", "error", err)
		viewmodels.WriteError(w, http.StatusInternalServerError, err.Error())
		return collection, false
	}

	return collection, true
}

func parseDirection(value string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "next":
		return 1, nil

	case "prev", "previous":
		return -1, nil
	}

	n, err := strconv.Atoi(value)

	if err != nil || (n != 1 && n != -1) {
		return 0, fmt.Errorf("invalid direction '%s'", value)
	}

	return n, nil
}

func writeFeatureCollection(w http.ResponseWriter, collection services.Collection, fc *geojson.FeatureCollection) {
	b, err := fc.MarshalJSON()

	if err != nil {
		slog.Error("error encoding feature collection", "error", err)
		viewmodels.WriteError(w, http.StatusInternalServerError, "Failed to encode features")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Coordinate-Mode", string(collection.Mode))
	w.Header().Set("X-Rejected-Records", strconv.Itoa(collection.Rejected))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
