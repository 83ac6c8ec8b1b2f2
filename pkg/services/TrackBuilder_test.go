package services

import (
	"math"
	"strconv"
	"testing"

	"github.com/adampresley/streetview/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointsWithIDs(ids ...string) []models.ImagePoint {
	result := make([]models.ImagePoint, 0, len(ids))

	for index, id := range ids {
		result = append(result, models.ImagePoint{
			ID:                  id,
			CoordinatesSnapped:  models.Coordinates{Lon: float64(index), Lat: float64(index)},
			CoordinatesOriginal: models.Coordinates{Lon: float64(index) + 0.5, Lat: float64(index) + 0.5},
		})
	}

	return result
}

func trackIDs(track models.Track) []string {
	result := []string{}

	for _, point := range track.Points {
		result = append(result, point.ID)
	}

	return result
}

func TestTrackName(t *testing.T) {
	tests := map[string]string{
		"img_track0_265": "track0",
		"img_abc":        "abc",
		"0_1":            "track0",
		"12_7":           "track12",
		"img1":           DefaultTrackName,
		"photo":          DefaultTrackName,
		"":               DefaultTrackName,
		"0_1_2":          DefaultTrackName,
	}

	for id, want := range tests {
		assert.Equal(t, want, TrackName(id), id)
	}
}

func TestSequenceNumber(t *testing.T) {
	tests := map[string]int64{
		"img_track0_265": 265,
		"0_5":            5,
		"a_12b":          12,
		"a_b_c":          0,
		"img42":          42,
		"abc":            0,
		"":               0,
		"7":              7,
	}

	for id, want := range tests {
		assert.Equal(t, want, SequenceNumber(id), id)
	}
}

func TestSequenceNumberClampsOnOverflow(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), SequenceNumber("x_99999999999999999999999"))
}

func TestBuildTracksExamples(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want map[string][]string
	}{
		{
			name: "token ids",
			ids:  []string{"img_track0_5", "img_track0_1", "img_track1_2"},
			want: map[string][]string{"track0": {"img_track0_1", "img_track0_5"}, "track1": {"img_track1_2"}},
		},
		{
			name: "numeric ids",
			ids:  []string{"0_1", "0_5", "1_2"},
			want: map[string][]string{"track0": {"0_1", "0_5"}, "track1": {"1_2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks := BuildTracks(pointsWithIDs(tt.ids...), models.CoordinateModeSnapped)
			require.Len(t, tracks, len(tt.want))

			for _, track := range tracks {
				assert.Equal(t, tt.want[track.Name], trackIDs(track), track.Name)
			}
		})
	}
}

func TestBuildTracksIsDeterministic(t *testing.T) {
	points := pointsWithIDs("img_b_2", "img_a_1", "9_3", "loose", "img_b_1", "9_1")

	first := BuildTracks(points, models.CoordinateModeSnapped)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildTracks(points, models.CoordinateModeSnapped))
	}

	names := []string{}
	for _, track := range first {
		names = append(names, track.Name)
	}

	assert.Equal(t, []string{"b", "a", "track9", DefaultTrackName}, names)
}

func TestOrderTrackIsStable(t *testing.T) {
	points := pointsWithIDs("img_t_x", "img_t_2", "img_t_y", "img_t_1", "img_t_z")

	ordered := OrderTrack(points)
	ids := []string{}

	for _, point := range ordered {
		ids = append(ids, point.ID)
	}

	assert.Equal(t, []string{"img_t_x", "img_t_y", "img_t_z", "img_t_1", "img_t_2"}, ids)
	assert.Equal(t, "img_t_x", points[0].ID, "input must not be reordered")
}

func TestSynthesizePath(t *testing.T) {
	points := pointsWithIDs("0_1", "0_2", "0_2", "0_3")

	snapped := SynthesizePath(points, models.CoordinateModeSnapped)
	original := SynthesizePath(points, models.CoordinateModeOriginal)

	require.Len(t, snapped, len(points))
	require.Len(t, original, len(points))
	assert.Equal(t, models.Coordinates{Lon: 1, Lat: 1}, snapped[1])
	assert.Equal(t, models.Coordinates{Lon: 1.5, Lat: 1.5}, original[1])
}

func TestPathVertexCountMatchesPoints(t *testing.T) {
	ids := []string{}

	for i := 0; i < 50; i++ {
		ids = append(ids, "img_track"+strconv.Itoa(i%3)+"_"+strconv.Itoa(50-i))
	}

	for _, track := range BuildTracks(pointsWithIDs(ids...), models.CoordinateModeSnapped) {
		assert.Len(t, track.Path, len(track.Points), track.Name)
	}
}

func TestTrackBuilderBuild(t *testing.T) {
	builder := NewTrackBuilder(TrackBuilderConfig{
		Normalizer: NewRecordNormalizer(RecordNormalizerConfig{}),
	})

	body := `{"status": "success", "data": [
		{"feature_id": "img_track0_5", "longitude": 1, "latitude": 1},
		"not a record",
		{"feature_id": "img_track0_1", "longitude": 2, "latitude": 2},
		42
	]}`

	collection, err := builder.Build([]byte(body), models.CoordinateModeSnapped)
	require.NoError(t, err)

	assert.Equal(t, 2, collection.Rejected)
	require.Len(t, collection.Points, 2)
	assert.Equal(t, "img_track0_5", collection.Points[0].ID)

	require.Len(t, collection.Tracks, 1)
	assert.Equal(t, []string{"img_track0_1", "img_track0_5"}, trackIDs(collection.Tracks[0]))
	assert.Equal(t, []models.Coordinates{{Lon: 2, Lat: 2}, {Lon: 1, Lat: 1}}, collection.Tracks[0].Path)

	_, err = builder.Build([]byte(`{"status": "error"}`), models.CoordinateModeSnapped)
	assert.ErrorIs(t, err, ErrUpstreamError)
}

func TestCollectionAdjacent(t *testing.T) {
	points := pointsWithIDs("img_a_2", "img_a_1", "img_a_3", "img_b_1")
	collection := Collection{
		Mode:   models.CoordinateModeSnapped,
		Points: points,
		Tracks: BuildTracks(points, models.CoordinateModeSnapped),
	}

	assert.Equal(t, "img_a_2", collection.Adjacent("img_a_1", 1))
	assert.Equal(t, "img_a_3", collection.Adjacent("img_a_2", 1))
	assert.Equal(t, "", collection.Adjacent("img_a_3", 1))
	assert.Equal(t, "", collection.Adjacent("img_a_1", -1))
	assert.Equal(t, "", collection.Adjacent("img_b_1", 1))
	assert.Equal(t, "", collection.Adjacent("missing", 1))
	assert.Equal(t, "", collection.Adjacent("img_a_1", 0))

	point, ok := collection.Find("img_a_3")
	require.True(t, ok)
	assert.Equal(t, "img_a_3", point.ID)
}

func TestCollectionGeoJSON(t *testing.T) {
	points := pointsWithIDs("img_a_2", "img_a_1")
	points[0].ImageURLLow = "/low.jpg"

	collection := Collection{
		Mode:   models.CoordinateModeOriginal,
		Points: points,
		Tracks: BuildTracks(points, models.CoordinateModeOriginal),
	}

	fc := collection.PointsGeoJSON()
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "img_a_2", fc.Features[0].Properties["id"])
	assert.Equal(t, "a", fc.Features[0].Properties["trackName"])
	assert.Equal(t, "/low.jpg", fc.Features[0].Properties["imageUrl"])
	assert.Equal(t, 0.5, fc.Features[0].Geometry.Bound().Min.Lon())

	paths := collection.PathsGeoJSON()
	require.Len(t, paths.Features, 1)
	assert.Equal(t, "a", paths.Features[0].Properties["trackName"])
	assert.Equal(t, 2, paths.Features[0].Properties["pointCount"])
	assert.Equal(t, "LineString", paths.Features[0].Geometry.GeoJSONType())
}
