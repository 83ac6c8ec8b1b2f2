package services

import (
	"testing"

	"github.com/adampresley/streetview/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer() RecordNormalizer {
	formatter := NewUrlFormatter(DefaultProxyPath, []string{"HOST:8000"})

	return NewRecordNormalizer(RecordNormalizerConfig{
		UrlFormatter: &formatter,
		IDGenerator:  func() string { return "feature-generated" },
	})
}

func normalize(t *testing.T, n RecordNormalizer, body string) models.ImagePoint {
	t.Helper()

	record, err := ParseRecord([]byte(body))
	require.NoError(t, err)

	return n.Normalize(record)
}

func TestNormalizeFlatRecord(t *testing.T) {
	n := newTestNormalizer()

	point := normalize(t, n, `{"feature_id": "img1", "image_url": "http://HOST:8000/a/b.jpg", "longitude": "-86.1", "latitude": 39.7}`)

	assert.Equal(t, "img1", point.ID)
	assert.Equal(t, "/api/proxy/a/b.jpg", point.ImageURLHigh)
	assert.Equal(t, "/api/proxy/a/b.jpg", point.ImageURL())
	assert.Empty(t, point.ImageURLLow)
	assert.Equal(t, models.Coordinates{Lon: -86.1, Lat: 39.7}, point.CoordinatesSnapped)
	assert.Equal(t, point.CoordinatesSnapped, point.CoordinatesOriginal)
}

func TestNormalizeDefaults(t *testing.T) {
	n := newTestNormalizer()

	point := normalize(t, n, `{"initial_yaw": "abc", "initialPitch": null, "hfov": "NaN"}`)

	assert.Equal(t, "feature-generated", point.ID)
	assert.Equal(t, models.DefaultInitialYaw, point.InitialYaw)
	assert.Equal(t, models.DefaultInitialPitch, point.InitialPitch)
	assert.Equal(t, models.DefaultInitialHfov, point.InitialHfov)
	assert.True(t, point.ShowCompass)
	assert.Equal(t, models.Coordinates{}, point.CoordinatesSnapped)
}

func TestNormalizeFieldPriority(t *testing.T) {
	n := newTestNormalizer()

	point := normalize(t, n, `{
		"feature_id": "a",
		"id": "b",
		"image_url_high": "/high.jpg",
		"image_url": "/plain.jpg",
		"imageUrl_Comp": "/low.jpg",
		"initial_yaw": "not a number",
		"initialYaw": 45,
		"pitch": -10
	}`)

	assert.Equal(t, "a", point.ID)
	assert.Equal(t, "/api/proxy/high.jpg", point.ImageURLHigh)
	assert.Equal(t, "/api/proxy/low.jpg", point.ImageURLLow)
	assert.Equal(t, 45.0, point.InitialYaw)
	assert.Equal(t, -10.0, point.InitialPitch)
}

func TestNormalizeOriginalCoordinates(t *testing.T) {
	n := newTestNormalizer()

	both := normalize(t, n, `{"id": "x", "lng": 1, "lat": 2, "original_longitude": 1.1, "originalLatitude": 2.2}`)
	assert.Equal(t, models.Coordinates{Lon: 1, Lat: 2}, both.CoordinatesSnapped)
	assert.Equal(t, models.Coordinates{Lon: 1.1, Lat: 2.2}, both.CoordinatesOriginal)
	assert.Equal(t, models.Coordinates{Lon: 1.1, Lat: 2.2}, both.Coordinates(models.CoordinateModeOriginal))

	onlyOne := normalize(t, n, `{"id": "y", "lng": 1, "lat": 2, "original_longitude": 1.1}`)
	assert.Equal(t, onlyOne.CoordinatesSnapped, onlyOne.CoordinatesOriginal)
}

func TestNormalizeFeatureRecord(t *testing.T) {
	n := newTestNormalizer()

	point := normalize(t, n, `{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [10.5, 20.25]},
		"properties": {
			"id": "img_track0_3",
			"imageUrl_High": "http://HOST:8000/p/3.jpg",
			"initialHfov": 75,
			"showCompass": false,
			"coordinatesOriginal": [10.4, 20.2]
		}
	}`)

	assert.Equal(t, "img_track0_3", point.ID)
	assert.Equal(t, "/api/proxy/p/3.jpg", point.ImageURLHigh)
	assert.Equal(t, 75.0, point.InitialHfov)
	assert.False(t, point.ShowCompass)
	assert.Equal(t, models.Coordinates{Lon: 10.5, Lat: 20.25}, point.CoordinatesSnapped)
	assert.Equal(t, models.Coordinates{Lon: 10.4, Lat: 20.2}, point.CoordinatesOriginal)
}

func TestNormalizeShowCompass(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		body string
		want bool
	}{
		{body: `{"id": "a"}`, want: true},
		{body: `{"id": "a", "show_compass": true}`, want: true},
		{body: `{"id": "a", "show_compass": false}`, want: false},
		{body: `{"id": "a", "showCompass": "false"}`, want: false},
		{body: `{"id": "a", "show_compass": "maybe"}`, want: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalize(t, n, tt.body).ShowCompass, tt.body)
	}
}

func TestNormalizeWithoutFormatter(t *testing.T) {
	n := NewRecordNormalizer(RecordNormalizerConfig{})
	point := normalize(t, n, `{"id": "a", "image_url": "http://HOST:8000/a.jpg"}`)

	assert.Equal(t, "http://HOST:8000/a.jpg", point.ImageURLHigh)
}

func TestSynthesizedIDs(t *testing.T) {
	n := NewRecordNormalizer(RecordNormalizerConfig{})

	first := normalize(t, n, `{}`)
	second := normalize(t, n, `{}`)

	assert.Regexp(t, `^feature-[0-9a-f]{12}$`, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestParseRecord(t *testing.T) {
	record, err := ParseRecord([]byte(`{"type": "Feature", "properties": {}}`))
	require.NoError(t, err)
	assert.Equal(t, models.RecordKindFeature, record.Kind)

	record, err = ParseRecord([]byte(`{"id": "a"}`))
	require.NoError(t, err)
	assert.Equal(t, models.RecordKindFlat, record.Kind)

	for _, body := range []string{`"text"`, `42`, `null`, `[1, 2]`, `{broken`} {
		_, err = ParseRecord([]byte(body))
		assert.ErrorIs(t, err, ErrUnparseableRecord, body)
	}
}

func TestDecodeCollection(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCount int
		wantErr   error
	}{
		{name: "api envelope", body: `{"status": "success", "data": [{"id": "a"}, {"id": "b"}]}`, wantCount: 2},
		{name: "feature collection", body: `{"type": "FeatureCollection", "features": [{"type": "Feature"}]}`, wantCount: 1},
		{name: "bare array", body: `[{"id": "a"}, 3, {"id": "c"}]`, wantCount: 3},
		{name: "single object", body: `{"id": "a"}`, wantCount: 1},
		{name: "upstream error", body: `{"status": "error", "message": "boom"}`, wantErr: ErrUpstreamError},
		{name: "not json", body: `<html>`, wantErr: ErrInvalidPayload},
		{name: "scalar", body: `"hello"`, wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeCollection([]byte(tt.body))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, records, tt.wantCount)
		})
	}
}
