package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/adampresley/streetview/pkg/models"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

var (
	ErrInvalidPayload    = errors.New("invalid data payload")
	ErrUpstreamError     = errors.New("data source reported an error")
	ErrUnparseableRecord = errors.New("record is not a JSON object")
)

/*
Source field names for each output field, in priority order. Every name is
looked up at the top level of the record first and then under "properties".
*/
var (
	idFields           = []string{"feature_id", "id"}
	imageURLHighFields = []string{"image_url_high", "imageUrl_High", "imageUrlHigh", "image_url", "imageUrl"}
	imageURLLowFields  = []string{"image_url_comp", "imageUrl_Comp", "image_url_low", "imageUrlLow"}
	yawFields          = []string{"initial_yaw", "initialYaw", "yaw"}
	pitchFields        = []string{"initial_pitch", "initialPitch", "pitch"}
	hfovFields         = []string{"initial_hfov", "initialHfov", "hfov"}
	showCompassFields  = []string{"show_compass", "showCompass"}
	longitudeFields    = []string{"longitude", "lng", "lon", "coordinatesSnapped.0"}
	latitudeFields     = []string{"latitude", "lat", "coordinatesSnapped.1"}
	originalLonFields  = []string{"original_longitude", "originalLongitude", "coordinatesOriginal.0"}
	originalLatFields  = []string{"original_latitude", "originalLatitude", "coordinatesOriginal.1"}
)

type RecordNormalizerConfig struct {
	// UrlFormatter rewrites image URLs. Nil leaves them untouched.
	UrlFormatter *UrlFormatter
	IDGenerator  func() string
}

type RecordNormalizer struct {
	urlFormatter *UrlFormatter
	idGenerator  func() string
}

func NewRecordNormalizer(config RecordNormalizerConfig) RecordNormalizer {
	if config.IDGenerator == nil {
		config.IDGenerator = newFeatureID
	}

	return RecordNormalizer{
		urlFormatter: config.UrlFormatter,
		idGenerator:  config.IDGenerator,
	}
}

/*
DecodeCollection splits a data source response into individual record
bodies. It understands the photo server envelope {status, data: [...]}, a
GeoJSON FeatureCollection, a bare array, and a lone object.
*/
func DecodeCollection(body []byte) ([][]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not JSON", ErrInvalidPayload)
	}

	root := gjson.ParseBytes(body)

	if root.IsArray() {
		return rawElements(root), nil
	}

	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object or array", ErrInvalidPayload)
	}

	if strings.EqualFold(root.Get("status").String(), "error") {
		message := root.Get("message").String()

		if message == "" {
			message = "unknown API error"
		}

		return nil, fmt.Errorf("%w: %s", ErrUpstreamError, message)
	}

	if data := root.Get("data"); data.IsArray() {
		return rawElements(data), nil
	}

	if features := root.Get("features"); features.IsArray() && root.Get("type").String() == "FeatureCollection" {
		return rawElements(features), nil
	}

	return [][]byte{[]byte(root.Raw)}, nil
}

// ParseRecord tags a record body with its shape, rejecting non-objects.
func ParseRecord(body []byte) (models.RawRecord, error) {
	if !gjson.ValidBytes(body) {
		return models.RawRecord{}, ErrUnparseableRecord
	}

	root := gjson.ParseBytes(body)

	if !root.IsObject() {
		return models.RawRecord{}, fmt.Errorf("%w: got %s", ErrUnparseableRecord, root.Type)
	}

	result := models.RawRecord{
		Kind: models.RecordKindFlat,
		Body: body,
	}

	if root.Get("type").String() == "Feature" {
		result.Kind = models.RecordKindFeature
	}

	return result, nil
}

/*
Normalize turns a parsed record into an ImagePoint. Every field fails soft:
a missing or malformed value produces the documented default.
*/
func (n RecordNormalizer) Normalize(record models.RawRecord) models.ImagePoint {
	root := gjson.ParseBytes(record.Body)

	result := models.ImagePoint{
		ID:           lookupString(root, idFields...),
		ImageURLHigh: n.formatURL(lookupString(root, imageURLHighFields...)),
		ImageURLLow:  n.formatURL(lookupString(root, imageURLLowFields...)),
		InitialYaw:   lookupNumber(root, models.DefaultInitialYaw, yawFields...),
		InitialPitch: lookupNumber(root, models.DefaultInitialPitch, pitchFields...),
		InitialHfov:  lookupNumber(root, models.DefaultInitialHfov, hfovFields...),
		ShowCompass:  lookupBool(root, true, showCompassFields...),
	}

	if result.ID == "" {
		result.ID = n.idGenerator()
	}

	lonFields := longitudeFields
	latFields := latitudeFields

	if record.Kind == models.RecordKindFeature {
		lonFields = append([]string{"geometry.coordinates.0"}, longitudeFields...)
		latFields = append([]string{"geometry.coordinates.1"}, latitudeFields...)
	}

	result.CoordinatesSnapped = models.Coordinates{
		Lon: lookupNumber(root, 0, lonFields...),
		Lat: lookupNumber(root, 0, latFields...),
	}

	result.CoordinatesOriginal = result.CoordinatesSnapped

	originalLon, lonOK := lookupFirstNumber(root, originalLonFields...)
	originalLat, latOK := lookupFirstNumber(root, originalLatFields...)

	if lonOK && latOK {
		result.CoordinatesOriginal = models.Coordinates{
			Lon: originalLon,
			Lat: originalLat,
		}
	}

	return result
}

func (n RecordNormalizer) formatURL(u string) string {
	if n.urlFormatter == nil {
		return u
	}

	return n.urlFormatter.Format(u)
}

func rawElements(array gjson.Result) [][]byte {
	elements := array.Array()
	result := make([][]byte, 0, len(elements))

	for _, element := range elements {
		result = append(result, []byte(element.Raw))
	}

	return result
}

/*
lookup returns every present, non-null candidate for the given names, top
level before properties.
*/
func lookup(root gjson.Result, names ...string) []gjson.Result {
	result := []gjson.Result{}
	scopes := []gjson.Result{root}

	if properties := root.Get("properties"); properties.IsObject() {
		scopes = append(scopes, properties)
	}

	for _, name := range names {
		for _, scope := range scopes {
			value := scope.Get(name)

			if value.Exists() && value.Type != gjson.Null {
				result = append(result, value)
			}
		}
	}

	return result
}

func lookupString(root gjson.Result, names ...string) string {
	for _, value := range lookup(root, names...) {
		if value.Type != gjson.String && value.Type != gjson.Number {
			continue
		}

		if s := strings.TrimSpace(value.String()); s != "" {
			return s
		}
	}

	return ""
}

func lookupNumber(root gjson.Result, defaultValue float64, names ...string) float64 {
	if value, ok := lookupFirstNumber(root, names...); ok {
		return value
	}

	return defaultValue
}

func lookupFirstNumber(root gjson.Result, names ...string) (float64, bool) {
	for _, value := range lookup(root, names...) {
		if f, ok := parseNumber(value); ok {
			return f, true
		}
	}

	return 0, false
}

func lookupBool(root gjson.Result, defaultValue bool, names ...string) bool {
	for _, value := range lookup(root, names...) {
		switch value.Type {
		case gjson.True:
			return true

		case gjson.False:
			return false

		case gjson.String:
			if b, err := strconv.ParseBool(strings.TrimSpace(value.Str)); err == nil {
				return b
			}
		}
	}

	return defaultValue
}

func parseNumber(value gjson.Result) (float64, bool) {
	var (
		err error
		f   float64
	)

	switch value.Type {
	case gjson.Number:
		f = value.Num

	case gjson.String:
		if f, err = strconv.ParseFloat(strings.TrimSpace(value.Str), 64); err != nil {
			return 0, false
		}

	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

func newFeatureID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "feature-" + token[:12]
}
