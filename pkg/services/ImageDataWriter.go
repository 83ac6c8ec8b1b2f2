package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adampresley/streetview/pkg/models"
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"
)

// FeatureID is the id given to an extracted image: its file name without extension.
func FeatureID(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ImagePointFromLocation(location models.ImageLocation, highURL, lowURL string) models.ImagePoint {
	coordinates := models.Coordinates{
		Lon: location.Lng,
		Lat: location.Lat,
	}

	return models.ImagePoint{
		ID:                  FeatureID(location.FileName),
		ImageURLHigh:        highURL,
		ImageURLLow:         lowURL,
		InitialYaw:          models.DefaultInitialYaw,
		InitialPitch:        models.DefaultInitialPitch,
		InitialHfov:         models.DefaultInitialHfov,
		ShowCompass:         true,
		CoordinatesSnapped:  coordinates,
		CoordinatesOriginal: coordinates,
	}
}

/*
ImageURLs returns the high and compressed URLs for an image. Uploaded
images (non-empty imageKey) are served from the image store, everything
else from imageBaseURL with no compressed variant.
*/
func ImageURLs(fileName, imageKey, imageBaseURL, storeBaseURL string) (string, string) {
	if imageKey == "" {
		return imageBaseURL + fileName, ""
	}

	storeBaseURL = strings.TrimRight(storeBaseURL, "/")
	return storeBaseURL + "/" + imageKey, storeBaseURL + "/" + CompressedKey(imageKey)
}

/*
GenerateImagePoints turns extracted GPS fixes into canonical points.
uploaded maps a file name to its object key in the image store.
*/
func GenerateImagePoints(locations []models.ImageLocation, imageBaseURL, storeBaseURL string, uploaded map[string]string) []models.ImagePoint {
	result := make([]models.ImagePoint, 0, len(locations))

	for _, location := range locations {
		high, low := ImageURLs(location.FileName, uploaded[location.FileName], imageBaseURL, storeBaseURL)
		result = append(result, ImagePointFromLocation(location, high, low))
	}

	return result
}

/*
WriteImageData regenerates the canonical data file (points) and the path
file (one line per track) from extracted points. Both files are replaced
atomically.
*/
func WriteImageData(dataFile, pathFile string, points []models.ImagePoint) (Collection, error) {
	var (
		err error
	)

	collection := Collection{
		Mode:   models.CoordinateModeSnapped,
		Points: points,
		Tracks: BuildTracks(points, models.CoordinateModeSnapped),
	}

	if err = writeGeoJSON(dataFile, collection.PointsGeoJSON()); err != nil {
		return collection, err
	}

	if pathFile != "" {
		if err = writeGeoJSON(pathFile, collection.PathsGeoJSON()); err != nil {
			return collection, err
		}
	}

	return collection, nil
}

func writeGeoJSON(fileName string, fc *geojson.FeatureCollection) error {
	var (
		err      error
		b        []byte
		indented bytes.Buffer
	)

	if b, err = fc.MarshalJSON(); err != nil {
		return fmt.Errorf("error encoding %s: %w", fileName, err)
	}

	if err = json.Indent(&indented, b, "", "  "); err != nil {
		return fmt.Errorf("error formatting %s: %w", fileName, err)
	}

	if dir := filepath.Dir(fileName); dir != "" {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory for %s: %w", fileName, err)
		}
	}

	tmp := fileName + ".tmp"

	if err = os.WriteFile(tmp, indented.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", tmp, err)
	}

	if err = os.Rename(tmp, fileName); err != nil {
		return fmt.Errorf("error replacing %s: %w", fileName, err)
	}

	return nil
}
