package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	adamslices "github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/streetview/pkg/models"
	"github.com/alitto/pond/v2"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

var (
	ErrNoGpsData   = errors.New("no GPS data found in any image")
	ErrNoGpsTags   = errors.New("image has no GPS tags")
	ErrBadGpsValue = errors.New("unsupported GPS coordinate format")

	ImageExtensions = []string{".jpg", ".jpeg", ".tif", ".tiff"}
)

type GpsExtractorServicer interface {
	ExtractDirectory(ctx context.Context, dir string) ([]models.ImageLocation, error)
}

type GpsExtractorConfig struct {
	MaxWorkers int
}

type GpsExtractor struct {
	maxWorkers int
}

func NewGpsExtractor(config GpsExtractorConfig) GpsExtractor {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}

	return GpsExtractor{
		maxWorkers: config.MaxWorkers,
	}
}

/*
ExtractDirectory reads GPS fixes from every image directly inside dir.
Files that fail are logged and left out. An unreadable directory is an
error, as is a directory where no image carried usable GPS (ErrNoGpsData).
Results are sorted by file name.
*/
func (e GpsExtractor) ExtractDirectory(ctx context.Context, dir string) ([]models.ImageLocation, error) {
	var (
		err     error
		entries []os.DirEntry
		mu      sync.Mutex
	)

	if entries, err = os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("error reading image directory '%s': %w", dir, err)
	}

	result := []models.ImageLocation{}
	pool := pond.NewPool(e.maxWorkers, pond.WithContext(ctx))

	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}

		imagePath := filepath.Join(dir, entry.Name())

		pool.Submit(func() {
			location, err := ExtractGps(imagePath)

			if err != nil {
				slog.Warn("skipping image", "path", imagePath, "error", err)
				return
			}

			mu.Lock()
			result = append(result, location)
			mu.Unlock()
		})
	}

	_ = pool.Stop().Wait()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	slog.Info("extracted GPS data", "dir", dir, "numImages", len(result))

	if len(result) == 0 {
		return result, ErrNoGpsData
	}

	slices.SortFunc(result, func(a, b models.ImageLocation) int {
		return cmp.Compare(a.FileName, b.FileName)
	})

	return result, nil
}

func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return adamslices.IsInSlice(ext, ImageExtensions)
}

// ExtractGps reads the GPS latitude and longitude tags of one image.
func ExtractGps(imagePath string) (models.ImageLocation, error) {
	var (
		err    error
		f      *os.File
		x      *exif.Exif
		lat    float64
		lng    float64
		result models.ImageLocation
	)

	if f, err = os.Open(imagePath); err != nil {
		return result, fmt.Errorf("error opening image: %w", err)
	}

	defer f.Close()

	if x, err = exif.Decode(f); err != nil {
		return result, fmt.Errorf("error decoding EXIF: %w", err)
	}

	if lat, err = readCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef); err != nil {
		return result, fmt.Errorf("latitude: %w", err)
	}

	if lng, err = readCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef); err != nil {
		return result, fmt.Errorf("longitude: %w", err)
	}

	result = models.ImageLocation{
		FileName: filepath.Base(imagePath),
		Path:     imagePath,
		Lat:      lat,
		Lng:      lng,
	}

	return result, nil
}

/*
ToDecimal converts a coordinate to decimal degrees. A single value is
already decimal, three values are degrees, minutes and seconds. South and
west references negate the result.
*/
func ToDecimal(values []float64, ref string) (float64, error) {
	var (
		decimal float64
	)

	switch {
	case len(values) == 1:
		decimal = values[0]

	case len(values) >= 3:
		decimal = values[0] + values[1]/60 + values[2]/3600

	default:
		return 0, fmt.Errorf("%w: %d values", ErrBadGpsValue, len(values))
	}

	if math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return 0, fmt.Errorf("%w: not a finite number", ErrBadGpsValue)
	}

	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "S", "W":
		decimal = -decimal
	}

	return decimal, nil
}

func readCoordinate(x *exif.Exif, valueField, refField exif.FieldName) (float64, error) {
	var (
		err    error
		tag    *tiff.Tag
		values []float64
		ref    string
	)

	if tag, err = x.Get(valueField); err != nil {
		if exif.IsTagNotPresentError(err) {
			return 0, ErrNoGpsTags
		}

		return 0, err
	}

	if values, err = tagValues(tag); err != nil {
		return 0, err
	}

	if refTag, err := x.Get(refField); err == nil {
		ref, _ = refTag.StringVal()
	}

	return ToDecimal(values, ref)
}

func tagValues(tag *tiff.Tag) ([]float64, error) {
	result := []float64{}

	switch tag.Format() {
	case tiff.RatVal:
		for i := 0; i < int(tag.Count); i++ {
			num, den, err := tag.Rat2(i)

			if err != nil {
				return nil, err
			}

			if den == 0 {
				return nil, fmt.Errorf("%w: zero denominator", ErrBadGpsValue)
			}

			result = append(result, float64(num)/float64(den))
		}

	case tiff.FloatVal:
		for i := 0; i < int(tag.Count); i++ {
			f, err := tag.Float(i)

			if err != nil {
				return nil, err
			}

			result = append(result, f)
		}

	case tiff.IntVal:
		for i := 0; i < int(tag.Count); i++ {
			n, err := tag.Int64(i)

			if err != nil {
				return nil, err
			}

			result = append(result, float64(n))
		}

	case tiff.StringVal:
		s, err := tag.StringVal()

		if err != nil {
			return nil, err
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)

		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadGpsValue, s)
		}

		result = append(result, f)

	default:
		return nil, fmt.Errorf("%w: tag format %d", ErrBadGpsValue, tag.Format())
	}

	return result, nil
}
