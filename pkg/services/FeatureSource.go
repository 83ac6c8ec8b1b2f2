package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/streetview/pkg/models"
	"github.com/goccy/go-json"
)

var ErrUpstreamStatus = errors.New("data source responded with an error status")

const (
	DataSourceApi     = "api"
	DataSourceFile    = "file"
	DataSourceCatalog = "catalog"
)

/*
FeatureSourcer fetches the raw record collection. Implementations return the
body untouched; shaping is the TrackBuilder's job.
*/
type FeatureSourcer interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type ApiFeatureSourceConfig struct {
	HttpClient *http.Client
	Timeout    time.Duration
	URL        string
}

// ApiFeatureSource reads the collection from the photo server's API.
type ApiFeatureSource struct {
	httpClient *http.Client
	timeout    time.Duration
	url        string
}

func NewApiFeatureSource(config ApiFeatureSourceConfig) ApiFeatureSource {
	if config.HttpClient == nil {
		config.HttpClient = http.DefaultClient
	}

	if config.Timeout <= 0 {
		config.Timeout = time.Second * 15
	}

	return ApiFeatureSource{
		httpClient: config.HttpClient,
		timeout:    config.Timeout,
		url:        config.URL,
	}
}

func (s ApiFeatureSource) Fetch(ctx context.Context) ([]byte, error) {
	var (
		err      error
		request  *http.Request
		response *http.Response
		body     []byte
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if request, err = http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil); err != nil {
		return nil, fmt.Errorf("error building request for '%s': %w", s.url, err)
	}

	request.Header.Set("Accept", "application/json")

	if response, err = s.httpClient.Do(request); err != nil {
		return nil, fmt.Errorf("error fetching features from '%s': %w", s.url, err)
	}

	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s from '%s'", ErrUpstreamStatus, response.Status, s.url)
	}

	if body, err = io.ReadAll(response.Body); err != nil {
		return nil, fmt.Errorf("error reading features response from '%s': %w", s.url, err)
	}

	return body, nil
}

// FileFeatureSource reads the data file written by the extractor.
type FileFeatureSource struct {
	path string
}

func NewFileFeatureSource(path string) FileFeatureSource {
	return FileFeatureSource{
		path: path,
	}
}

func (s FileFeatureSource) Fetch(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)

	if err != nil {
		return nil, fmt.Errorf("error reading data file '%s': %w", s.path, err)
	}

	return b, nil
}

type CatalogFeatureSourceConfig struct {
	Catalog CatalogServicer

	// ImageBaseURL prefixes file names of images that were never uploaded.
	ImageBaseURL string

	// StoreBaseURL prefixes object keys of uploaded images.
	StoreBaseURL string
}

/*
CatalogFeatureSource renders the image catalog in the photo server's
{status, data} shape so it goes through the same pipeline.
*/
type CatalogFeatureSource struct {
	catalog      CatalogServicer
	imageBaseURL string
	storeBaseURL string
}

func NewCatalogFeatureSource(config CatalogFeatureSourceConfig) CatalogFeatureSource {
	return CatalogFeatureSource{
		catalog:      config.Catalog,
		imageBaseURL: config.ImageBaseURL,
		storeBaseURL: strings.TrimRight(config.StoreBaseURL, "/"),
	}
}

type catalogRecord struct {
	FeatureID    string  `json:"feature_id"`
	ImageURLHigh string  `json:"image_url_high"`
	ImageURLComp string  `json:"image_url_comp,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	InitialHfov  float64 `json:"initial_hfov"`
	ShowCompass  bool    `json:"show_compass"`
}

type catalogEnvelope struct {
	Status string          `json:"status"`
	Data   []catalogRecord `json:"data"`
}

func (s CatalogFeatureSource) Fetch(ctx context.Context) ([]byte, error) {
	var (
		err    error
		images []models.CatalogImage
	)

	if images, err = s.catalog.GetAll(); err != nil {
		return nil, err
	}

	envelope := catalogEnvelope{
		Status: "success",
		Data:   make([]catalogRecord, 0, len(images)),
	}

	for _, image := range images {
		high, low := ImageURLs(image.FileName, image.ImageKey, s.imageBaseURL, s.storeBaseURL)

		envelope.Data = append(envelope.Data, catalogRecord{
			FeatureID:    image.FeatureID,
			ImageURLHigh: high,
			ImageURLComp: low,
			Latitude:     image.Latitude,
			Longitude:    image.Longitude,
			InitialHfov:  models.DefaultInitialHfov,
			ShowCompass:  true,
		})
	}

	return json.Marshal(envelope)
}

/*
CompressedKey maps an original object key to the key of its low resolution
variant: <folder>/originals/<name> -> <folder>/compressed/<name>.
*/
func CompressedKey(originalKey string) string {
	dir, name := filepath.Split(originalKey)
	dir = strings.TrimSuffix(dir, "/")

	if strings.HasSuffix(dir, "originals") {
		dir = strings.TrimSuffix(dir, "originals") + "compressed"
	} else {
		dir = filepath.Join(dir, "compressed")
	}

	return filepath.ToSlash(filepath.Join(dir, name))
}
