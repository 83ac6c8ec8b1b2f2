package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/streetview/cmd/extractgps/internal/configuration"
	"github.com/adampresley/streetview/pkg/models"
	"github.com/adampresley/streetview/pkg/services"
	"github.com/rfberaldo/sqlz"
)

var (
	Version string = "development"
	appName string = "extractgps"

	config configuration.Config
)

func main() {
	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	extractor := services.NewGpsExtractor(services.GpsExtractorConfig{
		MaxWorkers: config.MaxWorkers,
	})

	code := exitCode(run(ctx, extractor))
	stop()
	os.Exit(code)
}

/*
run extracts GPS fixes from the images directory, optionally uploads the
originals, writes the data files and optionally records the images in the
catalog.
When no image carries GPS data it returns ErrNoGpsData and leaves the
data files untouched.
*/
func run(ctx context.Context, extractor services.GpsExtractorServicer) error {
	var (
		err        error
		locations  []models.ImageLocation
		collection services.Collection
		client     s3.S3Client
		uploaded   = map[string]string{}
	)

	slog.Info("extracting GPS data", "imagesDir", config.ImagesDir, "outputFile", config.OutputFile, "pathFile", config.PathFile)

	if locations, err = extractor.ExtractDirectory(ctx, config.ImagesDir); err != nil {
		return err
	}

	if config.AwsBucket != "" {
		if client, err = newS3Client(); err != nil {
			return err
		}

		uploaded = uploadOriginals(ctx, client, locations)
		slog.Info("uploaded originals", "uploaded", len(uploaded), "total", len(locations))
	}

	points := services.GenerateImagePoints(locations, config.BaseURL, config.StoreBaseURL, uploaded)

	if collection, err = services.WriteImageData(config.OutputFile, config.PathFile, points); err != nil {
		return fmt.Errorf("error writing data files: %w", err)
	}

	if config.DSN != "" {
		if err = updateCatalog(locations, uploaded); err != nil {
			return fmt.Errorf("error updating image catalog: %w", err)
		}
	}

	slog.Info("GPS extraction complete",
		"images", len(collection.Points),
		"tracks", len(collection.Tracks),
		"outputFile", config.OutputFile,
	)

	return nil
}

// exitCode maps the result of run to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, services.ErrNoGpsData) {
		slog.Warn("no GPS data found. data files left untouched", "imagesDir", config.ImagesDir)
		return 0
	}

	slog.Error("GPS extraction failed", "error", err)
	return 1
}

func updateCatalog(locations []models.ImageLocation, uploaded map[string]string) error {
	var (
		err error
		db  *sqlz.DB
	)

	if db, err = services.OpenCatalog(config.DSN); err != nil {
		return err
	}

	catalog := services.NewCatalogService(services.CatalogServiceConfig{
		DB: db,
	})

	extractedAt := time.Now().UTC().Format(time.RFC3339)

	for _, location := range locations {
		image := models.CatalogImage{
			FileName:    location.FileName,
			FeatureID:   services.FeatureID(location.FileName),
			Latitude:    location.Lat,
			Longitude:   location.Lng,
			ImageKey:    uploaded[location.FileName],
			ExtractedAt: extractedAt,
		}

		if err = catalog.Upsert(image); err != nil {
			return err
		}
	}

	slog.Info("image catalog updated", "images", len(locations))
	return nil
}

func newS3Client() (s3.S3Client, error) {
	var (
		err    error
		client *s3.Client
	)

	awsConfig := &awsconfig.Config{
		Endpoint:        config.AwsEndpointUrl,
		Region:          config.AwsRegion,
		AccessKeyID:     config.AwsAccessKeyId,
		SecretAccessKey: config.AwsSecretAccessKey,
	}

	retrier.Retry(func() error {
		if err = awsConfig.Load(); err != nil {
			slog.Error("failed to load AWS config. trying again", "error", err)
			return err
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	if client, err = s3.NewClient(awsConfig); err != nil {
		return nil, fmt.Errorf("error creating S3 client: %w", err)
	}

	return client, nil
}
