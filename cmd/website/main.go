package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/awsconfig"
	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/mux"
	"github.com/adampresley/adamgokit/retrier"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/streetview/cmd/website/internal/cache"
	"github.com/adampresley/streetview/cmd/website/internal/configuration"
	"github.com/adampresley/streetview/cmd/website/internal/features"
	"github.com/adampresley/streetview/cmd/website/internal/images"
	"github.com/adampresley/streetview/cmd/website/internal/viewpositions"
	"github.com/adampresley/streetview/pkg/models"
	"github.com/adampresley/streetview/pkg/services"
	"github.com/rfberaldo/sqlz"
)

var (
	Version string = "development"
	appName string = "streetview"

	config configuration.Config

	/* Services */
	cacheCreatorService cache.CacheCreator
	catalogService      services.CatalogServicer
	db                  *sqlz.DB
	featureSource       services.FeatureSourcer
	s3Client            s3.S3Client
	trackBuilder        services.TrackBuilderServicer
	viewPositionCache   services.ViewPositionCacher

	/* Controllers */
	featuresController     features.FeaturesHandlers
	imagesController       images.ImagesHandlers
	viewPositionController viewpositions.ViewPositionHandlers
)

func main() {
	config = configuration.LoadConfig()
	setupLogger(&config, Version)

	slog.Info("configuration loaded",
		slog.String("app", appName),
		slog.String("version", Version),
		slog.String("loglevel", config.LogLevel),
		slog.String("host", config.Host),
		slog.String("dataSource", config.DataSource),
		slog.String("upstreamUrl", config.UpstreamURL),
		slog.String("awsBucket", config.AwsBucket),
	)

	slog.Debug("setting up...")

	shutdownCtx, cancel := context.WithCancel(context.Background())

	/*
	 * Setup services
	 */
	viewPositionCache = services.NewViewPositionCache()
	featureSource, trackBuilder = setupFeatureSource()

	if config.AwsBucket != "" {
		s3Client = setupS3Client()

		cacheCreatorService = cache.NewCacheCreatorService(cache.CacheCreatorConfig{
			AwsBucket:       config.AwsBucket,
			AwsRegion:       config.AwsRegion,
			ImageFolder:     config.ImageFolder,
			MaxCacheWorkers: config.MaxCacheWorkers,
			S3Client:        s3Client,
			ShutdownCtx:     shutdownCtx,
		})
	}

	/*
	 * Setup controllers
	 */
	featuresController = features.NewFeaturesController(features.FeaturesControllerConfig{
		DefaultMode:  models.ParseCoordinateMode(config.CoordinateMode),
		Source:       featureSource,
		TrackBuilder: trackBuilder,
	})

	viewPositionController = viewpositions.NewViewPositionController(viewpositions.ViewPositionControllerConfig{
		Cache: viewPositionCache,
	})

	/*
	 * Setup router and http server
	 */
	slog.Debug("setting up routes...")

	apiMiddlewares := []mux.MiddlewareFunc{
		newRequestLoggerMiddleware(),
		newCorsMiddleware(configuration.SplitList(config.AllowedOrigins)),
	}

	routes := []mux.Route{
		{Path: "GET /heartbeat", HandlerFunc: heartbeat},
		{Path: "OPTIONS /api/", HandlerFunc: preflight, Middlewares: apiMiddlewares},
		{Path: "GET /api/features", HandlerFunc: featuresController.GetFeatures, Middlewares: apiMiddlewares},
		{Path: "GET /api/features/{id}/adjacent", HandlerFunc: featuresController.GetAdjacent, Middlewares: apiMiddlewares},
		{Path: "GET /api/tracks", HandlerFunc: featuresController.GetTracks, Middlewares: apiMiddlewares},
		{Path: "GET /api/tracks/summary", HandlerFunc: featuresController.GetTrackSummary, Middlewares: apiMiddlewares},
		{Path: "GET /api/view-positions/{id}", HandlerFunc: viewPositionController.GetViewPosition, Middlewares: apiMiddlewares},
		{Path: "PUT /api/view-positions/{id}", HandlerFunc: viewPositionController.SaveViewPosition, Middlewares: apiMiddlewares},
		{Path: "DELETE /api/view-positions", HandlerFunc: viewPositionController.ResetViewPositions, Middlewares: apiMiddlewares},
	}

	if s3Client != nil {
		imagesController = images.NewImagesController(images.ImagesControllerConfig{
			Bucket:      config.AwsBucket,
			ImageFolder: config.ImageFolder,
			S3Client:    s3Client,
		})

		routes = append(routes, mux.Route{Path: "GET /api/images/{key...}", HandlerFunc: imagesController.GetImage, Middlewares: apiMiddlewares})
	}

	routerConfig := mux.RouterConfig{
		Address:          config.Host,
		Debug:            Version == "development",
		HttpWriteTimeout: 60,
	}

	m := mux.SetupRouter(routerConfig, routes)
	httpServer, quit := mux.SetupServer(routerConfig, m)

	/*
	 * Start the cache creator job
	 */
	if cacheCreatorService != nil {
		setupCacheCreator(quit)
	}

	/*
	 * Wait for graceful shutdown
	 */
	slog.Info("server started")

	<-quit

	cancel()
	mux.Shutdown(httpServer)

	slog.Info("server stopped")
}

func heartbeat(w http.ResponseWriter, r *http.Request) {
	httphelpers.TextOK(w, "OK")
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

/*
setupFeatureSource picks where features come from. Only the photo server
API hands out URLs that need rewriting into the proxy form.
*/
func setupFeatureSource() (services.FeatureSourcer, services.TrackBuilderServicer) {
	var (
		err       error
		source    services.FeatureSourcer
		formatter *services.UrlFormatter
	)

	switch strings.ToLower(config.DataSource) {
	case services.DataSourceFile:
		source = services.NewFileFeatureSource(config.DataFile)

	case services.DataSourceCatalog:
		if db, err = services.OpenCatalog(config.DSN); err != nil {
			panic(err)
		}

		catalogService = services.NewCatalogService(services.CatalogServiceConfig{
			DB: db,
		})

		source = services.NewCatalogFeatureSource(services.CatalogFeatureSourceConfig{
			Catalog:      catalogService,
			ImageBaseURL: config.ImageBaseURL,
			StoreBaseURL: "/api/images",
		})

	default:
		origins := configuration.SplitList(config.ProxyOrigins)

		if u, err := url.Parse(config.UpstreamURL); err == nil && u.Host != "" {
			origins = append(origins, u.Host)
		}

		f := services.NewUrlFormatter(config.ProxyPath, origins)
		formatter = &f

		source = services.NewApiFeatureSource(services.ApiFeatureSourceConfig{
			Timeout: time.Duration(config.UpstreamTimeout) * time.Second,
			URL:     strings.TrimRight(config.UpstreamURL, "/") + config.FeaturesPath,
		})
	}

	builder := services.NewTrackBuilder(services.TrackBuilderConfig{
		Normalizer: services.NewRecordNormalizer(services.RecordNormalizerConfig{
			UrlFormatter: formatter,
		}),
	})

	return source, builder
}

func setupS3Client() s3.S3Client {
	var (
		err error
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
		panic(err)
	}

	client, err := s3.NewClient(awsConfig)

	if err != nil {
		panic(err)
	}

	return client
}

func setupCacheCreator(quit chan os.Signal) {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		running := true

		runner := func() {
			defer func() {
				running = false
			}()

			cacheCreatorService.CreateCache()
			slog.Info("cache creator finished.")
		}

		runner()

		for {
			select {
			case <-quit:
				return

			case <-ticker.C:
				if running {
					slog.Info("cache creator already running. skipping...")
					continue
				}

				runner()
			}
		}
	}()
}
