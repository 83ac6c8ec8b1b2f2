package cache

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/createbucketoptions"
	"github.com/adampresley/adamgokit/s3/geturloptions"
	"github.com/adampresley/adamgokit/s3/listoptions"
	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/streetview/pkg/services"
	"github.com/alitto/pond/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/nfnt/resize"
)

const (
	DefaultCompressedMaxSize uint = 2048
	compressedQuality             = 75
)

type CacheCreator interface {
	CreateCache()
}

type CacheCreatorConfig struct {
	AwsBucket         string
	AwsRegion         string
	CompressedMaxSize uint
	ImageFolder       string
	MaxCacheWorkers   int
	S3Client          s3.S3Client
	ShutdownCtx       context.Context
}

/*
CacheCreatorService keeps a compressed variant next to every panorama
original in the bucket. The viewer loads the compressed image first and
the original on demand.
*/
type CacheCreatorService struct {
	awsBucket         string
	awsRegion         string
	compressedMaxSize uint
	imageFolder       string
	maxCacheWorkers   int
	s3Client          s3.S3Client
	shutdownCtx       context.Context
}

func NewCacheCreatorService(config CacheCreatorConfig) CacheCreatorService {
	if config.CompressedMaxSize == 0 {
		config.CompressedMaxSize = DefaultCompressedMaxSize
	}

	if config.MaxCacheWorkers <= 0 {
		config.MaxCacheWorkers = 4
	}

	return CacheCreatorService{
		awsBucket:         config.AwsBucket,
		awsRegion:         config.AwsRegion,
		compressedMaxSize: config.CompressedMaxSize,
		imageFolder:       config.ImageFolder,
		maxCacheWorkers:   config.MaxCacheWorkers,
		s3Client:          config.S3Client,
		shutdownCtx:       config.ShutdownCtx,
	}
}

func (c CacheCreatorService) CreateCache() {
	var (
		err       error
		originals []s3.Object
	)

	slog.Info("starting compressed image cache creation...")

	if err = c.ensureBucketExists(c.awsBucket); err != nil {
		slog.Error("error ensuring bucket exists. skipping cache creation", "bucket", c.awsBucket, "error", err)
		return
	}

	if originals, err = c.getOriginalsListing(); err != nil {
		slog.Error("error retrieving panorama listing", "error", err)
		return
	}

	slog.Info("checking panoramas for compressed variants...", "numImages", len(originals))

	pool := pond.NewPool(c.maxCacheWorkers, pond.WithContext(c.shutdownCtx))

	for _, original := range originals {
		pool.Submit(func() {
			compressedKey := services.CompressedKey(original.Key)

			if !c.needsCompressedVariant(original, compressedKey) {
				return
			}

			slog.Info("creating compressed variant...", "key", original.Key, "compressedKey", compressedKey)

			if err := c.createCompressedVariant(original.Key, compressedKey); err != nil {
				slog.Error("error creating compressed variant", "key", original.Key, "error", err)
			}
		})
	}

	_ = pool.Stop().Wait()
}

func (c CacheCreatorService) ensureBucketExists(bucketName string) error {
	var (
		err    error
		exists bool
	)

	exists, err = c.s3Client.BucketExists(bucketName)

	if err != nil {
		return fmt.Errorf("error ensuring bucket '%s' exists: %w", bucketName, err)
	}

	if exists {
		return nil
	}

	slog.Info("creating bucket", "bucketName", bucketName)

	err = c.s3Client.CreateBucket(
		bucketName,
		createbucketoptions.WithRegion(c.awsRegion),
	)

	if err != nil {
		return fmt.Errorf("error creating bucket '%s': %w", bucketName, err)
	}

	return nil
}

func (c CacheCreatorService) getOriginalsListing() ([]s3.Object, error) {
	var (
		err      error
		response s3.ListResponse
		validExt = []string{".jpg", ".jpeg"}
	)

	key := filepath.ToSlash(filepath.Join(c.imageFolder, "originals"))

	response, err = c.s3Client.List(
		c.awsBucket,
		key,
		listoptions.WithGetAll(),
		listoptions.WithFilter(func(obj types.Object) bool {
			ext := strings.ToLower(filepath.Ext(aws.ToString(obj.Key)))
			return slices.IsInSlice(ext, validExt)
		}),
		listoptions.WithGetUrlOptions(
			geturloptions.WithExpiration(time.Minute*30),
		),
	)

	if err != nil {
		return nil, fmt.Errorf("error listing panoramas under '%s': %w", key, err)
	}

	return response.Objects, nil
}

func (c CacheCreatorService) needsCompressedVariant(original s3.Object, compressedKey string) bool {
	stat, err := c.s3Client.StatObject(c.awsBucket, compressedKey)

	if err != nil {
		slog.Error("error retrieving metadata for compressed variant", "key", compressedKey, "error", err)
		return false
	}

	return isStale(stat, original.LastModified)
}

func isStale(compressed *s3.ObjectMetadata, originalModified time.Time) bool {
	return compressed == nil || compressed.LastModified.Before(originalModified)
}

func (c CacheCreatorService) createCompressedVariant(originalKey, compressedKey string) error {
	var (
		err      error
		img      image.Image
		original s3.GetObjectResponse
		buf      bytes.Buffer
	)

	if original, err = c.s3Client.Get(c.awsBucket, originalKey); err != nil {
		return fmt.Errorf("error retrieving original image %s: %w", originalKey, err)
	}

	defer original.Body.Close()

	if img, err = resizeReader(original.Body, c.compressedMaxSize); err != nil {
		return fmt.Errorf("error resizing image: %w", err)
	}

	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: compressedQuality}); err != nil {
		return fmt.Errorf("error encoding compressed image: %w", err)
	}

	if _, err = c.s3Client.Put(c.awsBucket, compressedKey, &buf); err != nil {
		return fmt.Errorf("error uploading compressed image to S3: %w", err)
	}

	return nil
}

func resizeReader(r io.Reader, maxSize uint) (image.Image, error) {
	var (
		err error
		img image.Image
	)

	if img, _, err = image.Decode(r); err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	return resizeToFit(img, maxSize), nil
}

/*
resizeToFit scales the longest edge down to maxSize, keeping the aspect
ratio. Images already within bounds are returned as is.
*/
func resizeToFit(img image.Image, maxSize uint) image.Image {
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if width <= maxSize && height <= maxSize {
		return img
	}

	var newWidth, newHeight uint

	if width > height {
		newWidth = maxSize
		newHeight = uint(float64(height) * (float64(maxSize) / float64(width)))
	} else {
		newHeight = maxSize
		newWidth = uint(float64(width) * (float64(maxSize) / float64(height)))
	}

	return resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
}
