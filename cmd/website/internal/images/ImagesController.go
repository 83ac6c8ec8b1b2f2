package images

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/adamgokit/s3/getoptions"
)

type ImagesHandlers interface {
	GetImage(w http.ResponseWriter, r *http.Request)
}

type ImagesControllerConfig struct {
	Bucket      string
	ImageFolder string
	S3Client    s3.S3Client
}

type ImagesController struct {
	bucket      string
	imageFolder string
	s3Client    s3.S3Client
}

func NewImagesController(config ImagesControllerConfig) ImagesController {
	return ImagesController{
		bucket:      config.Bucket,
		imageFolder: strings.Trim(config.ImageFolder, "/"),
		s3Client:    config.S3Client,
	}
}

/*
GET /api/images/{key...}
*/
func (c ImagesController) GetImage(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		stat   *s3.ObjectMetadata
		object s3.GetObjectResponse
	)

	key := path.Clean("/" + r.PathValue("key"))[1:]

	if key == "" || (c.imageFolder != "" && !strings.HasPrefix(key, c.imageFolder+"/")) {
		httphelpers.WriteText(w, http.StatusNotFound, "Not found")
		return
	}

	if stat, err = c.s3Client.StatObject(c.bucket, key); err != nil {
		slog.Error("error retrieving image metadata", "error", err, "bucket", c.bucket, "key", key)
		httphelpers.TextInternalServerError(w, "Failed to load image")
		return
	}

	if stat == nil {
		httphelpers.WriteText(w, http.StatusNotFound, "Not found")
		return
	}

	object, err = c.s3Client.Get(
		c.bucket,
		key,
		getoptions.WithContext(r.Context()),
		getoptions.WithTimeout(time.Minute*5),
	)

	if err != nil {
		slog.Error("error getting image object from S3", "error", err, "bucket", c.bucket, "key", key)
		httphelpers.TextInternalServerError(w, "Failed to load image")
		return
	}

	defer object.Body.Close()

	w.Header().Set("Content-Type", object.ContentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", object.Size))
	w.Header().Set("Cache-Control", "public, max-age=86400")

	_, _ = io.Copy(w, object.Body)
}
