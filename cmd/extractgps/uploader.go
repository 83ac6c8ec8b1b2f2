package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/streetview/pkg/models"
	"github.com/alitto/pond/v2"
)

const defaultMaxWorkers = 4

/*
uploadOriginals copies every located image into the bucket under
<folder>/originals. It returns file name -> object key for the uploads
that succeeded. Failed uploads are logged and the image keeps its local URL.
*/
func uploadOriginals(ctx context.Context, client s3.S3Client, locations []models.ImageLocation) map[string]string {
	var (
		mu sync.Mutex
	)

	result := map[string]string{}
	pool := pond.NewPool(uploadWorkers(config.MaxWorkers), pond.WithContext(ctx))

	for _, location := range locations {
		pool.Submit(func() {
			key := filepath.ToSlash(filepath.Join(config.ImageFolder, "originals", location.FileName))

			if err := uploadFile(client, location.Path, key); err != nil {
				slog.Error("error uploading image", "file", location.FileName, "key", key, "error", err)
				return
			}

			slog.Debug("uploaded image", "file", location.FileName, "key", key)

			mu.Lock()
			result[location.FileName] = key
			mu.Unlock()
		})
	}

	_ = pool.Stop().Wait()
	return result
}

func uploadWorkers(maxWorkers int) int {
	if maxWorkers <= 0 {
		return defaultMaxWorkers
	}

	return maxWorkers
}

func uploadFile(client s3.S3Client, path, key string) error {
	f, err := os.Open(path)

	if err != nil {
		return fmt.Errorf("error opening '%s': %w", path, err)
	}

	defer f.Close()

	if _, err = client.Put(config.AwsBucket, key, f); err != nil {
		return fmt.Errorf("error putting '%s': %w", key, err)
	}

	return nil
}
