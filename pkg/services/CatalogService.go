package services

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/adampresley/streetview/pkg/models"
	_ "github.com/glebarez/sqlite"
	"github.com/rfberaldo/sqlz"
	"github.com/rfberaldo/sqlz/binds"
)

var (
	//go:embed sql-migrations
	sqlMigrationsFs embed.FS

	registerBinds sync.Once
)

type CatalogServicer interface {
	GetAll() ([]models.CatalogImage, error)
	Upsert(image models.CatalogImage) error
}

type CatalogServiceConfig struct {
	DB *sqlz.DB
}

/*
CatalogService stores the GPS fix of every image the extractor has seen.
The website can serve its feature collection straight from this table.
*/
type CatalogService struct {
	db *sqlz.DB
}

func NewCatalogService(config CatalogServiceConfig) CatalogService {
	return CatalogService{
		db: config.DB,
	}
}

// OpenCatalog connects to the sqlite catalog and applies migrations.
func OpenCatalog(dsn string) (*sqlz.DB, error) {
	var (
		err error
		db  *sqlz.DB
	)

	registerBinds.Do(func() {
		binds.Register("sqlite", binds.BindByDriver("sqlite3"))
	})

	if db, err = sqlz.Connect("sqlite", dsn); err != nil {
		return nil, fmt.Errorf("error connecting to catalog '%s': %w", dsn, err)
	}

	if err = migrateCatalog(db); err != nil {
		return nil, err
	}

	return db, nil
}

func (s CatalogService) GetAll() ([]models.CatalogImage, error) {
	var (
		err    error
		images []models.CatalogImage
	)

	sql := `
SELECT
   i.file_name
   , i.feature_id
   , i.latitude
   , i.longitude
   , i.image_key
   , i.extracted_at
FROM images AS i
ORDER BY i.file_name
`

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.Query(ctx, &images, sql); err != nil {
		if sqlz.IsNotFound(err) {
			return []models.CatalogImage{}, nil
		}

		return nil, fmt.Errorf("error querying for catalog images: %w", err)
	}

	return images, nil
}

func (s CatalogService) Upsert(image models.CatalogImage) error {
	var (
		err error
	)

	sql := `
INSERT INTO images (
   file_name
   , feature_id
   , latitude
   , longitude
   , image_key
   , extracted_at
) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (file_name) DO UPDATE SET
   feature_id = excluded.feature_id
   , latitude = excluded.latitude
   , longitude = excluded.longitude
   , image_key = CASE WHEN excluded.image_key = '' THEN images.image_key ELSE excluded.image_key END
   , extracted_at = excluded.extracted_at
`

	params := []any{
		image.FileName,
		image.FeatureID,
		image.Latitude,
		image.Longitude,
		image.ImageKey,
		image.ExtractedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error upserting catalog image %s: %w", image.FileName, err)
	}

	return nil
}

func migrateCatalog(db *sqlz.DB) error {
	var (
		err  error
		dirs []fs.DirEntry
		b    []byte
	)

	if dirs, err = sqlMigrationsFs.ReadDir("sql-migrations"); err != nil {
		return fmt.Errorf("error reading catalog migrations: %w", err)
	}

	for _, d := range dirs {
		if d.IsDir() || !strings.HasPrefix(d.Name(), "commit") {
			continue
		}

		if b, err = fs.ReadFile(sqlMigrationsFs, path.Join("sql-migrations", d.Name())); err != nil {
			return fmt.Errorf("error reading migration %s: %w", d.Name(), err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		_, err = db.Exec(ctx, string(b))
		cancel()

		if err != nil && !isIgnorableError(err) {
			return fmt.Errorf("error running migration %s: %w", d.Name(), err)
		}
	}

	return nil
}

func isIgnorableError(err error) bool {
	if strings.Contains(err.Error(), "duplicate column") {
		return true
	}

	return false
}
