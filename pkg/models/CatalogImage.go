package models

type CatalogImage struct {
	FileName    string  `db:"file_name"`
	FeatureID   string  `db:"feature_id"`
	Latitude    float64 `db:"latitude"`
	Longitude   float64 `db:"longitude"`
	ImageKey    string  `db:"image_key"`
	ExtractedAt string  `db:"extracted_at"`
}
