package models

// Track is an ordered run of points sharing a track name.
type Track struct {
	Name   string
	Points []ImagePoint
	Path   []Coordinates
}
