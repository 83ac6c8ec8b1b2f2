package models

// ImageLocation is the GPS fix read from one image file.
type ImageLocation struct {
	FileName string
	Path     string
	Lat      float64
	Lng      float64
}
