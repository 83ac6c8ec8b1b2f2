package viewmodels

import "github.com/adampresley/streetview/pkg/models"

type ViewPositionResult struct {
	BaseViewModel

	ID       string               `json:"id"`
	Position *models.ViewPosition `json:"position,omitempty"`
	Saved    bool                 `json:"saved"`
}

type ViewPositionReset struct {
	BaseViewModel

	Cleared int `json:"cleared"`
}
