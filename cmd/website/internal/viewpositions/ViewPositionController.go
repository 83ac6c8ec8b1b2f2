package viewpositions

import (
	"log/slog"
	"net/http"

	"github.com/adampresley/streetview/cmd/website/internal/viewmodels"
	"github.com/adampresley/streetview/pkg/models"
	"github.com/adampresley/streetview/pkg/services"
	"github.com/goccy/go-json"
)

type ViewPositionHandlers interface {
	GetViewPosition(w http.ResponseWriter, r *http.Request)
	SaveViewPosition(w http.ResponseWriter, r *http.Request)
	ResetViewPositions(w http.ResponseWriter, r *http.Request)
}

type ViewPositionControllerConfig struct {
	Cache services.ViewPositionCacher
}

// viewPositionRequest uses pointers so a missing field can be told apart from zero.
type viewPositionRequest struct {
	Yaw   *float64 `json:"yaw"`
	Pitch *float64 `json:"pitch"`
	Hfov  *float64 `json:"hfov"`
}

type ViewPositionController struct {
	cache services.ViewPositionCacher
}

func NewViewPositionController(config ViewPositionControllerConfig) ViewPositionController {
	return ViewPositionController{
		cache: config.Cache,
	}
}

/*
GET /api/view-positions/{id}
*/
func (c ViewPositionController) GetViewPosition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	position, ok := c.cache.Get(id)

	if !ok {
		viewmodels.WriteError(w, http.StatusNotFound, "no view position saved for this image")
		return
	}

	viewmodels.WriteJSON(w, http.StatusOK, viewmodels.ViewPositionResult{
		BaseViewModel: viewmodels.Success(),
		ID:            id,
		Position:      &position,
		Saved:         true,
	})
}

/*
PUT /api/view-positions/{id}
*/
func (c ViewPositionController) SaveViewPosition(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		request viewPositionRequest
	)

	id := r.PathValue("id")

	if err = json.NewDecoder(r.Body).Decode(&request); err != nil {
		slog.Error("error decoding view position", "imageID", id, "error", err)
		viewmodels.WriteError(w, http.StatusBadRequest, "invalid view position")
		return
	}

	if request.Yaw == nil || request.Pitch == nil || request.Hfov == nil {
		viewmodels.WriteError(w, http.StatusBadRequest, "yaw, pitch and hfov are required")
		return
	}

	position := models.ViewPosition{
		Yaw:   *request.Yaw,
		Pitch: *request.Pitch,
		Hfov:  *request.Hfov,
	}

	if !position.IsFinite() {
		viewmodels.WriteError(w, http.StatusBadRequest, "view position values must be finite")
		return
	}

	saved := c.cache.Save(id, position)
	stored, _ := c.cache.Get(id)

	slog.Debug("view position received", "imageID", id, "saved", saved)

	viewmodels.WriteJSON(w, http.StatusOK, viewmodels.ViewPositionResult{
		BaseViewModel: viewmodels.Success(),
		ID:            id,
		Position:      &stored,
		Saved:         saved,
	})
}

/*
DELETE /api/view-positions
*/
func (c ViewPositionController) ResetViewPositions(w http.ResponseWriter, r *http.Request) {
	cleared := c.cache.Len()
	c.cache.Reset()

	slog.Info("view positions reset", "cleared", cleared)

	viewmodels.WriteJSON(w, http.StatusOK, viewmodels.ViewPositionReset{
		BaseViewModel: viewmodels.Success(),
		Cleared:       cleared,
	})
}
