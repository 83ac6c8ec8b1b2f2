package viewpositions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adampresley/streetview/pkg/models"
	"github.com/adampresley/streetview/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func put(controller ViewPositionController, id, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPut, "/api/view-positions/"+id, strings.NewReader(body))
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()

	controller.SaveViewPosition(w, r)
	return w
}

func TestSaveViewPositionAppliesThreshold(t *testing.T) {
	cache := services.NewViewPositionCache()
	controller := NewViewPositionController(ViewPositionControllerConfig{Cache: cache})

	w := put(controller, "img_a_1", `{"yaw": 10, "pitch": 0, "hfov": 100}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "saved").Bool())

	w = put(controller, "img_a_1", `{"yaw": 10.4, "pitch": 0, "hfov": 100}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gjson.Get(w.Body.String(), "saved").Bool())
	assert.Equal(t, 10.0, gjson.Get(w.Body.String(), "position.yaw").Float())

	w = put(controller, "img_a_1", `{"yaw": 12, "pitch": 0, "hfov": 100}`)
	assert.True(t, gjson.Get(w.Body.String(), "saved").Bool())

	stored, ok := cache.Get("img_a_1")
	require.True(t, ok)
	assert.Equal(t, models.ViewPosition{Yaw: 12, Pitch: 0, Hfov: 100}, stored)
}

func TestSaveViewPositionRejectsBadBody(t *testing.T) {
	controller := NewViewPositionController(ViewPositionControllerConfig{Cache: services.NewViewPositionCache()})

	w := put(controller, "img_a_1", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveViewPositionRequiresEveryField(t *testing.T) {
	cache := services.NewViewPositionCache()
	controller := NewViewPositionController(ViewPositionControllerConfig{Cache: cache})

	for _, body := range []string{`{"yaw": 12}`, `{"yaw": 12, "pitch": 0}`, `{}`} {
		w := put(controller, "img_a_1", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}

	_, ok := cache.Get("img_a_1")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())

	w := put(controller, "img_a_1", `{"yaw": 0, "pitch": 0, "hfov": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetViewPosition(t *testing.T) {
	cache := services.NewViewPositionCache()
	cache.Save("img_a_1", models.ViewPosition{Yaw: 90, Pitch: 5, Hfov: 70})
	controller := NewViewPositionController(ViewPositionControllerConfig{Cache: cache})

	r := httptest.NewRequest(http.MethodGet, "/api/view-positions/img_a_1", nil)
	r.SetPathValue("id", "img_a_1")
	w := httptest.NewRecorder()
	controller.GetViewPosition(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 90.0, gjson.Get(w.Body.String(), "position.yaw").Float())

	r = httptest.NewRequest(http.MethodGet, "/api/view-positions/other", nil)
	r.SetPathValue("id", "other")
	w = httptest.NewRecorder()
	controller.GetViewPosition(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetViewPositions(t *testing.T) {
	cache := services.NewViewPositionCache()
	cache.Save("a", models.ViewPosition{Yaw: 1})
	cache.Save("b", models.ViewPosition{Yaw: 2})
	controller := NewViewPositionController(ViewPositionControllerConfig{Cache: cache})

	r := httptest.NewRequest(http.MethodDelete, "/api/view-positions", nil)
	w := httptest.NewRecorder()
	controller.ResetViewPositions(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "cleared").Int())
	assert.Equal(t, 0, cache.Len())
}
