package viewer

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/adampresley/streetview/pkg/models"
	"github.com/adampresley/streetview/pkg/services"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrSessionClosed = errors.New("viewer session is closed")
)

const (
	DefaultAutoPlayInterval = time.Second * 10
	DefaultSettleDelay      = time.Millisecond * 50
	DefaultAutoRotateSpeed  = 2.0

	nextHotspotYaw = 270
	prevHotspotYaw = 90
)

/*
Panorama is the rendering collaborator. One instance shows one image and
must be destroyed before another is created.
*/
type Panorama interface {
	Yaw() float64
	Pitch() float64
	Hfov() float64
	SetAutoRotate(speed float64)
	Destroy()
}

type Hotspot struct {
	TargetID  string
	Direction int
	Label     string
	Yaw       float64
	Pitch     float64
}

type PanoramaFactory func(point models.ImagePoint, position models.ViewPosition, hotspots []Hotspot) (Panorama, error)

// Navigator resolves images and their neighbours. services.Collection satisfies it.
type Navigator interface {
	Find(id string) (models.ImagePoint, bool)
	Adjacent(id string, direction int) string
}

type SessionConfig struct {
	AutoPlayInterval time.Duration
	AutoRotateSpeed  float64
	Navigator        Navigator
	NewPanorama      PanoramaFactory
	Positions        services.ViewPositionCacher
	SettleDelay      time.Duration
}

/*
Session holds everything one open viewer needs: the selected image, the
live panorama and the autoplay and settle timers. Create one when the
viewer opens and Close it when the viewer goes away.
*/
type Session struct {
	mu sync.Mutex

	autoPlayInterval time.Duration
	autoRotateSpeed  float64
	navigator        Navigator
	newPanorama      PanoramaFactory
	positions        services.ViewPositionCacher
	settleDelay      time.Duration

	autoPlaying   bool
	autoPlayTimer *time.Timer
	closed        bool
	generation    uint64
	panorama      Panorama
	selectedID    string
	settleTimer   *time.Timer
}

func NewSession(config SessionConfig) *Session {
	if config.AutoPlayInterval <= 0 {
		config.AutoPlayInterval = DefaultAutoPlayInterval
	}

	if config.AutoRotateSpeed <= 0 {
		config.AutoRotateSpeed = DefaultAutoRotateSpeed
	}

	if config.SettleDelay == 0 {
		config.SettleDelay = DefaultSettleDelay
	}

	// A negative delay creates panoramas immediately.
	if config.SettleDelay < 0 {
		config.SettleDelay = 0
	}

	return &Session{
		autoPlayInterval: config.AutoPlayInterval,
		autoRotateSpeed:  config.AutoRotateSpeed,
		navigator:        config.Navigator,
		newPanorama:      config.NewPanorama,
		positions:        config.Positions,
		settleDelay:      config.SettleDelay,
	}
}

func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.selectedID
}

func (s *Session) IsAutoPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.autoPlaying
}

func (s *Session) HasPanorama() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.panorama != nil
}

// Open shows the given image, releasing whatever was shown before.
func (s *Session) Open(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.openLocked(id)
}

// Next moves to the following image in the track. It reports false at the end.
func (s *Session) Next() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.moveLocked(1)
}

func (s *Session) Prev() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.moveLocked(-1)
}

// ToggleAutoPlay flips autoplay and returns the new state.
func (s *Session) ToggleAutoPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if s.autoPlaying {
		s.stopAutoPlayLocked()
		return false
	}

	s.autoPlaying = true

	if s.panorama != nil {
		s.panorama.SetAutoRotate(s.autoRotateSpeed)
	}

	s.scheduleAutoPlayLocked()
	return true
}

// SaveViewPosition records the live orientation of the current image.
func (s *Session) SaveViewPosition() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveViewPositionLocked()
}

/*
Close stops every timer and releases the panorama. The session cannot be
reused afterwards.
*/
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.stopAutoPlayLocked()
	s.releaseLocked()
	s.closed = true
	s.selectedID = ""
}

func (s *Session) openLocked(id string) error {
	if s.closed {
		return ErrSessionClosed
	}

	point, ok := s.navigator.Find(id)

	if !ok {
		return ErrImageNotFound
	}

	s.releaseLocked()
	s.selectedID = id
	s.generation++

	generation := s.generation

	if s.settleDelay == 0 {
		s.createPanoramaLocked(point)
	} else {
		s.settleTimer = time.AfterFunc(s.settleDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if s.closed || s.generation != generation {
				return
			}

			s.settleTimer = nil
			s.createPanoramaLocked(point)
		})
	}

	if s.autoPlaying {
		s.scheduleAutoPlayLocked()
	}

	return nil
}

func (s *Session) moveLocked(direction int) (bool, error) {
	if s.closed {
		return false, ErrSessionClosed
	}

	if s.selectedID == "" {
		return false, nil
	}

	target := s.navigator.Adjacent(s.selectedID, direction)

	if target == "" {
		return false, nil
	}

	if err := s.openLocked(target); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Session) createPanoramaLocked(point models.ImagePoint) {
	position := point.InitialViewPosition()

	if saved, ok := s.positions.Get(point.ID); ok {
		position = saved
	}

	panorama, err := s.newPanorama(point, position, s.hotspotsLocked(point.ID))

	if err != nil {
		slog.Error("error creating panorama", "imageID", point.ID, "error", err)
		return
	}

	if s.autoPlaying {
		panorama.SetAutoRotate(s.autoRotateSpeed)
	}

	s.panorama = panorama
}

func (s *Session) hotspotsLocked(id string) []Hotspot {
	result := []Hotspot{}

	if next := s.navigator.Adjacent(id, 1); next != "" {
		result = append(result, Hotspot{TargetID: next, Direction: 1, Label: "Next", Yaw: nextHotspotYaw})
	}

	if prev := s.navigator.Adjacent(id, -1); prev != "" {
		result = append(result, Hotspot{TargetID: prev, Direction: -1, Label: "Previous", Yaw: prevHotspotYaw})
	}

	return result
}

/*
releaseLocked cancels the pending settle timer and destroys the current
panorama after saving its orientation.
*/
func (s *Session) releaseLocked() {
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}

	if s.panorama == nil {
		return
	}

	s.saveViewPositionLocked()
	s.panorama.Destroy()
	s.panorama = nil
}

func (s *Session) saveViewPositionLocked() bool {
	if s.panorama == nil || s.selectedID == "" {
		return false
	}

	position := models.ViewPosition{
		Yaw:   s.panorama.Yaw(),
		Pitch: s.panorama.Pitch(),
		Hfov:  s.panorama.Hfov(),
	}

	return s.positions.Save(s.selectedID, position)
}

func (s *Session) scheduleAutoPlayLocked() {
	if s.autoPlayTimer != nil {
		s.autoPlayTimer.Stop()
	}

	generation := s.generation

	s.autoPlayTimer = time.AfterFunc(s.autoPlayInterval, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed || !s.autoPlaying || s.generation != generation {
			return
		}

		s.autoPlayTimer = nil
		moved, err := s.moveLocked(1)

		if err != nil || !moved {
			s.stopAutoPlayLocked()
		}
	})
}

func (s *Session) stopAutoPlayLocked() {
	s.autoPlaying = false

	if s.autoPlayTimer != nil {
		s.autoPlayTimer.Stop()
		s.autoPlayTimer = nil
	}

	if s.panorama != nil {
		s.panorama.SetAutoRotate(0)
	}
}
