package services

import (
	"sync"

	"github.com/adampresley/streetview/pkg/models"
)

// Changes at or below this many degrees are treated as noise.
const ViewPositionThreshold float64 = 1

type ViewPositionCacher interface {
	Get(imageID string) (models.ViewPosition, bool)
	Save(imageID string, position models.ViewPosition) bool
	Reset()
	Len() int
}

/*
ViewPositionCache remembers the last look direction per image id. It lives
in memory only and is emptied by Reset or a restart.
*/
type ViewPositionCache struct {
	mu        sync.RWMutex
	positions map[string]models.ViewPosition
}

func NewViewPositionCache() *ViewPositionCache {
	return &ViewPositionCache{
		positions: map[string]models.ViewPosition{},
	}
}

func (c *ViewPositionCache) Get(imageID string) (models.ViewPosition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	position, ok := c.positions[imageID]
	return position, ok
}

/*
Save stores position when nothing is stored yet or when any field differs
from the stored value by more than ViewPositionThreshold. It reports
whether a write happened.
*/
func (c *ViewPositionCache) Save(imageID string, position models.ViewPosition) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, ok := c.positions[imageID]; ok && !current.DiffersBy(position, ViewPositionThreshold) {
		return false
	}

	c.positions[imageID] = position
	return true
}

func (c *ViewPositionCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.positions = map[string]models.ViewPosition{}
}

func (c *ViewPositionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.positions)
}
