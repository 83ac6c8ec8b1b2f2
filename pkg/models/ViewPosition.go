package models

import "math"

type ViewPosition struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Hfov  float64 `json:"hfov"`
}

// DiffersBy reports whether any field moved more than threshold.
func (v ViewPosition) DiffersBy(other ViewPosition, threshold float64) bool {
	return math.Abs(v.Yaw-other.Yaw) > threshold ||
		math.Abs(v.Pitch-other.Pitch) > threshold ||
		math.Abs(v.Hfov-other.Hfov) > threshold
}

func (v ViewPosition) IsFinite() bool {
	return isFinite(v.Yaw) && isFinite(v.Pitch) && isFinite(v.Hfov)
}
