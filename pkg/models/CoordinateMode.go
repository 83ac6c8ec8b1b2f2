package models

import "strings"

type CoordinateMode string

const (
	CoordinateModeSnapped  CoordinateMode = "snapped"
	CoordinateModeOriginal CoordinateMode = "original"
)

/*
ParseCoordinateMode maps user input to a mode. Anything other than
"original" is treated as snapped.
*/
func ParseCoordinateMode(value string) CoordinateMode {
	if strings.EqualFold(strings.TrimSpace(value), string(CoordinateModeOriginal)) {
		return CoordinateModeOriginal
	}

	return CoordinateModeSnapped
}
