package services

import (
	"cmp"
	"errors"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/adampresley/streetview/pkg/models"
)

const DefaultTrackName = "default"

var (
	trackTokenPattern     = regexp.MustCompile(`img_([^_]+)`)
	numericTrackPattern   = regexp.MustCompile(`^(\d+)_\d+$`)
	trailingDigitsPattern = regexp.MustCompile(`_(\d+)$`)
	leadingDigitsPattern  = regexp.MustCompile(`^\d+`)
	nonDigitPattern       = regexp.MustCompile(`\D`)
)

type TrackBuilderServicer interface {
	Build(body []byte, mode models.CoordinateMode) (Collection, error)
}

type TrackBuilderConfig struct {
	Normalizer RecordNormalizer
}

type TrackBuilder struct {
	normalizer RecordNormalizer
}

func NewTrackBuilder(config TrackBuilderConfig) TrackBuilder {
	return TrackBuilder{
		normalizer: config.Normalizer,
	}
}

/*
Build runs the whole pipeline over a data source response: decode, parse,
normalize, partition, order and synthesize paths. Records that are not
objects are logged and skipped. The result is rebuilt from scratch on
every call.
*/
func (b TrackBuilder) Build(body []byte, mode models.CoordinateMode) (Collection, error) {
	var (
		err    error
		bodies [][]byte
		record models.RawRecord
	)

	if bodies, err = DecodeCollection(body); err != nil {
		return Collection{}, err
	}

	result := Collection{
		Mode:   mode,
		Points: make([]models.ImagePoint, 0, len(bodies)),
	}

	for index, recordBody := range bodies {
		if record, err = ParseRecord(recordBody); err != nil {
			slog.Warn("rejecting record", "index", index, "error", err)
			result.Rejected++
			continue
		}

		result.Points = append(result.Points, b.normalizer.Normalize(record))
	}

	result.Tracks = BuildTracks(result.Points, mode)
	return result, nil
}

/*
TrackName derives the track a point belongs to from its id. Rules are
applied in a fixed priority:
 1. "img_<token>..." uses the token verbatim ("img_track0_265" -> "track0")
 2. "<digits>_<digits>" becomes "track<first digits>" ("0_1" -> "track0")
 3. everything else lands in "default"
*/
func TrackName(id string) string {
	if match := trackTokenPattern.FindStringSubmatch(id); match != nil {
		return match[1]
	}

	if match := numericTrackPattern.FindStringSubmatch(id); match != nil {
		return "track" + match[1]
	}

	return DefaultTrackName
}

/*
SequenceNumber extracts the ordering key from an id. Ids with an underscore
use the digits after the last underscore, then the leading digits of the
second segment, then 0. Other ids use all of their digits.
*/
func SequenceNumber(id string) int64 {
	if strings.Contains(id, "_") {
		if match := trailingDigitsPattern.FindStringSubmatch(id); match != nil {
			return parseSequence(match[1])
		}

		segments := strings.Split(id, "_")
		return parseSequence(leadingDigitsPattern.FindString(segments[1]))
	}

	return parseSequence(nonDigitPattern.ReplaceAllString(id, ""))
}

func parseSequence(digits string) int64 {
	if digits == "" {
		return 0
	}

	n, err := strconv.ParseInt(digits, 10, 64)

	// ParseInt clamps to MaxInt64 on overflow, which still orders correctly
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}

	return n
}

func Partition(points []models.ImagePoint) map[string][]models.ImagePoint {
	result := map[string][]models.ImagePoint{}

	for _, point := range points {
		name := TrackName(point.ID)
		result[name] = append(result[name], point)
	}

	return result
}

// TrackNames lists track names in the order they first appear.
func TrackNames(points []models.ImagePoint) []string {
	result := []string{}
	seen := map[string]struct{}{}

	for _, point := range points {
		name := TrackName(point.ID)

		if _, ok := seen[name]; ok {
			continue
		}

		seen[name] = struct{}{}
		result = append(result, name)
	}

	return result
}

/*
OrderTrack returns a copy of points sorted by sequence number. The sort is
stable so equal keys keep their input order.
*/
func OrderTrack(points []models.ImagePoint) []models.ImagePoint {
	type keyed struct {
		sequence int64
		point    models.ImagePoint
	}

	items := make([]keyed, 0, len(points))

	for _, point := range points {
		items = append(items, keyed{sequence: SequenceNumber(point.ID), point: point})
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return cmp.Compare(a.sequence, b.sequence)
	})

	result := make([]models.ImagePoint, 0, len(items))

	for _, item := range items {
		result = append(result, item.point)
	}

	return result
}

// SynthesizePath emits exactly one vertex per point, in order.
func SynthesizePath(points []models.ImagePoint, mode models.CoordinateMode) []models.Coordinates {
	result := make([]models.Coordinates, 0, len(points))

	for _, point := range points {
		result = append(result, point.Coordinates(mode))
	}

	return result
}

func BuildTracks(points []models.ImagePoint, mode models.CoordinateMode) []models.Track {
	groups := Partition(points)
	result := []models.Track{}

	for _, name := range TrackNames(points) {
		ordered := OrderTrack(groups[name])

		result = append(result, models.Track{
			Name:   name,
			Points: ordered,
			Path:   SynthesizePath(ordered, mode),
		})
	}

	return result
}
