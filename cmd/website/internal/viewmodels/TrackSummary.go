package viewmodels

type TrackSummary struct {
	Name       string `json:"name"`
	PointCount int    `json:"pointCount"`
	FirstID    string `json:"firstId"`
}

type TrackList struct {
	BaseViewModel

	Mode     string         `json:"mode"`
	Tracks   []TrackSummary `json:"tracks"`
	Rejected int            `json:"rejected"`
}
