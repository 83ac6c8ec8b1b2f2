package models

type RecordKind int

const (
	RecordKindFlat RecordKind = iota
	RecordKindFeature
)

func (k RecordKind) String() string {
	if k == RecordKindFeature {
		return "feature"
	}

	return "flat"
}

/*
RawRecord is a single source record that has been confirmed to be a JSON
object. Flat records are rows from the photo server API, Feature records
are GeoJSON features that may already carry the output shape in their
properties.
*/
type RawRecord struct {
	Kind RecordKind
	Body []byte
}
