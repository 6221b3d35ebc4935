// Package rating classifies interview answers via a completion call with a
// strict JSON output contract, degrading to a default verdict on any
// malformed response.
package rating

// Rating is the classifier's verdict on an answer
type Rating string

// Rating constants. RatingUnknown is the zero value; it normalizes to the
// default verdict so unvalidated upstream strings never leak through.
const (
	RatingUnknown  Rating = ""
	RatingGood     Rating = "GOOD"
	RatingVague    Rating = "VAGUE"
	RatingOffTopic Rating = "OFF_TOPIC"
)

// Valid reports whether r is one of the closed set of verdicts
func (r Rating) Valid() bool {
	switch r {
	case RatingGood, RatingVague, RatingOffTopic:
		return true
	}
	return false
}

// Normalize maps anything outside the closed set to the default verdict
func (r Rating) Normalize() Rating {
	if r.Valid() {
		return r
	}
	return RatingVague
}

// Notes carries the classifier's structured commentary on an answer
type Notes struct {
	Summary     string   `json:"summary"`
	Hints       []string `json:"hints"`
	MissingDims []string `json:"missing_dims,omitempty"`
}

// Evaluation is the full verdict persisted alongside an answer
type Evaluation struct {
	Rating Rating `json:"rating"`
	Notes  Notes  `json:"notes"`
}
