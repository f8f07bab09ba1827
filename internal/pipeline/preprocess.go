package pipeline

import (
	"math"

	"FlareCast/internal/domain/models"
)

// Preprocessor validates and cleans raw feature vectors for a fixed feature order.
type Preprocessor struct {
	names  []string
	bounds []*Range // per position, nil when the feature has no range
}

func NewPreprocessor(names []string, ranges RangeTable) *Preprocessor {
	p := &Preprocessor{
		names:  append([]string(nil), names...),
		bounds: make([]*Range, len(names)),
	}
	for i, n := range names {
		if r, ok := ranges.Lookup(n); ok {
			r := r
			p.bounds[i] = &r
		}
	}
	return p
}

func (p *Preprocessor) FeatureNames() []string {
	return append([]string(nil), p.names...)
}

// Preprocess fills missing values and clamps every ranged feature.
// raw is left untouched.
func (p *Preprocessor) Preprocess(raw models.FeatureVector) (models.FeatureVector, error) {
	if len(raw) != len(p.names) {
		return nil, &FeatureCountMismatchError{
			Expected:      len(p.names),
			Actual:        len(raw),
			ExpectedNames: p.FeatureNames(),
		}
	}

	out := raw.Clone()
	fillMissing(out)
	for i, b := range p.bounds {
		if b != nil {
			out[i] = b.Clamp(out[i])
		}
	}
	return out, nil
}

// fillMissing applies forward then backward fill down each column. A request
// carries a single row, so no neighbour exists and every gap becomes 0.
func fillMissing(row models.FeatureVector) {
	for i, v := range row {
		if missing(v) {
			row[i] = 0
		}
	}
}

func missing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
