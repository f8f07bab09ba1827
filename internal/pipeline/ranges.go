package pipeline

import "sort"

// Range is an inclusive clamp interval.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// RangeTable maps a feature name to its physically plausible interval.
// The zero value is an empty table. Tables are never modified after construction.
type RangeTable struct {
	bounds map[string]Range
}

func NewRangeTable(bounds map[string]Range) RangeTable {
	cp := make(map[string]Range, len(bounds))
	for k, v := range bounds {
		cp[k] = v
	}
	return RangeTable{bounds: cp}
}

func (t RangeTable) Lookup(name string) (Range, bool) {
	r, ok := t.bounds[name]
	return r, ok
}

func (t RangeTable) Len() int { return len(t.bounds) }

// Names returns the covered feature names, sorted.
func (t RangeTable) Names() []string {
	out := make([]string, 0, len(t.bounds))
	for k := range t.bounds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SHARP keywords in the order the models were trained on.
var defaultFeatureNames = [...]string{
	"R_VALUE", "QUALITY", "MEANGBZ", "TOTUSJH", "USFLUX", "TOTPOT", "MEANPOT", "AREA_ACR",
	"LON_MIN", "LON_MAX", "LAT_MIN", "LAT_MAX", "MEANGAM", "MEANGBT", "MEANGBH", "MEANJZD",
	"TOTUSJZ", "MEANALP", "MEANJZH", "ABSNJZH", "SAVNCPP", "MEANSHR", "SHRGT45",
}

var defaultRanges = map[string]Range{
	"R_VALUE":  {-100, 100},
	"QUALITY":  {0, 1},
	"MEANGBZ":  {-2000, 2000},
	"TOTUSJH":  {0, 1e6},
	"USFLUX":   {0, 1e24},
	"TOTPOT":   {0, 1e33},
	"MEANPOT":  {0, 1e8},
	"AREA_ACR": {0, 5000},
	"LON_MIN":  {-180, 180},
	"LON_MAX":  {-180, 180},
	"LAT_MIN":  {-90, 90},
	"LAT_MAX":  {-90, 90},
	"MEANGAM":  {-90, 90},
	"MEANGBT":  {0, 5000},
	"MEANGBH":  {0, 5000},
	"MEANJZD":  {-1, 1},
	"TOTUSJZ":  {-1e14, 1e14},
	"MEANALP":  {-1e-7, 1e-7},
	"MEANJZH":  {0, 1e5},
	"ABSNJZH":  {0, 1e5},
	"SAVNCPP":  {0, 1e6},
	"MEANSHR":  {0, 1},
	"SHRGT45":  {0, 1},
}

// DefaultFeatureNames returns a fresh copy of the training-time feature order.
func DefaultFeatureNames() []string {
	out := make([]string, len(defaultFeatureNames))
	copy(out, defaultFeatureNames[:])
	return out
}

func DefaultRanges() RangeTable {
	return NewRangeTable(defaultRanges)
}
