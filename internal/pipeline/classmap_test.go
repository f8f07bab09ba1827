package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FlareCast/internal/domain/models"
)

func TestMapClass(t *testing.T) {
	tests := []struct {
		name    string
		sig     float64
		anomaly bool
		want    models.FlareClass
	}{
		{"exactly 0.7 is M", 0.7, false, models.ClassM},
		{"above 0.7 is X", 0.71, false, models.ClassX},
		{"exactly 0.4 is C", 0.4, false, models.ClassC},
		{"exactly 0.2 is insignificant", 0.2, false, models.ClassInsignificant},
		{"zero is insignificant", 0.0, false, models.ClassInsignificant},
		{"one with anomaly is X", 1.0, true, models.ClassX},
		{"anomaly above 0.6 is X", 0.61, true, models.ClassX},
		{"anomaly at 0.6 falls through to M", 0.6, true, models.ClassM},
		{"anomaly does not lift low probability", 0.25, true, models.ClassC},
		{"M band", 0.55, false, models.ClassM},
		{"C band", 0.35, false, models.ClassC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapClass(tt.sig, tt.anomaly))
		})
	}
}

func TestMapClassIsDeterministic(t *testing.T) {
	for _, sig := range []float64{0, 0.2, 0.3, 0.4, 0.6, 0.7, 0.9, 1} {
		for _, a := range []bool{false, true} {
			first := MapClass(sig, a)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, MapClass(sig, a))
			}
		}
	}
}

func TestBand(t *testing.T) {
	assert.Equal(t, models.BandHigh, Band(0.61))
	assert.Equal(t, models.BandMedium, Band(0.6))
	assert.Equal(t, models.BandMedium, Band(0.31))
	assert.Equal(t, models.BandLow, Band(0.3))
	assert.Equal(t, models.BandLow, Band(0))
}
