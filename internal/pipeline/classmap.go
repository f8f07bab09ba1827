package pipeline

import "FlareCast/internal/domain/models"

// MapClass converts a significance probability and anomaly flag into a flare
// class. Bands are checked top-down and lower bounds are exclusive.
func MapClass(significance float64, isAnomaly bool) models.FlareClass {
	switch {
	case isAnomaly && significance > AnomalyXClassFloor:
		return models.ClassX
	case significance > XClassFloor:
		return models.ClassX
	case significance > MClassFloor:
		return models.ClassM
	case significance > CClassFloor:
		return models.ClassC
	default:
		return models.ClassInsignificant
	}
}

// Band is the coarse confidence label shown next to a probability.
func Band(probability float64) models.ConfidenceBand {
	switch {
	case probability > HighBandFloor:
		return models.BandHigh
	case probability > MediumBandFloor:
		return models.BandMedium
	default:
		return models.BandLow
	}
}
