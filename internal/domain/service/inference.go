package service

import (
	"context"

	"FlareCast/internal/domain/models"
)

// SignificanceClassifier is the stage-1 model: probability that an observation
// precedes a significant (C/M/X) flare.
type SignificanceClassifier interface {
	Significance(ctx context.Context, features models.FeatureVector) (float64, error)
	Name() string
}

// AnomalyScorer is the stage-2 model. Lower scores are more anomalous.
type AnomalyScorer interface {
	Score(ctx context.Context, features models.FeatureVector) (float64, error)
	Name() string
}

// FlareFeed returns recent flare events, live or canned.
type FlareFeed interface {
	RecentFlares(ctx context.Context) (models.FlareReport, error)
}

// XRayFeed returns the latest GOES X-ray flux, live or canned.
type XRayFeed interface {
	LatestFlux(ctx context.Context) (models.XRayFlux, error)
}
