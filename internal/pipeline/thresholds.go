package pipeline

// Decision thresholds. Every comparison in the package reads from here.
const (
	// SignificanceGate is the stage-1 probability above which stage 2 runs.
	SignificanceGate = 0.3
	// AnomalyScoreCutoff: stage-2 scores strictly below it are anomalous.
	AnomalyScoreCutoff = -0.1

	AnomalyXClassFloor = 0.6
	XClassFloor        = 0.7
	MClassFloor        = 0.4
	CClassFloor        = 0.2

	HighBandFloor   = 0.6
	MediumBandFloor = 0.3

	// DegradedSignificance is reported when inference fails.
	DegradedSignificance = 0.3
)
