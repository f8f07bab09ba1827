package models

// Requests for the prediction HTTP endpoints.

type PredictRequest struct {
	Features []float64 `json:"features" validate:"required,min=1,max=256"`
}

type RecentPredictionsRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=500"`
}

// ScoringMessage is the Kafka payload on the features topic.
type ScoringMessage struct {
	ID       string    `json:"id"`
	Source   string    `json:"source,omitempty"`
	Features []float64 `json:"features"`
}
