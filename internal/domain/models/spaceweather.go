package models

import "time"

// Flare is a single DONKI FLR event, trimmed to what the API exposes.
type Flare struct {
	ID             string     `json:"flr_id,omitempty"`
	ClassType      string     `json:"class_type"`
	BeginTime      time.Time  `json:"begin_time"`
	PeakTime       *time.Time `json:"peak_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	SourceLocation string     `json:"source_location,omitempty"`
	ActiveRegion   string     `json:"active_region,omitempty"` // "AR13664"
	Source         string     `json:"source"`                  // instrument or satellite
}

// FlareReport is what the flare feed returns, live or canned.
type FlareReport struct {
	Flares     []Flare   `json:"live_flares"` // most recent only
	Total      int       `json:"flare_count"` // before truncation
	Regions    []string  `json:"regions"`     // distinct active regions across all flares
	DataSource string    `json:"data_source"`
	Fallback   bool      `json:"fallback"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// XRayFlux is the latest GOES long-channel reading.
type XRayFlux struct {
	Flux      float64   `json:"flux"`
	Energy    string    `json:"energy"`
	TimeTag   time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Satellite int       `json:"satellite,omitempty"`
	Fallback  bool      `json:"fallback"`
}

type SolarNow struct {
	Flares        []Flare   `json:"live_flares"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
	ActiveRegions int       `json:"active_regions"`
	DataSource    string    `json:"data_source"`
	FlareCount    int       `json:"flare_count"`
	Message       string    `json:"message"`
}

// XRayReading is the flux served to clients, with the feed's status line.
type XRayReading struct {
	XRayFlux
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Component states reported by the status endpoint.
const (
	ComponentActive   = "active"
	ComponentDemo     = "demo_mode"
	ComponentDisabled = "disabled"
	ComponentHealthy  = "healthy"
	ComponentDegraded = "degraded"
)

type SystemStatus struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Timestamp   time.Time         `json:"timestamp"`
	Components  map[string]string `json:"components"`
	DataSources []string          `json:"data_sources"`
	Message     string            `json:"message"`
}
