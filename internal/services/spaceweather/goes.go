package spaceweather

import (
	"context"
	"time"

	"FlareCast/internal/domain/models"
	domsvc "FlareCast/internal/domain/service"
	xhttp "FlareCast/pkg/http"
	"FlareCast/pkg/logger"
	"FlareCast/pkg/util"
)

const (
	// LongChannel is the 0.1-0.8 nm band flare classes are defined on.
	LongChannel = "0.1-0.8nm"
	// FallbackFlux is a quiet-sun B1.3 reading.
	FallbackFlux   = 1.3e-6
	SourceGoes     = "NOAA GOES Satellite"
	SourceGoesCold = "NOAA GOES-18 Satellite"
)

var _ domsvc.XRayFeed = (*GoesClient)(nil)

// GoesClient reads the SWPC GOES X-ray JSON feed.
type GoesClient struct {
	url    string
	client *xhttp.Client
	log    *logger.Logger
	now    func() time.Time
}

func NewGoesClient(url string, client *xhttp.Client, log *logger.Logger) *GoesClient {
	return &GoesClient{url: url, client: client, log: log, now: time.Now}
}

type goesRecord struct {
	TimeTag   string   `json:"time_tag"`
	Satellite int      `json:"satellite"`
	Flux      *float64 `json:"flux"`
	Energy    string   `json:"energy"`
}

func (c *GoesClient) LatestFlux(ctx context.Context) (models.XRayFlux, error) {
	var records []goesRecord
	if err := c.client.GetJSON(ctx, c.url, nil, &records); err != nil {
		c.log.Warn("goes fetch failed, serving fallback flux", logger.Error(err))
		return c.fallback(), nil
	}

	rec, ok := latest(records)
	if !ok {
		c.log.Warn("goes feed had no usable records, serving fallback flux", logger.Int("records", len(records)))
		return c.fallback(), nil
	}

	energy := rec.Energy
	if energy == "" {
		energy = LongChannel
	}
	return models.XRayFlux{
		Flux:      *rec.Flux,
		Energy:    energy,
		TimeTag:   util.ParseTimeDefault(rec.TimeTag, c.now().UTC()),
		Source:    SourceGoes,
		Satellite: rec.Satellite,
	}, nil
}

// latest prefers the newest long-channel record, then the newest record with a flux.
func latest(records []goesRecord) (goesRecord, bool) {
	for i := len(records) - 1; i >= 0; i-- {
		if r := records[i]; r.Flux != nil && r.Energy == LongChannel {
			return r, true
		}
	}
	for i := len(records) - 1; i >= 0; i-- {
		if r := records[i]; r.Flux != nil {
			return r, true
		}
	}
	return goesRecord{}, false
}

func (c *GoesClient) fallback() models.XRayFlux {
	return models.XRayFlux{
		Flux:     FallbackFlux,
		Energy:   LongChannel,
		TimeTag:  c.now().UTC(),
		Source:   SourceGoesCold,
		Fallback: true,
	}
}
