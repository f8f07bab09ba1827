package spaceweather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"FlareCast/internal/domain/models"
	domsvc "FlareCast/internal/domain/service"
	xhttp "FlareCast/pkg/http"
	"FlareCast/pkg/logger"
	"FlareCast/pkg/util"
)

const (
	SourceDonki            = "NASA DONKI API"
	SourceEducational      = "Educational Data"
	SourceFallbackEducated = "Fallback Educational Data"
)

var _ domsvc.FlareFeed = (*DonkiClient)(nil)

type DonkiConfig struct {
	URL          string
	APIKey       string
	LookbackDays int
	Limit        int // most recent flares kept
}

// DonkiClient reads solar flare events from NASA DONKI. It never fails:
// an empty window or an upstream error yields canned flares marked as such.
type DonkiClient struct {
	cfg    DonkiConfig
	client *xhttp.Client
	log    *logger.Logger
	now    func() time.Time
}

func NewDonkiClient(cfg DonkiConfig, client *xhttp.Client, log *logger.Logger) *DonkiClient {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 3
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	return &DonkiClient{cfg: cfg, client: client, log: log, now: time.Now}
}

type donkiFlare struct {
	FlrID           string `json:"flrID"`
	BeginTime       string `json:"beginTime"`
	PeakTime        string `json:"peakTime"`
	EndTime         string `json:"endTime"`
	ClassType       string `json:"classType"`
	SourceLocation  string `json:"sourceLocation"`
	ActiveRegionNum *int   `json:"activeRegionNum"`
	Instruments     []struct {
		DisplayName string `json:"displayName"`
	} `json:"instruments"`
}

func (c *DonkiClient) RecentFlares(ctx context.Context) (models.FlareReport, error) {
	now := c.now().UTC()
	start, end := util.DayRange(now, c.cfg.LookbackDays)
	q := url.Values{
		"startDate": {start},
		"endDate":   {end},
		"api_key":   {c.cfg.APIKey},
	}

	var raw []donkiFlare
	err := c.client.GetJSON(ctx, c.cfg.URL, q, &raw)
	var status *xhttp.StatusError
	switch {
	case errors.As(err, &status):
		// DONKI answered, just not with data; treated like an empty window
		c.log.Warn("donki returned an error status", logger.Int("status", status.StatusCode))
		raw = nil
	case err != nil:
		c.log.Warn("donki fetch failed, serving fallback flares", logger.Error(err))
		return errorFallbackFlares(now), nil
	}
	if len(raw) == 0 {
		c.log.Info("donki returned no flares, serving educational data",
			logger.String("start", start), logger.String("end", end))
		return educationalFlares(now), nil
	}

	flares := make([]models.Flare, 0, len(raw))
	for _, r := range raw {
		flares = append(flares, r.toModel())
	}
	regions := distinctRegions(flares)
	if len(flares) > c.cfg.Limit {
		flares = flares[len(flares)-c.cfg.Limit:]
	}
	return models.FlareReport{
		Flares:     flares,
		Total:      len(raw),
		Regions:    regions,
		DataSource: SourceDonki,
		FetchedAt:  now,
	}, nil
}

func (r donkiFlare) toModel() models.Flare {
	f := models.Flare{
		ID:             r.FlrID,
		ClassType:      r.ClassType,
		SourceLocation: r.SourceLocation,
		Source:         "NASA DONKI",
	}
	f.BeginTime, _ = util.ParseTime(r.BeginTime)
	if t, ok := util.ParseTime(r.PeakTime); ok {
		f.PeakTime = &t
	}
	if t, ok := util.ParseTime(r.EndTime); ok {
		f.EndTime = &t
	}
	if r.ActiveRegionNum != nil {
		f.ActiveRegion = fmt.Sprintf("AR%d", *r.ActiveRegionNum)
	}
	if len(r.Instruments) > 0 {
		f.Source = r.Instruments[0].DisplayName
	}
	return f
}

func at(t time.Time) *time.Time { return &t }

// distinctRegions keeps first-seen order; flares without a region count once as "unknown".
func distinctRegions(flares []models.Flare) []string {
	seen := make(map[string]struct{}, len(flares))
	out := make([]string, 0, len(flares))
	for _, f := range flares {
		r := f.ActiveRegion
		if r == "" {
			r = "unknown"
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// educationalFlares stands in when DONKI answered but the window was empty.
func educationalFlares(now time.Time) models.FlareReport {
	flares := []models.Flare{
		{
			ClassType:    "B1.3",
			BeginTime:    now.Add(-2 * time.Hour),
			PeakTime:     at(now.Add(-time.Hour)),
			EndTime:      at(now.Add(-30 * time.Minute)),
			Source:       "GOES-18 Satellite",
			ActiveRegion: "AR13428",
		},
		{
			ClassType:    "B2.1",
			BeginTime:    now.Add(-5 * time.Hour),
			PeakTime:     at(now.Add(-4 * time.Hour)),
			EndTime:      at(now.Add(-3 * time.Hour)),
			Source:       "GOES-18 Satellite",
			ActiveRegion: "AR13425",
		},
	}
	return models.FlareReport{Flares: flares, Total: len(flares), Regions: distinctRegions(flares), DataSource: SourceEducational, Fallback: true, FetchedAt: now}
}

// errorFallbackFlares stands in when DONKI could not be reached at all.
func errorFallbackFlares(now time.Time) models.FlareReport {
	flares := []models.Flare{
		{
			ClassType:    "B1.3",
			BeginTime:    now.Add(-time.Hour),
			PeakTime:     at(now.Add(-45 * time.Minute)),
			Source:       "GOES-18 Satellite",
			ActiveRegion: "AR13428",
		},
		{
			ClassType:    "C1.2",
			BeginTime:    now.Add(-6 * time.Hour),
			PeakTime:     at(now.Add(-5 * time.Hour)),
			Source:       "SDO/AIA",
			ActiveRegion: "AR13425",
		},
	}
	return models.FlareReport{Flares: flares, Total: len(flares), Regions: distinctRegions(flares), DataSource: SourceFallbackEducated, Fallback: true, FetchedAt: now}
}
