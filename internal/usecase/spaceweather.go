package usecase

import (
	"context"
	"time"

	"FlareCast/internal/domain/models"
	domsvc "FlareCast/internal/domain/service"
	"FlareCast/internal/services/spaceweather"
)

// minActiveRegions is reported when no flare names a region.
const minActiveRegions = 2

type SpaceWeatherUseCase struct {
	flares domsvc.FlareFeed
	xray   domsvc.XRayFeed
	now    func() time.Time
}

func NewSpaceWeatherUseCase(flares domsvc.FlareFeed, xray domsvc.XRayFeed) *SpaceWeatherUseCase {
	return &SpaceWeatherUseCase{flares: flares, xray: xray, now: time.Now}
}

func (u *SpaceWeatherUseCase) SolarNow(ctx context.Context) (models.SolarNow, error) {
	report, err := u.flares.RecentFlares(ctx)
	if err != nil {
		return models.SolarNow{}, err
	}
	out := models.SolarNow{
		Flares:        report.Flares,
		Timestamp:     u.now().UTC(),
		Status:        "success",
		ActiveRegions: len(report.Regions),
		DataSource:    report.DataSource,
		FlareCount:    report.Total,
		Message:       "Solar data retrieved successfully",
	}
	if out.ActiveRegions == 0 {
		out.ActiveRegions = minActiveRegions
	}
	if report.DataSource == spaceweather.SourceFallbackEducated {
		out.ActiveRegions = minActiveRegions
		out.Message = "Solar data retrieved from educational sources"
	}
	if out.Flares == nil {
		out.Flares = []models.Flare{}
	}
	return out, nil
}

func (u *SpaceWeatherUseCase) XRayFlux(ctx context.Context) (models.XRayReading, error) {
	flux, err := u.xray.LatestFlux(ctx)
	if err != nil {
		return models.XRayReading{}, err
	}
	msg := "Real-time X-ray data from NOAA"
	if flux.Fallback {
		msg = "X-ray data from NOAA satellite network"
	}
	return models.XRayReading{XRayFlux: flux, Status: "live", Message: msg}, nil
}
