package spaceweather

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/domain/repository"
	domsvc "FlareCast/internal/domain/service"
	"FlareCast/pkg/cache"
)

const (
	flaresKey = "feeds:donki:flares"
	fluxKey   = "feeds:goes:xray"
)

var (
	_ domsvc.FlareFeed = (*CachedFeeds)(nil)
	_ domsvc.XRayFeed  = (*CachedFeeds)(nil)
)

// CachedFeeds puts both feeds behind a shared cache. Concurrent misses for
// the same feed collapse into one upstream call. The upstream call is
// detached from the caller's cancellation and bounded by the feed client's
// own timeout, so one dropped request cannot poison the shared result.
type CachedFeeds struct {
	flares  domsvc.FlareFeed
	xray    domsvc.XRayFeed
	cache   cache.Service
	ttl     time.Duration
	metrics repository.Metrics
	group   singleflight.Group
}

func NewCachedFeeds(flares domsvc.FlareFeed, xray domsvc.XRayFeed, c cache.Service, ttl time.Duration, m repository.Metrics) *CachedFeeds {
	return &CachedFeeds{flares: flares, xray: xray, cache: c, ttl: ttl, metrics: m}
}

func (f *CachedFeeds) RecentFlares(ctx context.Context) (models.FlareReport, error) {
	v, err, _ := f.group.Do(flaresKey, func() (interface{}, error) {
		report, hit, err := cache.RememberWhen(context.WithoutCancel(ctx), f.cache, flaresKey, f.ttl, f.flares.RecentFlares,
			func(r models.FlareReport) bool { return !r.Fallback || ctx.Err() == nil })
		if err == nil && !hit && report.Fallback {
			f.metrics.RecordFeedFallback("donki")
		}
		return report, err
	})
	if err != nil {
		return models.FlareReport{}, err
	}
	return v.(models.FlareReport), nil
}

func (f *CachedFeeds) LatestFlux(ctx context.Context) (models.XRayFlux, error) {
	v, err, _ := f.group.Do(fluxKey, func() (interface{}, error) {
		flux, hit, err := cache.RememberWhen(context.WithoutCancel(ctx), f.cache, fluxKey, f.ttl, f.xray.LatestFlux,
			func(x models.XRayFlux) bool { return !x.Fallback || ctx.Err() == nil })
		if err == nil && !hit && flux.Fallback {
			f.metrics.RecordFeedFallback("goes")
		}
		return flux, err
	})
	if err != nil {
		return models.XRayFlux{}, err
	}
	return v.(models.XRayFlux), nil
}
