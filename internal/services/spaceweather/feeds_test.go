package spaceweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlareCast/pkg/cache"
	xhttp "FlareCast/pkg/http"
	"FlareCast/pkg/logger"
	"FlareCast/pkg/metrics"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

const donkiBody = `[
 {"flrID":"2024-05-09T17:23:00-FLR-001","beginTime":"2024-05-09T17:23Z","peakTime":"2024-05-09T17:44Z","endTime":"2024-05-09T18:00Z","classType":"X1.1","sourceLocation":"S13W31","activeRegionNum":13664,"instruments":[{"displayName":"GOES-P: EXIS 1.0-8.0"}]},
 {"flrID":"2024-05-10T06:27:00-FLR-001","beginTime":"2024-05-10T06:27Z","peakTime":"2024-05-10T06:54Z","endTime":null,"classType":"X3.9","sourceLocation":"S17W29","activeRegionNum":13664,"instruments":[]},
 {"flrID":"2024-05-10T09:01:00-FLR-001","beginTime":"2024-05-10T09:01Z","classType":"M2.3","sourceLocation":"N20E10","activeRegionNum":null}
]`

func serve(t *testing.T, status int, body string, seen *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			seen.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newDonki(url string, limit int) *DonkiClient {
	c := NewDonkiClient(DonkiConfig{URL: url, APIKey: "DEMO_KEY", Limit: limit}, xhttp.NewClient(xhttp.WithTimeout(2*time.Second)), logger.Nop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestDonkiParsesLiveFlares(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(donkiBody))
	}))
	defer srv.Close()

	report, err := newDonki(srv.URL, 2).RecentFlares(context.Background())
	require.NoError(t, err)

	assert.Contains(t, query, "startDate=2024-05-07")
	assert.Contains(t, query, "endDate=2024-05-10")
	assert.Contains(t, query, "api_key=DEMO_KEY")

	assert.Equal(t, SourceDonki, report.DataSource)
	assert.False(t, report.Fallback)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.Flares, 2, "only the most recent flares are kept")

	x := report.Flares[0]
	assert.Equal(t, "X3.9", x.ClassType)
	assert.Equal(t, "AR13664", x.ActiveRegion)
	assert.Equal(t, time.Date(2024, 5, 10, 6, 27, 0, 0, time.UTC), x.BeginTime)
	require.NotNil(t, x.PeakTime)
	assert.Nil(t, x.EndTime)
	assert.Equal(t, "NASA DONKI", x.Source)
	assert.Empty(t, report.Flares[1].ActiveRegion)
	assert.Equal(t, []string{"AR13664", "unknown"}, report.Regions)
}

func TestDonkiEmptyWindowServesEducationalData(t *testing.T) {
	srv := serve(t, http.StatusOK, `[]`, nil)

	report, err := newDonki(srv.URL, 5).RecentFlares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceEducational, report.DataSource)
	assert.True(t, report.Fallback)
	require.Len(t, report.Flares, 2)
	assert.Equal(t, "B1.3", report.Flares[0].ClassType)
	assert.Equal(t, "AR13428", report.Flares[0].ActiveRegion)
	assert.Equal(t, "B2.1", report.Flares[1].ClassType)
}

func TestDonkiErrorStatusServesEducationalData(t *testing.T) {
	srv := serve(t, http.StatusTooManyRequests, `{"error":"OVER_RATE_LIMIT"}`, nil)

	report, err := newDonki(srv.URL, 5).RecentFlares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceEducational, report.DataSource)
}

func TestDonkiUnreachableServesFallback(t *testing.T) {
	srv := serve(t, http.StatusOK, `not json`, nil)

	report, err := newDonki(srv.URL, 5).RecentFlares(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceFallbackEducated, report.DataSource)
	require.Len(t, report.Flares, 2)
	assert.Equal(t, "C1.2", report.Flares[1].ClassType)
	assert.Equal(t, "SDO/AIA", report.Flares[1].Source)
}

func newGoes(url string) *GoesClient {
	c := NewGoesClient(url, xhttp.NewClient(xhttp.WithTimeout(2*time.Second)), logger.Nop())
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestGoesPicksLatestLongChannel(t *testing.T) {
	srv := serve(t, http.StatusOK, `[
	 {"time_tag":"2024-05-10T11:58:00Z","satellite":16,"flux":2.1e-6,"energy":"0.1-0.8nm"},
	 {"time_tag":"2024-05-10T11:59:00Z","satellite":16,"flux":3.4e-5,"energy":"0.1-0.8nm"},
	 {"time_tag":"2024-05-10T11:59:00Z","satellite":16,"flux":4.0e-7,"energy":"0.05-0.4nm"}
	]`, nil)

	flux, err := newGoes(srv.URL).LatestFlux(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.4e-5, flux.Flux)
	assert.Equal(t, LongChannel, flux.Energy)
	assert.Equal(t, time.Date(2024, 5, 10, 11, 59, 0, 0, time.UTC), flux.TimeTag)
	assert.Equal(t, 16, flux.Satellite)
	assert.False(t, flux.Fallback)
}

func TestGoesFallbacks(t *testing.T) {
	for name, srv := range map[string]*httptest.Server{
		"empty":  serve(t, http.StatusOK, `[]`, nil),
		"status": serve(t, http.StatusBadGateway, ``, nil),
		"nulls":  serve(t, http.StatusOK, `[{"time_tag":"2024-05-10T11:59:00Z","flux":null}]`, nil),
	} {
		t.Run(name, func(t *testing.T) {
			flux, err := newGoes(srv.URL).LatestFlux(context.Background())
			require.NoError(t, err)
			assert.True(t, flux.Fallback)
			assert.Equal(t, FallbackFlux, flux.Flux)
			assert.Equal(t, SourceGoesCold, flux.Source)
			assert.Equal(t, fixedNow, flux.TimeTag)
		})
	}
}

func TestCachedFeedsHitUpstreamOnce(t *testing.T) {
	var donkiCalls, goesCalls atomic.Int32
	donkiSrv := serve(t, http.StatusOK, `[]`, &donkiCalls)
	goesSrv := serve(t, http.StatusOK, `[{"time_tag":"2024-05-10T11:59:00Z","flux":1e-6,"energy":"0.1-0.8nm"}]`, &goesCalls)

	mem := cache.NewMemoryCache()
	defer mem.Close()
	feeds := NewCachedFeeds(newDonki(donkiSrv.URL, 5), newGoes(goesSrv.URL), mem, time.Minute, metrics.Noop{})

	for i := 0; i < 3; i++ {
		report, err := feeds.RecentFlares(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SourceEducational, report.DataSource)

		flux, err := feeds.LatestFlux(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1e-6, flux.Flux)
	}
	assert.Equal(t, int32(1), donkiCalls.Load())
	assert.Equal(t, int32(1), goesCalls.Load())
}

type countingMetrics struct {
	metrics.Noop
	fallbacks map[string]int
}

func (m *countingMetrics) RecordFeedFallback(feed string) { m.fallbacks[feed]++ }

func TestCachedFeedsRecordFallbacks(t *testing.T) {
	goesSrv := serve(t, http.StatusInternalServerError, ``, nil)
	mem := cache.NewMemoryCache()
	defer mem.Close()
	m := &countingMetrics{fallbacks: map[string]int{}}

	feeds := NewCachedFeeds(nil, newGoes(goesSrv.URL), mem, time.Minute, m)
	_, err := feeds.LatestFlux(context.Background())
	require.NoError(t, err)
	_, err = feeds.LatestFlux(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, m.fallbacks["goes"], "cache hits are not counted again")
}

func TestCachedFeedsIgnoreCallerCancellation(t *testing.T) {
	var calls atomic.Int32
	goesSrv := serve(t, http.StatusOK, `[{"time_tag":"2024-05-10T11:59:00Z","flux":5.5e-5,"energy":"0.1-0.8nm"}]`, &calls)
	mem := cache.NewMemoryCache()
	defer mem.Close()
	feeds := NewCachedFeeds(nil, newGoes(goesSrv.URL), mem, time.Minute, metrics.Noop{})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	flux, err := feeds.LatestFlux(cancelled)
	require.NoError(t, err)
	assert.False(t, flux.Fallback, "a dropped caller still gets the live reading")
	assert.Equal(t, 5.5e-5, flux.Flux)

	flux, err = feeds.LatestFlux(context.Background())
	require.NoError(t, err)
	assert.False(t, flux.Fallback)
	assert.Equal(t, 5.5e-5, flux.Flux)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedFeedsDoNotKeepFallbackForCancelledCaller(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"time_tag":"2024-05-10T11:59:00Z","flux":5.5e-5,"energy":"0.1-0.8nm"}]`))
	}))
	defer srv.Close()
	mem := cache.NewMemoryCache()
	defer mem.Close()
	feeds := NewCachedFeeds(nil, newGoes(srv.URL), mem, time.Minute, metrics.Noop{})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	flux, err := feeds.LatestFlux(cancelled)
	require.NoError(t, err)
	assert.True(t, flux.Fallback)

	flux, err = feeds.LatestFlux(context.Background())
	require.NoError(t, err)
	assert.False(t, flux.Fallback)
	assert.Equal(t, 5.5e-5, flux.Flux)
	assert.Equal(t, int32(2), calls.Load())
}
