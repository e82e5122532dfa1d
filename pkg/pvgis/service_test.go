package pvgis

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glintsolar/pvdiag/pkg/types"
)

func testPlant() types.Plant {
	return types.Plant{PlantID: "p1", Latitude: 48.2, Longitude: 16.4, KwPeak: 10}
}

// seriesJSON builds a response with two days of three hourly values each.
func seriesJSON() string {
	return `{"outputs":{"hourly":[
		{"time":"20200101:0010","G(i)":0},
		{"time":"20200101:1110","G(i)":500},
		{"time":"20200101:1210","G(i)":500},
		{"time":"20200102:1110","G(i)":250},
		{"time":"20200102:1210","G(i)":250},
		{"time":"20200102:1310","G(i)":0}
	]}}`
}

func newTestClient(url string, retries int) *Client {
	c := NewClient(url, retries)
	c.BaseBackoff = time.Millisecond
	return c
}

func TestTheoreticalDailiesRollsUpHours(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/seriescalc", r.URL.Path)
		assert.Equal(t, "48.200000", r.URL.Query().Get("lat"))
		assert.Equal(t, "2020", r.URL.Query().Get("startyear"))
		fmt.Fprint(w, seriesJSON())
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)
	dailies, err := client.TheoreticalDailies(t.TempDir(), testPlant(), 2020, 2020)
	require.NoError(t, err)
	require.Len(t, dailies, 2)

	assert.Equal(t, "2020-01-01", dailies[0].Date)
	assert.InDelta(t, 1.0, dailies[0].IrradianceKWhM2, 1e-9)
	// 1 kWh/m2 at 10 kWp under the performance ratio.
	assert.InDelta(t, 10*PerformanceRatio, dailies[0].ExpectedEnergyKWh, 1e-9)

	assert.Equal(t, "2020-01-02", dailies[1].Date)
	assert.InDelta(t, 0.5, dailies[1].IrradianceKWhM2, 1e-9)
}

func TestTheoreticalDailiesServesFromCache(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, seriesJSON())
	}))
	defer server.Close()

	cacheRoot := t.TempDir()
	client := newTestClient(server.URL, 1)

	first, err := client.TheoreticalDailies(cacheRoot, testPlant(), 2020, 2020)
	require.NoError(t, err)
	second, err := client.TheoreticalDailies(cacheRoot, testPlant(), 2020, 2020)
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load(), "second call must not touch the network")
	assert.Equal(t, first, second)
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, seriesJSON())
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	dailies, err := client.TheoreticalDailies(t.TempDir(), testPlant(), 2020, 2020)
	require.NoError(t, err)
	assert.Len(t, dailies, 2)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	_, err := client.TheoreticalDailies(t.TempDir(), testPlant(), 2020, 2020)
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"outputs":{"hourly":[]}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)
	_, err := client.TheoreticalDailies(t.TempDir(), testPlant(), 2020, 2020)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
