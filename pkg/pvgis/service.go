// Pvgis wraps the PVGIS hourly irradiance API as a cached data source.
// Raw responses are cached per plant so repeated runs never re-query, and
// transient failures are retried with bounded exponential backoff.
package pvgis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/types"
)

var (
	ErrFetchFailed   = errors.New("irradiance fetch failed")
	ErrEmptyResponse = errors.New("irradiance response contained no hourly values")
)

type Client struct {
	BaseURL    string
	MaxRetries int
	HTTPClient *http.Client

	// BaseBackoff is doubled per attempt; overridable in tests.
	BaseBackoff time.Duration
}

func NewClient(baseURL string, maxRetries int) *Client {
	return &Client{
		BaseURL:     baseURL,
		MaxRetries:  maxRetries,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		BaseBackoff: 2 * time.Second,
	}
}

// TheoreticalDailies returns the daily theoretical values for a plant,
// serving from the per-plant cache when present and fetching (then caching
// atomically) otherwise.
func (c *Client) TheoreticalDailies(cacheRoot string, plant types.Plant, startYear, endYear int) ([]types.TheoreticalDaily, error) {
	cachePath := pathing.IrradiancePath(cacheRoot, plant.PlantID)

	var raw []byte
	if pathing.Exists(cachePath) {
		var err error
		if raw, err = os.ReadFile(cachePath); err != nil {
			return nil, fmt.Errorf("read cached irradiance for %s: %w", plant.PlantID, err)
		}
	} else {
		var err error
		if raw, err = c.fetchHourly(plant, startYear, endYear); err != nil {
			return nil, err
		}
		if err := pathing.WriteFileAtomic(cachePath, raw, 0644); err != nil {
			return nil, fmt.Errorf("cache irradiance for %s: %w", plant.PlantID, err)
		}
	}

	return dailiesFromResponse(plant, raw)
}

func (c *Client) fetchHourly(plant types.Plant, startYear, endYear int) ([]byte, error) {
	url := fmt.Sprintf(
		"%s/seriescalc?lat=%.6f&lon=%.6f&startyear=%d&endyear=%d&pvcalculation=0&outputformat=json",
		c.BaseURL, plant.Latitude, plant.Longitude, startYear, endYear,
	)

	var lastErr error
	for attempt := 0; attempt < c.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.BaseBackoff << (attempt - 1)
			log.Printf("Retrying irradiance fetch for %s in %v (attempt %d/%d)",
				plant.PlantID, delay, attempt+1, c.MaxRetries)
			time.Sleep(delay)
		}

		resp, err := c.HTTPClient.Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("status %d from irradiance source", resp.StatusCode)
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("%w for %s after %d attempts: %v",
		ErrFetchFailed, plant.PlantID, c.MaxRetries, lastErr)
}

// dailiesFromResponse rolls the hourly series up to daily irradiance and
// the plant's expected daily energy.
func dailiesFromResponse(plant types.Plant, raw []byte) ([]types.TheoreticalDaily, error) {
	var parsed seriesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse irradiance response for %s: %w", plant.PlantID, err)
	}
	if len(parsed.Outputs.Hourly) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrEmptyResponse, plant.PlantID)
	}

	// Hourly W/m2 summed over a day and scaled is the day's kWh/m2.
	irrByDate := make(map[string]float64)
	for _, hv := range parsed.Outputs.Hourly {
		t, err := time.Parse(hourlyTimeLayout, hv.Time)
		if err != nil {
			// Odd row, not worth failing the plant over.
			continue
		}
		irrByDate[t.Format(types.DateFormat)] += hv.GlobalIrr / 1000.0
	}

	dates := make([]string, 0, len(irrByDate))
	for date := range irrByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	dailies := make([]types.TheoreticalDaily, 0, len(dates))
	for _, date := range dates {
		irr := irrByDate[date]
		dailies = append(dailies, types.TheoreticalDaily{
			PlantID:           plant.PlantID,
			Date:              date,
			IrradianceKWhM2:   irr,
			ExpectedEnergyKWh: irr * plant.KwPeak * PerformanceRatio,
		})
	}
	return dailies, nil
}
