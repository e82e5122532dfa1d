// Plantmeta loads the immutable plant reference data.
package plantmeta

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/glintsolar/pvdiag/pkg/types"
)

var requiredColumns = []string{
	"plant_id", "latitude", "longitude", "kw_peak",
	"has_battery", "battery_capacity", "installation_date", "has_pv",
}

// LoadPlants reads the plant metadata CSV. Malformed rows are dropped with
// a logged warning; plants without PV are excluded up front since no fault
// can be diagnosed for them.
func LoadPlants(path string) ([]types.Plant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plant metadata: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read plant metadata header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("plant metadata missing column %q", name)
		}
	}

	var plants []types.Plant
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			log.Printf("Skipping malformed plant metadata row %d: %v", line, err)
			continue
		}

		plant, err := parsePlantRow(row, col)
		if err != nil {
			log.Printf("Skipping plant metadata row %d: %v", line, err)
			continue
		}
		if !plant.HasPV {
			log.Printf("Skipping plant %s: no PV installation", plant.PlantID)
			continue
		}
		plants = append(plants, plant)
	}

	if len(plants) == 0 {
		return nil, fmt.Errorf("no usable plants in %s", path)
	}
	return plants, nil
}

func parsePlantRow(row []string, col map[string]int) (types.Plant, error) {
	get := func(name string) string { return strings.TrimSpace(row[col[name]]) }

	lat, err := strconv.ParseFloat(get("latitude"), 64)
	if err != nil {
		return types.Plant{}, fmt.Errorf("bad latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(get("longitude"), 64)
	if err != nil {
		return types.Plant{}, fmt.Errorf("bad longitude: %w", err)
	}
	kwPeak, err := strconv.ParseFloat(get("kw_peak"), 64)
	if err != nil {
		return types.Plant{}, fmt.Errorf("bad kw_peak: %w", err)
	}
	// Battery capacity may be blank for plants without one.
	batteryCap := 0.0
	if s := get("battery_capacity"); s != "" {
		if batteryCap, err = strconv.ParseFloat(s, 64); err != nil {
			return types.Plant{}, fmt.Errorf("bad battery_capacity: %w", err)
		}
	}

	plantID := get("plant_id")
	if plantID == "" {
		return types.Plant{}, fmt.Errorf("empty plant_id")
	}

	return types.Plant{
		PlantID:            plantID,
		Latitude:           lat,
		Longitude:          lon,
		KwPeak:             kwPeak,
		HasBattery:         parseBool(get("has_battery")),
		BatteryCapacityKWh: batteryCap,
		InstallationDate:   get("installation_date"),
		HasPV:              parseBool(get("has_pv")),
	}, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
