// Differ joins actual daily production against the theoretical expectation.
package differ

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/types"
)

// BuildDifferences inner-joins daily aggregates with theoretical dailies on
// date. Dates missing on either side are dropped, never imputed. A zero
// theoretical value yields a NaN ratio and marks the day excluded so it
// stays out of clustering and training.
func BuildDifferences(aggregates []types.DailyAggregate, theoreticals []types.TheoreticalDaily) []types.DifferenceRecord {
	theoByDate := make(map[string]types.TheoreticalDaily, len(theoreticals))
	for _, t := range theoreticals {
		theoByDate[t.Date] = t
	}

	var records []types.DifferenceRecord
	for _, a := range aggregates {
		t, ok := theoByDate[a.Date]
		if !ok {
			continue
		}

		ratio := math.NaN()
		excluded := true
		if t.ExpectedEnergyKWh != 0 {
			ratio = a.EnergyYieldKWh / t.ExpectedEnergyKWh
			excluded = false
		}

		records = append(records, types.DifferenceRecord{
			PlantID:              a.PlantID,
			Date:                 a.Date,
			ActualEnergyKWh:      a.EnergyYieldKWh,
			TheoreticalEnergyKWh: t.ExpectedEnergyKWh,
			Ratio:                ratio,
			DeltaKWh:             a.EnergyYieldKWh - t.ExpectedEnergyKWh,
			Excluded:             excluded,
		})
	}
	return records
}

var differencesCSVHeader = []string{
	"date", "actual_energy_kwh", "theoretical_energy_kwh", "ratio", "delta_kwh", "excluded",
}

// WriteDifferencesCSV publishes a plant's difference records as a stage artifact.
func WriteDifferencesCSV(path string, records []types.DifferenceRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(differencesCSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date,
			strconv.FormatFloat(r.ActualEnergyKWh, 'g', -1, 64),
			strconv.FormatFloat(r.TheoreticalEnergyKWh, 'g', -1, 64),
			strconv.FormatFloat(r.Ratio, 'g', -1, 64),
			strconv.FormatFloat(r.DeltaKWh, 'g', -1, 64),
			strconv.FormatBool(r.Excluded),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return pathing.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// ReadDifferencesCSV loads a previously published differences artifact.
func ReadDifferencesCSV(path, plantID string) ([]types.DifferenceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 || len(rows[0]) != len(differencesCSVHeader) {
		return nil, fmt.Errorf("unexpected differences artifact %s", path)
	}

	var records []types.DifferenceRecord
	for _, row := range rows[1:] {
		actual, err1 := strconv.ParseFloat(row[1], 64)
		theo, err2 := strconv.ParseFloat(row[2], 64)
		ratio, err3 := strconv.ParseFloat(row[3], 64)
		delta, err4 := strconv.ParseFloat(row[4], 64)
		excluded, err5 := strconv.ParseBool(row[5])
		for _, err := range []error{err1, err2, err3, err4, err5} {
			if err != nil {
				return nil, fmt.Errorf("bad row in %s: %w", path, err)
			}
		}
		records = append(records, types.DifferenceRecord{
			PlantID: plantID, Date: row[0],
			ActualEnergyKWh: actual, TheoreticalEnergyKWh: theo,
			Ratio: ratio, DeltaKWh: delta, Excluded: excluded,
		})
	}
	return records, nil
}
