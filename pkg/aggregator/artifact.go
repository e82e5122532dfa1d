package aggregator

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/types"
)

var dailyCSVHeader = []string{
	"date", "sample_count",
	"pv_mean_w", "pv_max_w", "pv_std_w", "energy_yield_kwh",
	"battery_mean_w", "soc_mean_pct", "load_mean_w",
	"mpp1_a_std", "mpp2_a_std", "mpp1_v_std", "mpp2_v_std",
	"mpp1_a_mean", "mpp2_a_mean",
	"delta_std_w", "max_delta_hour", "morning_afternoon_ratio",
}

// WriteDailyCSV publishes a plant's daily aggregates as a stage artifact.
func WriteDailyCSV(path, plantID string, aggregates []types.DailyAggregate) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(dailyCSVHeader); err != nil {
		return err
	}
	for _, a := range aggregates {
		row := []string{
			a.Date, strconv.Itoa(a.SampleCount),
			formatFloat(a.PVMeanW), formatFloat(a.PVMaxW), formatFloat(a.PVStdW), formatFloat(a.EnergyYieldKWh),
			formatFloat(a.BatteryMeanW), formatFloat(a.SOCMeanPct), formatFloat(a.LoadMeanW),
			formatFloat(a.MPP1CurrentStdA), formatFloat(a.MPP2CurrentStdA),
			formatFloat(a.MPP1VoltageStdV), formatFloat(a.MPP2VoltageStdV),
			formatFloat(a.MPP1CurrentMeanA), formatFloat(a.MPP2CurrentMeanA),
			formatFloat(a.DeltaStdW), formatFloat(a.MaxDeltaHour), formatFloat(a.MorningAfternoonRatio),
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

// ReadDailyCSV loads a previously published daily aggregate artifact.
func ReadDailyCSV(path, plantID string) ([]types.DailyAggregate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("empty daily aggregate artifact %s", path)
	}
	if len(rows[0]) != len(dailyCSVHeader) {
		return nil, fmt.Errorf("unexpected daily aggregate header in %s", path)
	}

	var aggregates []types.DailyAggregate
	for _, row := range rows[1:] {
		count, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("bad sample_count in %s: %w", path, err)
		}
		vals := make([]float64, len(row)-2)
		for i, s := range row[2:] {
			if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("bad value in %s: %w", path, err)
			}
		}
		aggregates = append(aggregates, types.DailyAggregate{
			PlantID: plantID, Date: row[0], SampleCount: count,
			PVMeanW: vals[0], PVMaxW: vals[1], PVStdW: vals[2], EnergyYieldKWh: vals[3],
			BatteryMeanW: vals[4], SOCMeanPct: vals[5], LoadMeanW: vals[6],
			MPP1CurrentStdA: vals[7], MPP2CurrentStdA: vals[8],
			MPP1VoltageStdV: vals[9], MPP2VoltageStdV: vals[10],
			MPP1CurrentMeanA: vals[11], MPP2CurrentMeanA: vals[12],
			DeltaStdW: vals[13], MaxDeltaHour: vals[14], MorningAfternoonRatio: vals[15],
		})
	}
	return aggregates, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
