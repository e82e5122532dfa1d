// Aggregator resamples raw per-timestamp operational records onto daily
// buckets and computes the per-day summary statistics the feature builders
// consume.
package aggregator

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/glintsolar/pvdiag/pkg/telemetrydb"
	"github.com/glintsolar/pvdiag/pkg/types"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// IngestPlantCSV parses one plant's operational CSV and stores the rows in
// the telemetry database. Malformed rows are dropped and counted, not fatal.
func IngestPlantCSV(db *telemetrydb.TelemetryDB, plantID, csvPath string) (IngestResult, error) {
	var result IngestResult

	f, err := os.Open(csvPath)
	if err != nil {
		return result, fmt.Errorf("open operational data for %s: %w", plantID, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("read operational header for %s: %w", plantID, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range operationalColumns {
		if _, ok := col[name]; !ok {
			return result, fmt.Errorf("operational data for %s missing column %q", plantID, name)
		}
	}

	var records []types.OperationalRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.DroppedRows++
			continue
		}

		record, err := parseOperationalRow(row, col)
		if err != nil {
			result.DroppedRows++
			continue
		}
		records = append(records, record)
		result.ParsedRows++
	}

	if result.DroppedRows > 0 {
		log.Printf("Plant %s: dropped %d malformed operational rows", plantID, result.DroppedRows)
	}
	if len(records) == 0 {
		return result, fmt.Errorf("no usable operational rows for %s", plantID)
	}

	return result, db.InsertOperationalRecords(plantID, records)
}

func parseOperationalRow(row []string, col map[string]int) (types.OperationalRecord, error) {
	var record types.OperationalRecord

	maxIdx := 0
	for _, i := range col {
		if i > maxIdx {
			maxIdx = i
		}
	}
	if len(row) <= maxIdx {
		return record, fmt.Errorf("short row")
	}

	ts, err := parseTimestamp(strings.TrimSpace(row[col["Timestamp"]]))
	if err != nil {
		return record, err
	}
	record.Timestamp = ts

	fields := []struct {
		name string
		dst  *float64
	}{
		{"PV(W)", &record.PVPowerW},
		{"Battery(W)", &record.BatteryW},
		{"SOC(%)", &record.SOCPercent},
		{"Load(W)", &record.LoadW},
		{"MPP1(A)", &record.MPP1CurrentA},
		{"MPP2(A)", &record.MPP2CurrentA},
		{"MPP1(V)", &record.MPP1VoltageV},
		{"MPP2(V)", &record.MPP2VoltageV},
	}
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col[field.name]]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return record, fmt.Errorf("bad value for %s", field.name)
		}
		*field.dst = v
	}
	return record, nil
}

func parseTimestamp(s string) (int64, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unparseable timestamp %q", s)
}

// BuildDailyAggregates groups a plant's stored records by calendar date and
// computes one DailyAggregate per date with enough valid samples. Days below
// MinDailySamples are excluded with a logged count.
func BuildDailyAggregates(db *telemetrydb.TelemetryDB, plantID string) ([]types.DailyAggregate, error) {
	records, err := db.SelectPlantRecords(plantID)
	if err != nil {
		return nil, fmt.Errorf("select records for %s: %w", plantID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records stored for %s", plantID)
	}

	byDate := make(map[string][]types.OperationalRecord)
	for _, r := range records {
		date := time.Unix(r.Timestamp, 0).UTC().Format(types.DateFormat)
		byDate[date] = append(byDate[date], r)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var aggregates []types.DailyAggregate
	thinDays := 0
	for _, date := range dates {
		group := byDate[date]
		if len(group) < MinDailySamples {
			thinDays++
			continue
		}
		aggregates = append(aggregates, aggregateDay(plantID, date, group))
	}
	if thinDays > 0 {
		log.Printf("Plant %s: excluded %d days below %d samples", plantID, thinDays, MinDailySamples)
	}
	return aggregates, nil
}

// aggregateDay assumes group is sorted by timestamp, which SelectPlantRecords
// guarantees.
func aggregateDay(plantID, date string, group []types.OperationalRecord) types.DailyAggregate {
	n := len(group)
	pv := make([]float64, n)
	battery := make([]float64, n)
	soc := make([]float64, n)
	load := make([]float64, n)
	mpp1A := make([]float64, n)
	mpp2A := make([]float64, n)
	mpp1V := make([]float64, n)
	mpp2V := make([]float64, n)
	for i, r := range group {
		pv[i] = r.PVPowerW
		battery[i] = r.BatteryW
		soc[i] = r.SOCPercent
		load[i] = r.LoadW
		mpp1A[i] = r.MPP1CurrentA
		mpp2A[i] = r.MPP2CurrentA
		mpp1V[i] = r.MPP1VoltageV
		mpp2V[i] = r.MPP2VoltageV
	}

	// Successive power deltas capture the intra-day shape; the first delta
	// is defined as zero.
	deltas := make([]float64, n)
	maxDeltaIdx := 0
	for i := 1; i < n; i++ {
		deltas[i] = pv[i] - pv[i-1]
		if math.Abs(deltas[i]) > math.Abs(deltas[maxDeltaIdx]) {
			maxDeltaIdx = i
		}
	}
	maxDeltaHour := float64(time.Unix(group[maxDeltaIdx].Timestamp, 0).UTC().Hour())

	var morning, afternoon float64
	for i, r := range group {
		if time.Unix(r.Timestamp, 0).UTC().Hour() < 12 {
			morning += pv[i]
		} else {
			afternoon += pv[i]
		}
	}
	morningAfternoonRatio := math.NaN()
	if afternoon > 0 {
		morningAfternoonRatio = morning / afternoon
	}

	return types.DailyAggregate{
		PlantID:     plantID,
		Date:        date,
		SampleCount: n,

		PVMeanW: stat.Mean(pv, nil),
		PVMaxW:  maxOf(pv),
		PVStdW:  sampleStd(pv),
		// Treats each sample as one watt-hour; relative scale only, the
		// feature builder normalizes per plant.
		EnergyYieldKWh: sum(pv) / 1000.0,

		BatteryMeanW: stat.Mean(battery, nil),
		SOCMeanPct:   stat.Mean(soc, nil),
		LoadMeanW:    stat.Mean(load, nil),

		MPP1CurrentStdA:  sampleStd(mpp1A),
		MPP2CurrentStdA:  sampleStd(mpp2A),
		MPP1VoltageStdV:  sampleStd(mpp1V),
		MPP2VoltageStdV:  sampleStd(mpp2V),
		MPP1CurrentMeanA: stat.Mean(mpp1A, nil),
		MPP2CurrentMeanA: stat.Mean(mpp2A, nil),

		DeltaStdW:             sampleStd(deltas),
		MaxDeltaHour:          maxDeltaHour,
		MorningAfternoonRatio: morningAfternoonRatio,
	}
}

func sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}
