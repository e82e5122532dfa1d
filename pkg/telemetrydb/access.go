package telemetrydb

import (
	"github.com/glintsolar/pvdiag/pkg/types"
)

// InsertOperationalRecords inserts records for one plant inside a single
// transaction. Duplicate timestamps are ignored (keep-first policy).
func (t *TelemetryDB) InsertOperationalRecords(plantID string, records []types.OperationalRecord) error {
	tx, err := t.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		"INSERT OR IGNORE INTO operational_records " +
			"(plant_id, timestamp, pv_w, battery_w, soc_pct, load_w, mpp1_a, mpp2_a, mpp1_v, mpp2_v) " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			plantID, r.Timestamp,
			r.PVPowerW, r.BatteryW, r.SOCPercent, r.LoadW,
			r.MPP1CurrentA, r.MPP2CurrentA, r.MPP1VoltageV, r.MPP2VoltageV,
		); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// SelectPlantRecords returns all records for a plant ordered by timestamp.
func (t *TelemetryDB) SelectPlantRecords(plantID string) ([]types.OperationalRecord, error) {
	rows, err := t.db.Query(
		"SELECT timestamp, pv_w, battery_w, soc_pct, load_w, mpp1_a, mpp2_a, mpp1_v, mpp2_v "+
			"FROM operational_records WHERE plant_id = ? ORDER BY timestamp ASC",
		plantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.OperationalRecord
	for rows.Next() {
		var r types.OperationalRecord
		if err := rows.Scan(
			&r.Timestamp,
			&r.PVPowerW, &r.BatteryW, &r.SOCPercent, &r.LoadW,
			&r.MPP1CurrentA, &r.MPP2CurrentA, &r.MPP1VoltageV, &r.MPP2VoltageV,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountPlantRecords returns the number of stored records for a plant.
func (t *TelemetryDB) CountPlantRecords(plantID string) (int, error) {
	var count int
	err := t.db.QueryRow(
		"SELECT COUNT(*) FROM operational_records WHERE plant_id = ?", plantID,
	).Scan(&count)
	return count, err
}
