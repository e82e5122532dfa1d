package features

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/glintsolar/pvdiag/pkg/pathing"
	"github.com/glintsolar/pvdiag/pkg/types"
)

// WriteSchema persists a schema definition next to its vectors.
func WriteSchema(path string, schema Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	return pathing.WriteFileAtomic(path, data, 0644)
}

// ReadSchema loads a persisted schema and verifies it against the current
// in-code definition. A mismatch means the cached vectors predate a schema
// edit and must not be reused.
func ReadSchema(path string, fault types.FaultType) (Schema, error) {
	var schema Schema
	data, err := os.ReadFile(path)
	if err != nil {
		return schema, err
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return schema, err
	}

	current := SchemaFor(fault)
	if schema.Version != current.Version || len(schema.Columns) != len(current.Columns) {
		return schema, fmt.Errorf("cached %s schema (version %d, %d columns) does not match current definition; delete the feature cache and re-run",
			fault, schema.Version, len(schema.Columns))
	}
	for i, name := range current.Columns {
		if schema.Columns[i] != name {
			return schema, fmt.Errorf("cached %s schema column %d is %q, expected %q; delete the feature cache and re-run",
				fault, i, schema.Columns[i], name)
		}
	}
	return schema, nil
}

// WriteVectorsCSV publishes one plant's feature vectors as a stage artifact.
// The column order follows the schema.
func WriteVectorsCSV(path string, schema Schema, vectors []types.FeatureVector) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := append([]string{"date"}, schema.Columns...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, v := range vectors {
		if len(v.Values) != len(schema.Columns) {
			return fmt.Errorf("vector for %s/%s has %d values, schema has %d columns",
				v.PlantID, v.Date, len(v.Values), len(schema.Columns))
		}
		row := make([]string, 0, len(v.Values)+1)
		row = append(row, v.Date)
		for _, val := range v.Values {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
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

// ReadVectorsCSV loads a previously published vector artifact.
func ReadVectorsCSV(path, plantID string, fault types.FaultType, schema Schema) ([]types.FeatureVector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 || len(rows[0]) != len(schema.Columns)+1 {
		return nil, fmt.Errorf("unexpected feature vector artifact %s", path)
	}

	var vectors []types.FeatureVector
	for _, row := range rows[1:] {
		values := make([]float64, len(row)-1)
		for i, s := range row[1:] {
			if values[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("bad value in %s: %w", path, err)
			}
		}
		vectors = append(vectors, types.FeatureVector{
			PlantID: plantID,
			Date:    row[0],
			Fault:   fault,
			Values:  values,
		})
	}
	return vectors, nil
}
