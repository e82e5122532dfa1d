// Pathing is the single source of truth for the on-disk cache layout.
// Resumability depends on every run deriving the same artifact paths,
// so no other package builds cache paths by hand.
package pathing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glintsolar/pvdiag/pkg/types"
)

// EnsureCacheLayout creates the stage directories under the cache root.
func EnsureCacheLayout(cacheRoot string) error {
	dirs := []string{
		IrradianceDir(cacheRoot),
		DailyAggregatesDir(cacheRoot),
		DifferencesDir(cacheRoot),
		ClusteringDir(cacheRoot),
		ModelsDir(cacheRoot),
	}
	for _, fault := range types.FaultTypes {
		dirs = append(dirs, FeatureVectorsDir(cacheRoot, fault))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func IrradianceDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "irradiance")
}

// IrradiancePath holds the raw cached response from the irradiance source.
func IrradiancePath(cacheRoot, plantID string) string {
	return filepath.Join(IrradianceDir(cacheRoot), plantID+".json")
}

// TelemetryDBPath is the SQLite database holding raw operational records.
func TelemetryDBPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, "telemetry.db")
}

func DailyAggregatesDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "daily_aggregates")
}

func DailyAggregatePath(cacheRoot, plantID string) string {
	return filepath.Join(DailyAggregatesDir(cacheRoot), plantID+".csv")
}

func DifferencesDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "differences")
}

func DifferencesPath(cacheRoot, plantID string) string {
	return filepath.Join(DifferencesDir(cacheRoot), plantID+"_differences.csv")
}

func FeatureVectorsDir(cacheRoot string, fault types.FaultType) string {
	return filepath.Join(cacheRoot, "feature_vectors", string(fault))
}

func FeatureVectorsPath(cacheRoot string, fault types.FaultType, plantID string) string {
	return filepath.Join(FeatureVectorsDir(cacheRoot, fault), "feature_vectors_"+plantID+".csv")
}

func FeatureSchemaPath(cacheRoot string, fault types.FaultType) string {
	return filepath.Join(FeatureVectorsDir(cacheRoot, fault), "schema.json")
}

func ClusteringDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "clustering")
}

func ClusterAssignmentsPath(cacheRoot string, fault types.FaultType) string {
	return filepath.Join(ClusteringDir(cacheRoot), fmt.Sprintf("%s_assignments.csv", fault))
}

func ClusterModelPath(cacheRoot string, fault types.FaultType) string {
	return filepath.Join(ClusteringDir(cacheRoot), fmt.Sprintf("%s_model.json", fault))
}

func ModelsDir(cacheRoot string) string {
	return filepath.Join(cacheRoot, "models")
}

// ModelArtifactPath is the bundled classifier+scaler for one fault type.
func ModelArtifactPath(cacheRoot string, fault types.FaultType) string {
	return filepath.Join(ModelsDir(cacheRoot), fmt.Sprintf("%s_classifier.json", fault))
}

// Exists reports whether a stage artifact is already present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFileAtomic publishes an artifact via a temp file and rename, so an
// interrupted run never leaves a half-written artifact that a later run
// would mistake for a valid one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
