package config

// PipelineConfig is the immutable run configuration. It is loaded once and
// passed explicitly to every stage; no stage reads ambient state.
type PipelineConfig struct {
	// Inputs
	PlantMetadataPath  string `toml:"plant_metadata_path"`
	OperationalDataDir string `toml:"operational_data_dir"`

	// Durable storage
	CacheDir   string `toml:"cache_dir"`
	OutputPath string `toml:"output_path"`

	// Theoretical irradiance source
	PVGISBaseURL    string `toml:"pvgis_base_url"`
	PVGISStartYear  int    `toml:"pvgis_start_year"`
	PVGISEndYear    int    `toml:"pvgis_end_year"`
	MaxFetchRetries int    `toml:"max_fetch_retries"`
	FetchWorkers    int    `toml:"fetch_workers"`

	// Reproducibility
	ClusterSeed    int64 `toml:"cluster_seed"`
	ClassifierSeed int64 `toml:"classifier_seed"`

	// Results API
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`

	Verbose bool `toml:"verbose"`
}
