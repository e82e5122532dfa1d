package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *PipelineConfig {
	return &PipelineConfig{
		PlantMetadataPath:  "data/plants.csv",
		OperationalDataDir: "data/operational",
		CacheDir:           "cache",
		OutputPath:         "output/classifications.json",
		PVGISBaseURL:       "https://re.jrc.ec.europa.eu/api/v5_2",
		PVGISStartYear:     2020,
		PVGISEndYear:       2023,
		MaxFetchRetries:    3,
		FetchWorkers:       4,
		ClusterSeed:        1337,
		ClassifierSeed:     42,
		ListenAddress:      "0.0.0.0",
		ListenPort:         9046,
		Verbose:            false,
	}
}

// LoadPipelineConfig reads the TOML config at path, creating a default file
// if none exists, then applies PVDIAG_* environment overrides. A .env file
// in the working directory is honored when present.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfgFile, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		defer cfgFile.Close()
		if err := toml.NewEncoder(cfgFile).Encode(cfg); err != nil {
			return nil, err
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Load .env if present (ignore error if not found)
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *PipelineConfig) {
	cfg.PlantMetadataPath = getEnv("PVDIAG_PLANT_METADATA", cfg.PlantMetadataPath)
	cfg.OperationalDataDir = getEnv("PVDIAG_OPERATIONAL_DIR", cfg.OperationalDataDir)
	cfg.CacheDir = getEnv("PVDIAG_CACHE_DIR", cfg.CacheDir)
	cfg.OutputPath = getEnv("PVDIAG_OUTPUT_PATH", cfg.OutputPath)
	cfg.PVGISBaseURL = getEnv("PVDIAG_PVGIS_URL", cfg.PVGISBaseURL)
	cfg.MaxFetchRetries = getEnvInt("PVDIAG_MAX_FETCH_RETRIES", cfg.MaxFetchRetries)
	cfg.FetchWorkers = getEnvInt("PVDIAG_FETCH_WORKERS", cfg.FetchWorkers)
	if v := os.Getenv("PVDIAG_VERBOSE"); v != "" {
		cfg.Verbose = v == "1" || v == "true"
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
