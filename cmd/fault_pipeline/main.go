// Fault pipeline runs the batch diagnosis pipeline in training or
// prediction mode. Stages with cached outputs are skipped, so re-running
// after a failure only redoes the missing work.
package main

import (
	"flag"
	"log"

	"github.com/glintsolar/pvdiag/pkg/config"
	"github.com/glintsolar/pvdiag/pkg/pipeline"
)

func main() {
	mode := flag.String("mode", "train", "pipeline mode: train or predict")
	configPath := flag.String("config", "pvdiag.toml", "path to the pipeline config file")
	flag.Parse()

	cfg, err := config.LoadPipelineConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load pipeline config: %v", err)
	}

	orchestrator := pipeline.New(cfg)

	switch *mode {
	case "train":
		if err := orchestrator.RunTraining(); err != nil {
			log.Fatalf("Training pipeline failed: %v", err)
		}
	case "predict":
		if err := orchestrator.RunPrediction(); err != nil {
			log.Fatalf("Prediction pipeline failed: %v", err)
		}
	default:
		log.Fatalf("Unknown mode %q (want train or predict)", *mode)
	}
}
