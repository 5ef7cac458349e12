package app

import (
	"textwatch/internal/config"
	"textwatch/internal/service/linefilter"
	"textwatch/internal/service/motion"
	"textwatch/internal/service/ocr"
)

// PipelineOptions maps the OCR settings of cfg.
func PipelineOptions(cfg *config.Config) ocr.PipelineOptions {
	return ocr.PipelineOptions{
		DetectInputSize:     cfg.DetectInputSize,
		DetectConfidence:    cfg.DetectConfidence,
		RecognizeConfidence: cfg.RecognizeConfidence,
		XOverlap:            cfg.XOverlap,
	}
}

// Thresholds maps the change detector settings of cfg.
func Thresholds(cfg *config.Config) motion.Thresholds {
	return motion.Thresholds{
		Change:          cfg.ChangeThreshold,
		LowChange:       cfg.LowChangeThreshold,
		StabilityFrames: cfg.StabilityFrames,
	}
}

// NewFilter builds the line filter selected by cfg.DedupMode.
func NewFilter(cfg *config.Config) (*linefilter.Filter, error) {
	mode, err := linefilter.ParseMode(cfg.DedupMode)
	if err != nil {
		return nil, err
	}
	return linefilter.New(mode, cfg.HistoryCapacity), nil
}
