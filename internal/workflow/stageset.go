package workflow

import (
	"fmt"
	"log/slog"

	"fwea/internal/audio"
	"fwea/internal/audioanalysis"
	"fwea/internal/config"
	"fwea/internal/detection"
	"fwea/internal/intake"
	"fwea/internal/lexicon"
	"fwea/internal/profanity"
	"fwea/internal/redaction"
)

// NewStageSet builds the production stage handlers from configuration. The
// lexicon is built once here and shared read-only by every worker.
func NewStageSet(cfg *config.Config, logger *slog.Logger) (StageSet, error) {
	detector, err := detection.New(cfg)
	if err != nil {
		return StageSet{}, fmt.Errorf("language detection: %w", err)
	}
	codec := audio.NewFromConfig(cfg)
	redactor := audio.NewRedactor(codec, logger)
	lx := lexicon.New(lexicon.Options{
		CustomWords:       cfg.Lexicon.CustomWords,
		DisablePatterns:   cfg.Lexicon.DisablePatterns,
		DisableHeuristics: cfg.Lexicon.DisableHeuristics,
	})

	return StageSet{
		Intake:    intake.NewStage(logger),
		Analyzer:  audioanalysis.NewAnalyzer(codec, logger),
		Detector:  detection.NewStage(detector, cfg.Detection.DefaultLanguage, cfg.DetectionTimeout(), logger),
		Scanner:   profanity.NewStage(profanity.NewScanner(lx), logger),
		Processor: redaction.NewProcessor(redactor, cfg.Paths.OutputDir, logger),
		Previewer: redaction.NewPreviewer(redactor, cfg.Paths.PreviewDir, logger),
	}, nil
}
