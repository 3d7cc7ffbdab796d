package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/soundmend/soundmend/internal/audio"
)

// FileProgressFunc receives per-pass progress while a file is being
// processed. Pass 1 is analysis/auto-tune, pass 2 is rendering.
// Level is the current block level in dB for the meter.
type FileProgressFunc func(pass int, passName string, progress float64, levelDB float64)

// ProcessConfig controls one file-processing run.
type ProcessConfig struct {
	// Options is the pipeline configuration. When AutoTune is set it
	// is replaced by the tuner's suggestions, except HumFundamental
	// which is always carried through.
	Options Options

	// AutoTune derives stage settings from the input's features
	// instead of using Options as-is.
	AutoTune bool

	// Intensity scales auto-tuned suggestions, 0-1.
	Intensity float64

	// OutputPath overrides the default "<name>-processed.wav"
	// location.
	OutputPath string
}

// ProcessingResult contains the results of one file-processing run.
type ProcessingResult struct {
	OutputPath string
	Features   AudioFeatures
	Applied    Options
	Confidence float64 // 0 when auto-tune was not used
	Metrics    AudioMetrics
	Encoding   audio.EncodingDiagnostics
	Elapsed    time.Duration
}

// ProcessFile runs the complete flow on one file: decode, optional
// auto-tune, pipeline render, and WAV export.
//
// The output file is named <basename>-processed.wav next to the
// input unless an explicit output path is configured.
func ProcessFile(ctx context.Context, inputPath string, cfg ProcessConfig, progress FileProgressFunc) (*ProcessingResult, error) {
	started := time.Now()

	if progress != nil {
		progress(1, "Analyzing", 0.0, -60.0)
	}

	buf, err := audio.DecodeWAVFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	opts := cfg.Options
	confidence := 0.0
	var features AudioFeatures

	if cfg.AutoTune {
		tuned := AutoTune(ctx, buf, cfg.Intensity)
		features = tuned.Features
		confidence = tuned.Suggestions.Confidence
		hum := opts.HumFundamental
		opts = tuned.DSPOptions
		opts.HumFundamental = hum
	} else {
		// Features are still worth reporting for the analysis log.
		features, err = AnalyzeBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("analysis failed: %w", err)
		}
	}

	if progress != nil {
		progress(1, "Analyzing", 1.0, -60.0)
		progress(2, "Processing", 0.0, -60.0)
	}

	rendered, err := Render(ctx, buf, opts, func(p float64, label string, level float64) {
		if progress != nil {
			progress(2, "Processing", p, level)
		}
	})
	if err != nil {
		return nil, err
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = generateOutputPath(inputPath)
	}

	encDiag, err := audio.WriteWAVFile(outputPath, rendered)
	if err != nil {
		return nil, &ProcessingError{Op: "encode output", Err: err}
	}

	if progress != nil {
		progress(2, "Processing", 1.0, -60.0)
	}

	return &ProcessingResult{
		OutputPath: outputPath,
		Features:   features,
		Applied:    opts,
		Confidence: confidence,
		Metrics:    Measure(rendered),
		Encoding:   encDiag,
		Elapsed:    time.Since(started),
	}, nil
}

// generateOutputPath creates the output filename from the input
// filename. Example: /path/to/audio.wav → /path/to/audio-processed.wav
func generateOutputPath(inputPath string) string {
	dir := filepath.Dir(inputPath)
	filename := filepath.Base(inputPath)
	ext := filepath.Ext(filename)
	nameWithoutExt := strings.TrimSuffix(filename, ext)

	return filepath.Join(dir, nameWithoutExt+"-processed.wav")
}
