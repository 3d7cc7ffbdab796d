package processor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/soundmend/soundmend/internal/audio"
)

// Checkpoint stage names, in the fixed diagnostic order
const (
	CheckpointInput         = "input"
	CheckpointEarlyPipeline = "early-pipeline"
	CheckpointFinalOutput   = "final-output"

	// SourceStageNone is reported when no checkpoint shows
	// abnormalities.
	SourceStageNone = "none"
)

// CheckpointResult captures one measured point of the diagnostic run.
// AudioPath is a playable audition WAV owned by the report; it is
// removed when the report is released.
type CheckpointResult struct {
	Name          string                    `json:"name"`
	Stage         string                    `json:"stage"`
	Metrics       AudioMetrics              `json:"metrics"`
	Abnormalities Abnormalities             `json:"abnormalities"`
	AudioPath     string                    `json:"-"`
	Encoding      audio.EncodingDiagnostics `json:"-"`
}

// TripleCheckReport is the immutable result of one diagnostic run.
// The report owns the three audition files its checkpoints reference;
// call Release when the report is superseded or discarded.
type TripleCheckReport struct {
	Checkpoints        []CheckpointResult `json:"checkpoints"`
	SourceStage        string             `json:"sourceStage"`
	Summary            string             `json:"summary"`
	ProcessingSettings Options            `json:"processingSettings"`
	Timestamp          time.Time          `json:"timestamp"`
}

// Release removes the audition files the report owns. Safe to call
// more than once.
func (r *TripleCheckReport) Release() {
	for i := range r.Checkpoints {
		if p := r.Checkpoints[i].AudioPath; p != "" {
			os.Remove(p)
			r.Checkpoints[i].AudioPath = ""
		}
	}
}

// RunTripleCheck performs the three-checkpoint diagnostic procedure
// on a decoded buffer, strictly in order:
//
//  1. Measure the raw decode, encode it for auditioning.
//  2. Render in diagnostics mode (normalisation stages only) and
//     measure the result.
//  3. Render with the caller's actual settings, encode, decode again,
//     and measure the round-tripped buffer. The round-trip is
//     deliberate: it isolates artifacts introduced by encoding
//     itself, not just by DSP.
//
// Checkpoints 1 and 2 measure before any round-trip; only checkpoint
// 3 measures after. Any failure aborts the whole run with a
// DiagnosticsError and no partial report; audition files created
// before the failure are removed.
func RunTripleCheck(ctx context.Context, buf *audio.Buffer, opts Options) (*TripleCheckReport, error) {
	if buf == nil || buf.Frames() == 0 {
		return nil, &DiagnosticsError{Checkpoint: CheckpointInput, Err: errEmptyInput}
	}
	if err := opts.Validate(); err != nil {
		return nil, &DiagnosticsError{Checkpoint: CheckpointInput, Err: err}
	}

	var checkpoints []CheckpointResult
	releaseAll := func() {
		for _, cp := range checkpoints {
			if cp.AudioPath != "" {
				os.Remove(cp.AudioPath)
			}
		}
	}

	// Checkpoint 1: the raw decode, measured before any processing.
	inputMetrics := Measure(buf)
	cp, err := buildCheckpoint("Original Input", CheckpointInput, buf, inputMetrics)
	if err != nil {
		return nil, &DiagnosticsError{Checkpoint: CheckpointInput, Err: err}
	}
	checkpoints = append(checkpoints, cp)

	// Checkpoint 2: normalisation stages only, on the same decoded
	// buffer. Render clones internally, so the input stays pristine.
	diagOpts := opts
	diagOpts.DiagnosticsMode = true
	earlyBuf, err := Render(ctx, buf, diagOpts, nil)
	if err != nil {
		releaseAll()
		return nil, &DiagnosticsError{Checkpoint: CheckpointEarlyPipeline, Err: err}
	}
	cp, err = buildCheckpoint("Early Pipeline", CheckpointEarlyPipeline, earlyBuf, Measure(earlyBuf))
	if err != nil {
		releaseAll()
		return nil, &DiagnosticsError{Checkpoint: CheckpointEarlyPipeline, Err: err}
	}
	checkpoints = append(checkpoints, cp)

	// Checkpoint 3: the full pipeline, then an encode/decode
	// round-trip before measuring.
	finalBuf, err := Render(ctx, buf, opts, nil)
	if err != nil {
		releaseAll()
		return nil, &DiagnosticsError{Checkpoint: CheckpointFinalOutput, Err: err}
	}
	encoded, encDiag, err := audio.EncodeWAV(finalBuf)
	if err != nil {
		releaseAll()
		return nil, &DiagnosticsError{Checkpoint: CheckpointFinalOutput, Err: err}
	}
	roundTripped, err := audio.DecodeWAV(encoded)
	if err != nil {
		releaseAll()
		return nil, &DiagnosticsError{Checkpoint: CheckpointFinalOutput, Err: err}
	}
	auditionPath, err := writeAudition(encoded)
	if err != nil {
		releaseAll()
		return nil, &DiagnosticsError{Checkpoint: CheckpointFinalOutput, Err: err}
	}
	finalMetrics := Measure(roundTripped)
	checkpoints = append(checkpoints, CheckpointResult{
		Name:          "Final Output",
		Stage:         CheckpointFinalOutput,
		Metrics:       finalMetrics,
		Abnormalities: DetectAbnormalities(finalMetrics),
		AudioPath:     auditionPath,
		Encoding:      encDiag,
	})

	report := &TripleCheckReport{
		Checkpoints:        checkpoints,
		SourceStage:        firstAbnormalStage(checkpoints),
		ProcessingSettings: opts,
		Timestamp:          time.Now(),
	}
	report.Summary = summarise(report)

	return report, nil
}

// RunTripleCheckFile decodes a WAV file and runs the diagnostic
// procedure on it.
func RunTripleCheckFile(ctx context.Context, path string, opts Options) (*TripleCheckReport, error) {
	buf, err := audio.DecodeWAVFile(path)
	if err != nil {
		return nil, &DiagnosticsError{Checkpoint: CheckpointInput, Err: err}
	}
	return RunTripleCheck(ctx, buf, opts)
}

// buildCheckpoint encodes a buffer for auditioning and assembles the
// checkpoint record. Metrics are supplied by the caller so each
// checkpoint controls whether it measures pre- or post-round-trip.
func buildCheckpoint(name, stage string, buf *audio.Buffer, metrics AudioMetrics) (CheckpointResult, error) {
	encoded, encDiag, err := audio.EncodeWAV(buf)
	if err != nil {
		return CheckpointResult{}, err
	}
	auditionPath, err := writeAudition(encoded)
	if err != nil {
		return CheckpointResult{}, err
	}
	return CheckpointResult{
		Name:          name,
		Stage:         stage,
		Metrics:       metrics,
		Abnormalities: DetectAbnormalities(metrics),
		AudioPath:     auditionPath,
		Encoding:      encDiag,
	}, nil
}

// writeAudition persists encoded WAV bytes as a temporary audition
// file and returns its path.
func writeAudition(encoded []byte) (string, error) {
	f, err := os.CreateTemp("", "soundmend-checkpoint-*.wav")
	if err != nil {
		return "", fmt.Errorf("create audition file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(encoded); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write audition file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close audition file: %w", err)
	}
	return path, nil
}

// firstAbnormalStage returns the stage of the first checkpoint with
// abnormalities, in the fixed order, or SourceStageNone.
func firstAbnormalStage(checkpoints []CheckpointResult) string {
	for _, cp := range checkpoints {
		if cp.Abnormalities.HasAbnormalities {
			return cp.Stage
		}
	}
	return SourceStageNone
}

// summarise produces the templated report sentence.
func summarise(r *TripleCheckReport) string {
	if r.SourceStage == SourceStageNone {
		return "No abnormalities detected at any checkpoint; the signal chain is healthy."
	}
	for _, cp := range r.Checkpoints {
		if cp.Stage == r.SourceStage {
			return fmt.Sprintf("Abnormalities first appear at the %s checkpoint (%s): %s",
				cp.Stage, cp.Name, strings.Join(cp.Abnormalities.Issues, "; "))
		}
	}
	return fmt.Sprintf("Abnormalities first appear at the %s checkpoint", r.SourceStage)
}
