// Package logging handles generation of analysis reports for processed audio files

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/soundmend/soundmend/internal/processor"
)

// ============================================================================
// Feature Interpretation Functions
// ============================================================================
// These functions interpret scalar audio features and return human-readable
// descriptions. Based on standard audio analysis conventions for speech.

// interpretCentroid describes spectral "brightness" based on centre of gravity.
// Reference: Grey & Gordon (1978) JASA; Peeters (2003) CUIDADO; librosa.
//
// Centroid is the "centre of gravity" of the spectrum - where spectral energy is concentrated.
//
// Reference values for speech:
// - Male voiced speech: 500-2500 Hz
// - Female voiced speech: 800-3500 Hz
// - Unvoiced consonants: 3000-8000+ Hz
//
// Higher centroid indicates brighter voice; useful for repair-stage tuning.
func interpretCentroid(hz float64) string {
	switch {
	case hz < 500:
		return "very dark, bass-heavy"
	case hz < 1500:
		return "warm, full-bodied"
	case hz < 2500:
		return "balanced, natural voice"
	case hz < 4000:
		return "present, forward"
	case hz < 6000:
		return "bright, crisp"
	default:
		return "very bright, potentially harsh"
	}
}

// interpretRolloff describes effective bandwidth via 85% energy threshold.
// Returns Hz below which 85% of spectral energy resides.
// Reference: Peeters (2003) CUIDADO; librosa spectral_rolloff.
func interpretRolloff(hz float64) string {
	switch {
	case hz < 2000:
		return "dark, muffled, heavy filtering"
	case hz < 4000:
		return "warm, controlled high frequencies"
	case hz < 7000:
		return "balanced brightness, natural speech"
	case hz < 11000:
		return "bright, airy, good articulation"
	default:
		return "very bright, significant sibilance"
	}
}

// interpretNoiseFloor describes the estimated room/equipment floor.
// The value is linear amplitude; thresholds mirror the auto-tuner's
// noise suppression engagement rules.
func interpretNoiseFloor(level float64) string {
	switch {
	case level < 0.002:
		return "very quiet, studio-grade floor"
	case level < 0.02:
		return "quiet, acceptable for speech"
	case level < 0.05:
		return "audible floor, suppression recommended"
	default:
		return "noisy, strong suppression needed"
	}
}

// interpretDynamicRange describes the peak-to-RMS spread in dB.
// Speech usually lands between 10 and 20 dB; lower values suggest prior
// compression or AGC, higher values inconsistent levels.
func interpretDynamicRange(db float64) string {
	switch {
	case db < 6:
		return "flattened, heavily compressed"
	case db < 10:
		return "controlled, lightly compressed"
	case db < 20:
		return "natural speech dynamics"
	default:
		return "very wide, inconsistent levels"
	}
}

// interpretTransientDensity describes click/pop/thump activity, 0-1.
func interpretTransientDensity(density float64) string {
	switch {
	case density < 0.1:
		return "smooth, few transients"
	case density < 0.3:
		return "occasional transients, normal speech"
	case density < 0.6:
		return "frequent transients, plosives or handling"
	default:
		return "dense transients, clicks likely"
	}
}

// interpretSibilance describes the 6-10 kHz energy share.
func interpretSibilance(share float64) string {
	switch {
	case share < 0.03:
		return "minimal sibilance"
	case share < 0.08:
		return "normal sibilance for speech"
	case share < 0.15:
		return "pronounced, repair recommended"
	default:
		return "harsh, de-essing needed"
	}
}

// interpretBandBalance describes the low/mid/high energy split.
func interpretBandBalance(low, mid, high float64) string {
	switch {
	case low > 0.5:
		return "bass-heavy, boomy"
	case high > 0.4:
		return "treble-heavy, thin"
	case mid > 0.6:
		return "mid-focused, voice-like"
	default:
		return "reasonably balanced"
	}
}

// interpretZeroCrossingRate describes signal noisiness from crossings per sample.
// Voiced speech sits well below 0.1; broadband noise pushes past 0.15.
func interpretZeroCrossingRate(rate float64) string {
	switch {
	case rate < 0.05:
		return "tonal, clean voiced content"
	case rate < 0.15:
		return "mixed voiced/unvoiced, typical speech"
	case rate < 0.25:
		return "noisy, elevated hiss"
	default:
		return "very noisy or click-laden"
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(f *os.File, title string) {
	fmt.Fprintln(f, title)
	fmt.Fprintln(f, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate an analysis report
type ReportData struct {
	InputPath   string
	OutputPath  string
	StartTime   time.Time
	EndTime     time.Time
	AnalyzeTime time.Duration
	RenderTime  time.Duration
	Result      *processor.ProcessingResult
	Diagnostics *processor.TripleCheckReport // nil when the triple-check run was skipped
}

// GenerateReport creates a detailed analysis report and saves it alongside the output file.
// The report filename will be <output>.log
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - pass timings
// 3. Auto-Tune - applied settings and confidence (when used)
// 4. Signal Features - extracted features with interpretations
// 5. Stage Chain Applied - the resolved pipeline
// 6. Output - export metrics and encoding diagnostics
// 7. Diagnostics - checkpoint comparison table (when a triple-check ran)
func GenerateReport(data ReportData) error {
	// Generate report filename: interview-processed.wav → interview-processed.log
	logPath := strings.TrimSuffix(data.OutputPath, filepath.Ext(data.OutputPath)) + ".log"

	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeProcessingSummary(f, data)

	if data.Result != nil {
		if data.Result.Confidence > 0 {
			writeAutoTuneSection(f, data.Result)
		}
		writeFeaturesSection(f, data.Result.Features)
		writeStageChainSection(f, data.Result.Applied)
		writeOutputSection(f, data.Result)
	}

	if data.Diagnostics != nil {
		writeDiagnosticsSection(f, data.Diagnostics)
	}

	return nil
}

// writeReportHeader outputs the file identification block.
func writeReportHeader(f *os.File, data ReportData) {
	fmt.Fprintln(f, strings.Repeat("=", 70))
	fmt.Fprintf(f, "SOUNDMEND ANALYSIS REPORT\n")
	fmt.Fprintln(f, strings.Repeat("=", 70))
	fmt.Fprintf(f, "Input:     %s\n", data.InputPath)
	fmt.Fprintf(f, "Output:    %s\n", data.OutputPath)
	fmt.Fprintf(f, "Generated: %s\n", data.EndTime.Format(time.RFC3339))
	fmt.Fprintln(f)
}

// writeProcessingSummary outputs pass timings.
func writeProcessingSummary(f *os.File, data ReportData) {
	writeSection(f, "Processing Summary")
	fmt.Fprintf(f, "Pass 1 (analysis):  %s\n", data.AnalyzeTime.Round(time.Millisecond))
	fmt.Fprintf(f, "Pass 2 (rendering): %s\n", data.RenderTime.Round(time.Millisecond))
	fmt.Fprintf(f, "Total:              %s\n", data.EndTime.Sub(data.StartTime).Round(time.Millisecond))
	fmt.Fprintln(f)
}

// writeAutoTuneSection outputs the tuner's decisions.
func writeAutoTuneSection(f *os.File, result *processor.ProcessingResult) {
	writeSection(f, "Auto-Tune")
	fmt.Fprintf(f, "Confidence: %.0f%%\n", result.Confidence*100)
	fmt.Fprintln(f)
}

// writeFeaturesSection outputs the extracted features with interpretations.
func writeFeaturesSection(f *os.File, feat processor.AudioFeatures) {
	writeSection(f, "Signal Features")
	fmt.Fprintf(f, "RMS Level:         %s dBFS\n", formatMetricPeak(feat.RMSLevel, 1))
	fmt.Fprintf(f, "Peak Level:        %s dBFS\n", formatMetricPeak(feat.PeakLevel, 1))
	fmt.Fprintf(f, "Dynamic Range:     %.1f dB (%s)\n", feat.DynamicRange, interpretDynamicRange(feat.DynamicRange))
	fmt.Fprintf(f, "Noise Floor:       %s dBFS (%s)\n", formatMetricPeak(feat.NoiseFloor, 1), interpretNoiseFloor(feat.NoiseFloor))
	fmt.Fprintf(f, "Centroid:          %.0f Hz (%s)\n", feat.SpectralCentroid, interpretCentroid(feat.SpectralCentroid))
	fmt.Fprintf(f, "Rolloff:           %.0f Hz (%s)\n", feat.SpectralRolloff, interpretRolloff(feat.SpectralRolloff))
	fmt.Fprintf(f, "Zero Crossings:    %.4f (%s)\n", feat.ZeroCrossingRate, interpretZeroCrossingRate(feat.ZeroCrossingRate))
	fmt.Fprintf(f, "Transient Density: %.2f (%s)\n", feat.TransientDensity, interpretTransientDensity(feat.TransientDensity))
	fmt.Fprintf(f, "Sibilance Share:   %.3f (%s)\n", feat.SibilanceEnergy, interpretSibilance(feat.SibilanceEnergy))
	fmt.Fprintf(f, "Band Balance:      %.2f / %.2f / %.2f low/mid/high (%s)\n",
		feat.LowEnergyRatio, feat.MidEnergyRatio, feat.HighEnergyRatio,
		interpretBandBalance(feat.LowEnergyRatio, feat.MidEnergyRatio, feat.HighEnergyRatio))
	fmt.Fprintln(f)
}

// writeStageChainSection lists the resolved pipeline stages with their
// configured strengths.
func writeStageChainSection(f *os.File, opts processor.Options) {
	writeSection(f, "Stage Chain Applied")

	chain := opts.BuildChain()
	for i, stage := range chain {
		cfg := opts.Stage(stage.ID)
		switch stage.ID {
		case processor.StagePreNormalize, processor.StageFinalNormalize:
			fmt.Fprintf(f, "%d. %-22s (fixed)\n", i+1, stage.ID)
		case processor.StageToneControl:
			fmt.Fprintf(f, "%d. %-22s low %s dB, mid %s dB, high %s dB\n", i+1, stage.ID,
				formatMetricSigned(opts.LowBandDB, 1),
				formatMetricSigned(opts.MidBandDB, 1),
				formatMetricSigned(opts.HighBandDB, 1))
		default:
			fmt.Fprintf(f, "%d. %-22s strength %d\n", i+1, stage.ID, cfg.Strength)
		}
	}
	if opts.HumFundamental != 0 {
		fmt.Fprintf(f, "Hum notch fundamental: %.0f Hz\n", opts.HumFundamental)
	}
	fmt.Fprintln(f)
}

// writeOutputSection outputs export metrics and the encoder's
// sanitisation/clipping counters.
func writeOutputSection(f *os.File, result *processor.ProcessingResult) {
	writeSection(f, "Output")
	m := result.Metrics
	fmt.Fprintf(f, "Format:       %d Hz, %d channel(s), %.1fs\n", m.SampleRate, m.Channels, m.Duration)
	fmt.Fprintf(f, "Peak Level:   %s dBFS\n", formatMetricPeak(m.PeakLevel, 1))
	fmt.Fprintf(f, "RMS Level:    %s dBFS\n", formatMetricPeak(m.RMSLevel, 1))
	fmt.Fprintf(f, "DC Offset:    %s\n", formatMetric(m.DCOffset, 4))

	enc := result.Encoding
	fmt.Fprintf(f, "Sanitised:    %d of %d samples\n", enc.SanitizedSamples, enc.TotalSamples)
	fmt.Fprintf(f, "Clipped:      %d of %d samples", enc.ClippedSamples, enc.TotalSamples)
	if enc.TotalSamples > 0 && enc.ClippedSamples > 0 {
		fmt.Fprintf(f, " (%.1f%%)", 100.0*float64(enc.ClippedSamples)/float64(enc.TotalSamples))
	}
	fmt.Fprintln(f)
	fmt.Fprintln(f)
}

// writeDiagnosticsSection outputs the checkpoint comparison table and
// the triple-check verdict.
func writeDiagnosticsSection(f *os.File, report *processor.TripleCheckReport) {
	writeSection(f, "Triple-Check Diagnostics")

	table := buildCheckpointTable(report)
	fmt.Fprint(f, table.String())
	fmt.Fprintln(f)

	fmt.Fprintf(f, "Source stage: %s\n", report.SourceStage)
	fmt.Fprintf(f, "Verdict:      %s\n", report.Summary)

	for _, cp := range report.Checkpoints {
		if !cp.Abnormalities.HasAbnormalities {
			continue
		}
		fmt.Fprintf(f, "\n%s (%s):\n", cp.Name, cp.Stage)
		for _, issue := range cp.Abnormalities.Issues {
			fmt.Fprintf(f, "  - %s\n", issue)
		}
	}
	fmt.Fprintln(f)
}

// buildCheckpointTable assembles the three-column metric comparison for
// the diagnostic checkpoints.
func buildCheckpointTable(report *processor.TripleCheckReport) *MetricTable {
	table := NewMetricTable()

	metric := func(pick func(processor.AudioMetrics) string) []string {
		values := make([]string, 0, len(report.Checkpoints))
		for _, cp := range report.Checkpoints {
			values = append(values, pick(cp.Metrics))
		}
		return values
	}

	table.AddRow("Peak Level", metric(func(m processor.AudioMetrics) string {
		return formatMetricPeak(m.PeakLevel, 1)
	}), "dBFS", "")
	table.AddRow("RMS Level", metric(func(m processor.AudioMetrics) string {
		return formatMetricPeak(m.RMSLevel, 1)
	}), "dBFS", "")
	table.AddRow("DC Offset", metric(func(m processor.AudioMetrics) string {
		return formatMetric(m.DCOffset, 4)
	}), "", "")
	table.AddRow("Clipping", metric(func(m processor.AudioMetrics) string {
		return formatMetric(m.ClippingPercentage, 1)
	}), "%", "")
	table.AddRow("NaN Samples", metric(func(m processor.AudioMetrics) string {
		return formatMetricCount(m.NaNCount)
	}), "", "")
	table.AddRow("Inf Samples", metric(func(m processor.AudioMetrics) string {
		return formatMetricCount(m.InfinityCount)
	}), "", "")

	return table
}
