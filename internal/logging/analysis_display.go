// Package logging handles generation of analysis reports for processed audio files.
// This file provides console display for analysis-only mode.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/soundmend/soundmend/internal/processor"
)

// DisplayAnalysisResults outputs analysis results to the console.
// Used by --analyze-only mode for rapid inspection without processing.
func DisplayAnalysisResults(w io.Writer, inputPath string, metrics processor.AudioMetrics, features processor.AudioFeatures, suggestions *processor.SuggestedSettings) {
	// Header
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "ANALYSIS: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	// File info
	fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(metrics.Duration))
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", metrics.SampleRate)
	fmt.Fprintf(w, "Channels:    %s\n", channelName(metrics.Channels))
	fmt.Fprintln(w)

	// Levels section
	writeAnalysisSection(w, "LEVELS")
	fmt.Fprintf(w, "  RMS Level:      %s dBFS\n", formatMetricPeak(features.RMSLevel, 1))
	fmt.Fprintf(w, "  Peak Level:     %s dBFS\n", formatMetricPeak(features.PeakLevel, 1))
	fmt.Fprintf(w, "  Dynamic Range:  %.1f dB (%s)\n", features.DynamicRange, interpretDynamicRange(features.DynamicRange))
	fmt.Fprintf(w, "  DC Offset:      %s\n", formatMetric(metrics.DCOffset, 4))
	fmt.Fprintln(w)

	// Noise section
	writeAnalysisSection(w, "NOISE")
	fmt.Fprintf(w, "  Noise Floor:    %s dBFS (%s)\n", formatMetricPeak(features.NoiseFloor, 1), interpretNoiseFloor(features.NoiseFloor))
	fmt.Fprintf(w, "  Zero Crossings: %.4f (%s)\n", features.ZeroCrossingRate, interpretZeroCrossingRate(features.ZeroCrossingRate))
	fmt.Fprintf(w, "  Transients:     %.2f (%s)\n", features.TransientDensity, interpretTransientDensity(features.TransientDensity))
	if metrics.ClippingCount > 0 {
		fmt.Fprintf(w, "  Clipping:       %d samples (%.1f%%)\n", metrics.ClippingCount, metrics.ClippingPercentage)
	}
	fmt.Fprintln(w)

	// Spectral section
	writeAnalysisSection(w, "SPECTRUM")
	fmt.Fprintf(w, "  Centroid:       %.0f Hz (%s)\n", features.SpectralCentroid, interpretCentroid(features.SpectralCentroid))
	fmt.Fprintf(w, "  Rolloff:        %.0f Hz (%s)\n", features.SpectralRolloff, interpretRolloff(features.SpectralRolloff))
	fmt.Fprintf(w, "  Band Balance:   %.2f / %.2f / %.2f low/mid/high (%s)\n",
		features.LowEnergyRatio, features.MidEnergyRatio, features.HighEnergyRatio,
		interpretBandBalance(features.LowEnergyRatio, features.MidEnergyRatio, features.HighEnergyRatio))
	fmt.Fprintf(w, "  Sibilance:      %.3f (%s)\n", features.SibilanceEnergy, interpretSibilance(features.SibilanceEnergy))
	fmt.Fprintln(w)

	// Suggested settings section
	if suggestions != nil {
		writeAnalysisSection(w, "SUGGESTED SETTINGS")
		fmt.Fprintf(w, "  Confidence:     %.0f%%\n", suggestions.Confidence*100)
		displaySuggestedStage(w, "Noise Suppress", suggestions.Options.NoiseSuppression)
		displaySuggestedStage(w, "Transient Tame", suggestions.Options.TransientSuppression)
		displaySuggestedStage(w, "Voice Isolate", suggestions.Options.VoiceIsolation)
		displaySuggestedStage(w, "Spectral Repair", suggestions.Options.SpectralRepair)
		displaySuggestedStage(w, "Dynamic EQ", suggestions.Options.DynamicEQ)
		displaySuggestedStage(w, "De-click", suggestions.Options.DeClickDeChirp)
		fmt.Fprintf(w, "  Tone Bands:     %s / %s / %s dB low/mid/high\n",
			formatMetricSigned(suggestions.Options.LowBandDB, 1),
			formatMetricSigned(suggestions.Options.MidBandDB, 1),
			formatMetricSigned(suggestions.Options.HighBandDB, 1))
	}
}

// displaySuggestedStage prints one suggested stage line.
func displaySuggestedStage(w io.Writer, label string, cfg processor.StageConfig) {
	if cfg.Enabled {
		fmt.Fprintf(w, "  %-15s strength %d\n", label+":", cfg.Strength)
	} else {
		fmt.Fprintf(w, "  %-15s off\n", label+":")
	}
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// channelName returns a friendly channel-count description.
func channelName(channels int) string {
	switch channels {
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
