// Diagnostics report export: JSON for tooling, text for humans.

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/soundmend/soundmend/internal/processor"
)

// WriteDiagnosticsJSON saves a triple-check report as indented JSON.
// The layout is stable: tooling can rely on the checkpoint order and
// field names across runs.
func WriteDiagnosticsJSON(path string, report *processor.TripleCheckReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode diagnostics report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write diagnostics report: %w", err)
	}
	return nil
}

// WriteDiagnosticsText saves a triple-check report as a sectioned text
// document mirroring the analysis-report style.
func WriteDiagnosticsText(path string, report *processor.TripleCheckReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create diagnostics report: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, strings.Repeat("=", 70))
	fmt.Fprintln(f, "SOUNDMEND TRIPLE-CHECK DIAGNOSTICS")
	fmt.Fprintln(f, strings.Repeat("=", 70))
	fmt.Fprintf(f, "Generated:    %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(f, "Source stage: %s\n", report.SourceStage)
	fmt.Fprintf(f, "Summary:      %s\n", report.Summary)
	fmt.Fprintln(f)

	for i, cp := range report.Checkpoints {
		writeSection(f, fmt.Sprintf("Checkpoint %d: %s (%s)", i+1, cp.Name, cp.Stage))

		m := cp.Metrics
		fmt.Fprintf(f, "Format:       %d Hz, %d channel(s), %.1fs\n", m.SampleRate, m.Channels, m.Duration)
		fmt.Fprintf(f, "Peak Level:   %s dBFS\n", formatMetricPeak(m.PeakLevel, 1))
		fmt.Fprintf(f, "RMS Level:    %s dBFS\n", formatMetricPeak(m.RMSLevel, 1))
		fmt.Fprintf(f, "DC Offset:    %s\n", formatMetric(m.DCOffset, 4))
		fmt.Fprintf(f, "Clipping:     %d samples (%.1f%%)\n", m.ClippingCount, m.ClippingPercentage)
		fmt.Fprintf(f, "NaN Samples:  %d\n", m.NaNCount)
		fmt.Fprintf(f, "Inf Samples:  %d\n", m.InfinityCount)

		if cp.Abnormalities.HasAbnormalities {
			fmt.Fprintln(f, "Abnormalities:")
			for _, issue := range cp.Abnormalities.Issues {
				fmt.Fprintf(f, "  - %s\n", issue)
			}
		} else {
			fmt.Fprintln(f, "Abnormalities: none")
		}

		if cp.AudioPath != "" {
			fmt.Fprintf(f, "Audition:     %s\n", cp.AudioPath)
		}
		fmt.Fprintln(f)
	}

	writeSection(f, "Processing Settings")
	settings, err := json.MarshalIndent(report.ProcessingSettings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	fmt.Fprintln(f, string(settings))

	return nil
}
