package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soundmend/soundmend/internal/processor"
)

// RecordingTip represents a single piece of actionable recording advice
// derived from audio analysis.
type RecordingTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "level_too_quiet")
}

// MaxRecordingTips is the maximum number of tips to return.
const MaxRecordingTips = 5

// GenerateRecordingTips analyses extracted features and metrics and
// returns prioritised recording improvement suggestions.
func GenerateRecordingTips(features processor.AudioFeatures, metrics processor.AudioMetrics) []RecordingTip {
	var tips []RecordingTip
	firedRules := make(map[string]bool)

	rules := []func(processor.AudioFeatures, processor.AudioMetrics) *RecordingTip{
		tipLevelTooHot,
		tipLevelTooQuiet,
		tipBackgroundNoise,
		tipMainsHum,
		tipSibilance,
		tipTransients,
		tipDynamicRange,
		tipOverCompressed,
		tipPoorSNR,
		tipDCOffset,
	}

	for _, rule := range rules {
		if tip := rule(features, metrics); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	// Apply mutual exclusion
	tips = applyExclusions(tips, firedRules)

	// Sort by priority (descending)
	sort.Slice(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	// Cap at maximum
	if len(tips) > MaxRecordingTips {
		tips = tips[:MaxRecordingTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific
// tip has already fired. For example, "level_too_quiet" is suppressed
// when the recording clips: both cannot be the actionable problem.
func applyExclusions(tips []RecordingTip, fired map[string]bool) []RecordingTip {
	var result []RecordingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "level_too_quiet":
			if fired["level_clipping"] || fired["level_near_clipping"] {
				continue
			}
		case "poor_snr":
			if fired["background_noise_high"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipLevelTooHot fires when the recording clips or comes close.
// Peak at or beyond the clip threshold means actual clipping; above
// 0.89 linear (about -1 dBFS) means dangerously close.
func tipLevelTooHot(_ processor.AudioFeatures, m processor.AudioMetrics) *RecordingTip {
	if m.ClippingCount > 0 {
		return &RecordingTip{
			Priority: 10,
			RuleID:   "level_clipping",
			Message:  "Your recording is clipping - turn your microphone gain down by 6-10 dB to prevent distortion.",
		}
	}
	if m.PeakLevel > 0.89 {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "level_near_clipping",
			Message:  "Your recording is very close to clipping - turn your microphone gain down by 3-6 dB to give yourself some headroom.",
		}
	}
	return nil
}

// tipLevelTooQuiet fires when the overall RMS sits below about
// -42 dBFS (0.008 linear). The gain suggestion targets -24 dBFS.
func tipLevelTooQuiet(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	if f.RMSLevel <= 0 || f.RMSLevel >= 0.008 {
		return nil
	}
	rmsDB := processor.LinearToDb(f.RMSLevel)
	gainNeeded := -24.0 - rmsDB
	return &RecordingTip{
		Priority: 10,
		RuleID:   "level_too_quiet",
		Message:  fmt.Sprintf("Your microphone gain is too low - try increasing it by about %.0f dB.", gainNeeded),
	}
}

// tipBackgroundNoise fires when the estimated noise floor is elevated.
// Thresholds mirror the auto-tuner's suppression engagement rules.
func tipBackgroundNoise(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	floorDB := processor.LinearToDb(f.NoiseFloor)
	if f.NoiseFloor > 0.05 {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "background_noise_high",
			Message:  fmt.Sprintf("Background noise is high (%.0f dBFS) - try turning off fans, air conditioning, or other appliances before recording.", floorDB),
		}
	}
	if f.NoiseFloor > 0.02 {
		return &RecordingTip{
			Priority: 6,
			RuleID:   "background_noise_moderate",
			Message:  fmt.Sprintf("Background noise is slightly elevated (%.0f dBFS) - if possible, turn off any fans or appliances nearby.", floorDB),
		}
	}
	return nil
}

// tipMainsHum fires when the noise profile looks tonal and bass-heavy:
// an audible floor concentrated below 250 Hz with very few zero
// crossings is the classic hum signature.
func tipMainsHum(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	if f.NoiseFloor < 0.01 || f.LowEnergyRatio < 0.5 || f.ZeroCrossingRate > 0.05 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "mains_hum",
		Message:  "There's a constant low-frequency hum in your recording - check for nearby power supplies, monitors, or chargers and move them further from your microphone.",
	}
}

// tipSibilance fires on a harsh sibilance share confirmed by a bright
// centroid.
func tipSibilance(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	if f.SibilanceEnergy <= 0.15 || f.SpectralCentroid <= 4000.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 4,
		RuleID:   "sibilance",
		Message:  "Your recording has noticeable sibilance (harsh 's' and 'sh' sounds). Try angling your microphone slightly off-axis - point it at your chin rather than directly at your mouth.",
	}
}

// tipTransients fires on dense clicks, pops, or handling noise.
func tipTransients(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	if f.TransientDensity <= 0.5 {
		return nil
	}
	return &RecordingTip{
		Priority: 6,
		RuleID:   "transients",
		Message:  "Your recording has frequent pops or clicks. A pop filter and a stable microphone mount will prevent most plosives and handling noise.",
	}
}

// tipDynamicRange fires when the peak-to-RMS spread is very wide,
// indicating inconsistent speaking volume or microphone distance.
func tipDynamicRange(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	if f.DynamicRange <= 20.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		RuleID:   "dynamic_range",
		Message:  "Your speaking volume varies quite a lot. Try to maintain a consistent distance from your microphone and a steady speaking level.",
	}
}

// tipOverCompressed fires when the dynamic range is extremely low on a
// signal that clearly contains audio, indicating aggressive AGC or
// prior processing. DynamicRange == 0 is treated as unmeasured.
func tipOverCompressed(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	if f.DynamicRange >= 6.0 || f.DynamicRange == 0 || f.RMSLevel < 0.01 {
		return nil
	}
	return &RecordingTip{
		Priority: 6,
		RuleID:   "over_compressed",
		Message:  "Your recording sounds heavily compressed, possibly by automatic gain control. If your microphone software has an 'AGC' or 'auto-level' setting, try turning it off and setting the gain manually.",
	}
}

// tipPoorSNR fires when the gap between signal RMS and the noise floor
// drops below 10 dB. Zero noise floor is treated as unmeasured.
func tipPoorSNR(f processor.AudioFeatures, _ processor.AudioMetrics) *RecordingTip {
	if f.NoiseFloor <= 0 || f.RMSLevel <= 0 {
		return nil
	}
	headroom := processor.LinearToDb(f.RMSLevel) - processor.LinearToDb(f.NoiseFloor)
	if headroom >= 10.0 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "poor_snr",
		Message:  "The gap between your voice and the background noise is very small. Move closer to your microphone and reduce background noise if possible.",
	}
}

// tipDCOffset fires when the converter or interface adds a constant
// offset, which wastes headroom and can thump on edits.
func tipDCOffset(_ processor.AudioFeatures, m processor.AudioMetrics) *RecordingTip {
	if m.DCOffset > -0.02 && m.DCOffset < 0.02 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		RuleID:   "dc_offset",
		Message:  "Your recording carries a DC offset, which usually points at an audio interface or driver issue. Check for firmware updates or try a different input.",
	}
}
