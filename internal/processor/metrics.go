package processor

import (
	"fmt"
	"math"

	"github.com/soundmend/soundmend/internal/audio"
)

// Abnormality thresholds shared by diagnostics and UI warnings
const (
	// AbnormalClippingPercent flags a checkpoint when more than this
	// share of samples sits at or beyond the clip threshold.
	AbnormalClippingPercent = 5.0

	// AbnormalDCOffset flags a checkpoint whose mean sample value
	// drifts beyond this magnitude.
	AbnormalDCOffset = 0.1

	// AbnormalPeakLevel flags samples beyond full scale.
	AbnormalPeakLevel = 1.0
)

// AudioMetrics is the per-checkpoint measurement set.
type AudioMetrics struct {
	SampleRate         int     `json:"sampleRate"`
	Channels           int     `json:"channels"`
	Duration           float64 `json:"duration"` // seconds
	PeakLevel          float64 `json:"peakLevel"`
	RMSLevel           float64 `json:"rmsLevel"`
	DCOffset           float64 `json:"dcOffset"`
	NaNCount           int     `json:"nanCount"`
	InfinityCount      int     `json:"infinityCount"`
	ClippingCount      int     `json:"clippingCount"`
	ClippingPercentage float64 `json:"clippingPercentage"`
}

// Abnormalities is the detection result for one checkpoint. Every
// matching issue is listed, not just the first.
type Abnormalities struct {
	HasAbnormalities bool     `json:"hasAbnormalities"`
	Issues           []string `json:"issues"`
}

// Measure computes AudioMetrics across all channels of a buffer.
// NaN and infinite samples are counted but excluded from the peak,
// RMS, and DC accumulations so one bad sample cannot poison every
// other metric.
func Measure(buf *audio.Buffer) AudioMetrics {
	m := AudioMetrics{
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		Duration:   buf.Duration(),
	}

	var (
		sumSquares float64
		sum        float64
		finite     int
	)

	for ch := 0; ch < buf.Channels; ch++ {
		for _, s := range buf.Samples[ch] {
			switch {
			case math.IsNaN(s):
				m.NaNCount++
				continue
			case math.IsInf(s, 0):
				m.InfinityCount++
				continue
			}

			finite++
			sum += s
			sumSquares += s * s
			if abs := math.Abs(s); abs > m.PeakLevel {
				m.PeakLevel = abs
			}
			if math.Abs(s) >= audio.ClipThreshold {
				m.ClippingCount++
			}
		}
	}

	total := buf.Channels * buf.Frames()
	if finite > 0 {
		m.RMSLevel = math.Sqrt(sumSquares / float64(finite))
		m.DCOffset = sum / float64(finite)
	}
	if total > 0 {
		m.ClippingPercentage = 100.0 * float64(m.ClippingCount) / float64(total)
	}

	return m
}

// DetectAbnormalities applies the shared abnormality rules to a
// metrics set: NaN samples, infinite samples, clipping share above
// 5%, DC offset beyond 0.1, and peak beyond full scale.
func DetectAbnormalities(m AudioMetrics) Abnormalities {
	var issues []string

	if m.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%d NaN samples detected", m.NaNCount))
	}
	if m.InfinityCount > 0 {
		issues = append(issues, fmt.Sprintf("%d infinite samples detected", m.InfinityCount))
	}
	if m.ClippingPercentage > AbnormalClippingPercent {
		issues = append(issues, fmt.Sprintf("clipping on %.1f%% of samples (threshold %.0f%%)",
			m.ClippingPercentage, AbnormalClippingPercent))
	}
	if math.Abs(m.DCOffset) > AbnormalDCOffset {
		issues = append(issues, fmt.Sprintf("DC offset %.3f exceeds %.1f", m.DCOffset, AbnormalDCOffset))
	}
	if m.PeakLevel > AbnormalPeakLevel {
		issues = append(issues, fmt.Sprintf("peak level %.3f exceeds full scale", m.PeakLevel))
	}

	return Abnormalities{
		HasAbnormalities: len(issues) > 0,
		Issues:           issues,
	}
}
