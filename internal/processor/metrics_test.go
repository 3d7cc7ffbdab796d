package processor

import (
	"math"
	"strings"
	"testing"

	"github.com/soundmend/soundmend/internal/audio"
)

func TestMeasureCleanSine(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 2.0,
		ToneFreq:     440.0,
		ToneLevel:    -6.0,
	})

	m := Measure(buf)

	if m.SampleRate != 44100 || m.Channels != 1 {
		t.Errorf("format = %d Hz / %d ch, want 44100 / 1", m.SampleRate, m.Channels)
	}
	if math.Abs(m.Duration-2.0) > 0.001 {
		t.Errorf("Duration = %.3f, want 2.0", m.Duration)
	}

	wantPeak := math.Pow(10.0, -6.0/20.0)
	if math.Abs(m.PeakLevel-wantPeak) > 0.01 {
		t.Errorf("PeakLevel = %.4f, want ~%.4f", m.PeakLevel, wantPeak)
	}
	if math.Abs(m.DCOffset) > 0.001 {
		t.Errorf("DCOffset = %.5f, want ~0 for a sine", m.DCOffset)
	}
	if m.NaNCount != 0 || m.InfinityCount != 0 || m.ClippingCount != 0 {
		t.Errorf("clean signal reported NaN=%d Inf=%d clip=%d", m.NaNCount, m.InfinityCount, m.ClippingCount)
	}
}

func TestMeasureExcludesNonFiniteSamples(t *testing.T) {
	buf := audio.NewMonoBuffer(44100, make([]float64, 1000))
	for i := range buf.Samples[0] {
		buf.Samples[0][i] = 0.5
	}
	buf.Samples[0][10] = math.NaN()
	buf.Samples[0][11] = math.Inf(1)
	buf.Samples[0][12] = math.Inf(-1)

	m := Measure(buf)

	if m.NaNCount != 1 {
		t.Errorf("NaNCount = %d, want 1", m.NaNCount)
	}
	if m.InfinityCount != 2 {
		t.Errorf("InfinityCount = %d, want 2", m.InfinityCount)
	}
	// The bad samples must not poison the finite accumulations.
	if math.Abs(m.PeakLevel-0.5) > 1e-9 {
		t.Errorf("PeakLevel = %v, want 0.5", m.PeakLevel)
	}
	if math.Abs(m.RMSLevel-0.5) > 1e-9 {
		t.Errorf("RMSLevel = %v, want 0.5", m.RMSLevel)
	}
	if math.Abs(m.DCOffset-0.5) > 1e-9 {
		t.Errorf("DCOffset = %v, want 0.5", m.DCOffset)
	}
}

func TestMeasureCountsClipping(t *testing.T) {
	buf := audio.NewMonoBuffer(44100, make([]float64, 100))
	for i := 0; i < 25; i++ {
		buf.Samples[0][i] = 0.995
	}
	for i := 25; i < 100; i++ {
		buf.Samples[0][i] = 0.1
	}

	m := Measure(buf)

	if m.ClippingCount != 25 {
		t.Errorf("ClippingCount = %d, want 25", m.ClippingCount)
	}
	if math.Abs(m.ClippingPercentage-25.0) > 0.001 {
		t.Errorf("ClippingPercentage = %.2f, want 25.0", m.ClippingPercentage)
	}
}

func TestDetectAbnormalities(t *testing.T) {
	tests := []struct {
		name       string
		metrics    AudioMetrics
		wantIssues int
		wantMatch  string
	}{
		{
			name:       "clean",
			metrics:    AudioMetrics{PeakLevel: 0.8, RMSLevel: 0.2},
			wantIssues: 0,
		},
		{
			name:       "NaN samples",
			metrics:    AudioMetrics{NaNCount: 3},
			wantIssues: 1,
			wantMatch:  "NaN",
		},
		{
			name:       "infinite samples",
			metrics:    AudioMetrics{InfinityCount: 2},
			wantIssues: 1,
			wantMatch:  "infinite",
		},
		{
			name:       "excess clipping",
			metrics:    AudioMetrics{ClippingPercentage: 7.5},
			wantIssues: 1,
			wantMatch:  "clipping",
		},
		{
			name:       "clipping below threshold is fine",
			metrics:    AudioMetrics{ClippingPercentage: 4.9},
			wantIssues: 0,
		},
		{
			name:       "DC offset drift",
			metrics:    AudioMetrics{DCOffset: -0.15},
			wantIssues: 1,
			wantMatch:  "DC offset",
		},
		{
			name:       "peak beyond full scale",
			metrics:    AudioMetrics{PeakLevel: 1.3},
			wantIssues: 1,
			wantMatch:  "peak level",
		},
		{
			name: "multiple issues all reported",
			metrics: AudioMetrics{
				NaNCount:           1,
				ClippingPercentage: 10.0,
				PeakLevel:          1.5,
			},
			wantIssues: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectAbnormalities(tt.metrics)

			if got.HasAbnormalities != (tt.wantIssues > 0) {
				t.Errorf("HasAbnormalities = %v, want %v", got.HasAbnormalities, tt.wantIssues > 0)
			}
			if len(got.Issues) != tt.wantIssues {
				t.Errorf("got %d issues %v, want %d", len(got.Issues), got.Issues, tt.wantIssues)
			}
			if tt.wantMatch != "" {
				found := false
				for _, issue := range got.Issues {
					if strings.Contains(issue, tt.wantMatch) {
						found = true
					}
				}
				if !found {
					t.Errorf("no issue mentions %q in %v", tt.wantMatch, got.Issues)
				}
			}
		})
	}
}
