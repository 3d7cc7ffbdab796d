package processor

import (
	"math"
	"os"
	"testing"

	"github.com/soundmend/soundmend/internal/audio"
)

// TestAudioOptions configures the synthetic audio to generate
type TestAudioOptions struct {
	DurationSecs float64 // Total duration in seconds
	SampleRate   int     // Sample rate (default: 44100)
	ToneFreq     float64 // Sine wave frequency in Hz (0 = no tone)
	ToneLevel    float64 // Tone level in dBFS (e.g., -23.0)
	NoiseLevel   float64 // White noise level in dBFS (0 = no noise, -60 = quiet noise)
	SilenceGap   struct {
		Start    float64 // Start time of silence gap in seconds
		Duration float64 // Duration of silence gap in seconds
	}
}

// generateTestBuffer creates a synthetic mono buffer for testing.
// The audio can include a sine tone, white noise, and a silence gap.
// Noise comes from a fixed-seed LCG, so output is deterministic.
func generateTestBuffer(t *testing.T, opts TestAudioOptions) *audio.Buffer {
	t.Helper()

	if opts.SampleRate == 0 {
		opts.SampleRate = 44100
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 5.0
	}

	totalSamples := int(opts.DurationSecs * float64(opts.SampleRate))
	buf := audio.NewBuffer(opts.SampleRate, 1, totalSamples)

	toneAmp := 0.0
	if opts.ToneFreq > 0 && opts.ToneLevel < 0 {
		toneAmp = math.Pow(10.0, opts.ToneLevel/20.0)
	}

	noiseAmp := 0.0
	if opts.NoiseLevel < 0 {
		noiseAmp = math.Pow(10.0, opts.NoiseLevel/20.0)
	}

	silenceStart := int(opts.SilenceGap.Start * float64(opts.SampleRate))
	silenceEnd := int((opts.SilenceGap.Start + opts.SilenceGap.Duration) * float64(opts.SampleRate))

	// Simple LCG random number generator for deterministic noise
	// (avoids importing math/rand and seeding complexity)
	rngState := uint32(12345)
	nextRandom := func() float64 {
		// LCG parameters from Numerical Recipes
		rngState = rngState*1664525 + 1013904223
		// Convert to -1.0 to 1.0 range
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	for i := 0; i < totalSamples; i++ {
		if i >= silenceStart && i < silenceEnd && opts.SilenceGap.Duration > 0 {
			continue
		}

		var sample float64
		if toneAmp > 0 {
			ts := float64(i) / float64(opts.SampleRate)
			sample += toneAmp * math.Sin(2.0*math.Pi*opts.ToneFreq*ts)
		}
		if noiseAmp > 0 {
			sample += noiseAmp * nextRandom()
		}

		buf.Samples[0][i] = clamp(sample, -1.0, 1.0)
	}

	return buf
}

// generateTestFile writes a synthetic buffer to a temporary WAV file
// and returns its path. The file is removed when the test finishes.
func generateTestFile(t *testing.T, opts TestAudioOptions) string {
	t.Helper()

	buf := generateTestBuffer(t, opts)

	tmpFile, err := os.CreateTemp("", "soundmend-test-*.wav")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()

	if _, err := audio.WriteWAVFile(tmpPath, buf); err != nil {
		os.Remove(tmpPath)
		t.Fatalf("failed to write WAV file: %v", err)
	}

	t.Cleanup(func() {
		os.Remove(tmpPath)
		os.Remove(generateOutputPath(tmpPath))
	})

	return tmpPath
}

// silentBuffer returns an all-zero mono buffer.
func silentBuffer(t *testing.T, durationSecs float64, sampleRate int) *audio.Buffer {
	t.Helper()
	return audio.NewBuffer(sampleRate, 1, int(durationSecs*float64(sampleRate)))
}
