package processor

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/soundmend/soundmend/internal/audio"
)

func TestGenerateOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/path/to/audio.wav", "/path/to/audio-processed.wav"},
		{"recording.wav", "recording-processed.wav"},
		{"/path/no-extension", "/path/no-extension-processed.wav"},
	}
	for _, tt := range tests {
		if got := generateOutputPath(tt.in); got != tt.want {
			t.Errorf("generateOutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcessFile(t *testing.T) {
	path := generateTestFile(t, TestAudioOptions{
		DurationSecs: 2.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
		NoiseLevel:   -45.0,
	})

	var passes []int
	result, err := ProcessFile(context.Background(), path, ProcessConfig{
		Options: DefaultOptions(),
	}, func(pass int, passName string, progress float64, levelDB float64) {
		passes = append(passes, pass)
	})
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if !strings.HasSuffix(result.OutputPath, "-processed.wav") {
		t.Errorf("OutputPath = %q, want -processed.wav suffix", result.OutputPath)
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Fatalf("output file missing: %v", err)
	}

	// The output must decode as a valid WAV at the input's format.
	out, err := audio.DecodeWAVFile(result.OutputPath)
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if out.SampleRate != 44100 || out.Channels != 1 {
		t.Errorf("output format = %d Hz / %d ch, want 44100 / 1", out.SampleRate, out.Channels)
	}

	if result.Elapsed <= 0 {
		t.Error("Elapsed not recorded")
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %g without auto-tune, want 0", result.Confidence)
	}
	if result.Features.RMSLevel <= 0 {
		t.Error("Features not populated for the analysis report")
	}
	if result.Metrics.SampleRate != 44100 {
		t.Errorf("Metrics.SampleRate = %d, want 44100", result.Metrics.SampleRate)
	}

	// Both passes must have reported progress.
	saw := map[int]bool{}
	for _, p := range passes {
		saw[p] = true
	}
	if !saw[1] || !saw[2] {
		t.Errorf("progress passes seen = %v, want both 1 and 2", passes)
	}
}

func TestProcessFileAutoTune(t *testing.T) {
	path := generateTestFile(t, TestAudioOptions{
		DurationSecs: 2.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
		NoiseLevel:   -30.0,
	})

	opts := DefaultOptions()
	opts.HumFundamental = 50.0

	result, err := ProcessFile(context.Background(), path, ProcessConfig{
		Options:   opts,
		AutoTune:  true,
		Intensity: 1.0,
	}, nil)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	// The hum fundamental is regional configuration, not a tuning
	// decision, so auto-tune must carry it through.
	if result.Applied.HumFundamental != 50.0 {
		t.Errorf("HumFundamental = %g after auto-tune, want 50", result.Applied.HumFundamental)
	}
	if result.Confidence <= 0 {
		t.Errorf("Confidence = %g with auto-tune on a real signal, want > 0", result.Confidence)
	}
}

func TestProcessFileOutputPathOverride(t *testing.T) {
	path := generateTestFile(t, TestAudioOptions{
		DurationSecs: 0.5,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
	})
	override := path + ".custom.wav"
	t.Cleanup(func() { os.Remove(override) })

	result, err := ProcessFile(context.Background(), path, ProcessConfig{
		Options:    DefaultOptions(),
		OutputPath: override,
	}, nil)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if result.OutputPath != override {
		t.Errorf("OutputPath = %q, want %q", result.OutputPath, override)
	}
	if _, err := os.Stat(override); err != nil {
		t.Errorf("override output missing: %v", err)
	}
}

func TestProcessFileMissingInput(t *testing.T) {
	_, err := ProcessFile(context.Background(), "/nonexistent/input.wav", ProcessConfig{
		Options: DefaultOptions(),
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestProcessFileCancelled(t *testing.T) {
	path := generateTestFile(t, TestAudioOptions{
		DurationSecs: 1.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ProcessFile(ctx, path, ProcessConfig{Options: DefaultOptions()}, nil); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
