package processor

import (
	"context"
	"errors"
	"math"
	"testing"
)

func allStagesEnabled(strength int) Options {
	opts := DefaultOptions()
	cfg := StageConfig{Enabled: true, Strength: strength}
	opts.NoiseSuppression = cfg
	opts.TransientSuppression = cfg
	opts.VoiceIsolation = cfg
	opts.SpectralRepair = cfg
	opts.DynamicEQ = cfg
	opts.DeClickDeChirp = cfg
	return opts
}

func TestRenderSilenceStaysSilent(t *testing.T) {
	buf := silentBuffer(t, 2.0, 44100)

	out, err := Render(context.Background(), buf, allStagesEnabled(50), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i, s := range out.Samples[0] {
		if s != 0 {
			t.Fatalf("sample %d = %v after processing silence, want 0", i, s)
		}
	}
}

func TestRenderDoesNotModifyInput(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 1.0,
		ToneFreq:     440.0,
		ToneLevel:    -12.0,
	})
	original := buf.Clone()

	if _, err := Render(context.Background(), buf, allStagesEnabled(80), nil); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := range buf.Samples[0] {
		if buf.Samples[0][i] != original.Samples[0][i] {
			t.Fatalf("input sample %d modified during rendering", i)
		}
	}
}

func TestRenderOutputIsFinite(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 2.0,
		ToneFreq:     440.0,
		ToneLevel:    -6.0,
		NoiseLevel:   -30.0,
	})

	out, err := Render(context.Background(), buf, allStagesEnabled(100), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i, s := range out.Samples[0] {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("sample %d = %v, want finite", i, s)
		}
	}
}

func TestRenderNormalizationKeepsHeadroom(t *testing.T) {
	// The normalisation chain on its own must never push a hot but
	// valid recording past full scale, including the attack transient
	// before the envelope followers engage.
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 2.0,
		ToneFreq:     1500.0,
		ToneLevel:    -0.5,
	})

	opts := allStagesEnabled(100)
	opts.DiagnosticsMode = true
	out, err := Render(context.Background(), buf, opts, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	m := Measure(out)
	if m.PeakLevel > 1.0 {
		t.Errorf("PeakLevel = %.4f, want <= 1.0", m.PeakLevel)
	}
	if m.ClippingCount != 0 {
		t.Errorf("ClippingCount = %d, want 0", m.ClippingCount)
	}
	if abn := DetectAbnormalities(m); abn.HasAbnormalities {
		t.Errorf("normalised output flagged abnormalities: %v", abn.Issues)
	}
}

func TestRenderFlatToneControlMatchesDiagnosticsMode(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 1.5,
		ToneFreq:     440.0,
		ToneLevel:    -12.0,
	})

	// With every enhancement stage disabled and flat tone bands, the
	// chain differs from diagnostics mode only by identity tone
	// filters, so the outputs must agree to rounding error.
	disabled, err := Render(context.Background(), buf, DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	diagOpts := allStagesEnabled(100)
	diagOpts.DiagnosticsMode = true
	diag, err := Render(context.Background(), buf, diagOpts, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := range disabled.Samples[0] {
		if diff := math.Abs(disabled.Samples[0][i] - diag.Samples[0][i]); diff > 1e-9 {
			t.Fatalf("sample %d differs by %v between flat tone control and diagnostics mode", i, diff)
		}
	}
}

func TestRenderProgressContract(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 3.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
	})

	type call struct {
		progress float64
		label    string
		levelDB  float64
	}
	var calls []call

	_, err := Render(context.Background(), buf, allStagesEnabled(50), func(p float64, label string, level float64) {
		calls = append(calls, call{p, label, level})
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if len(calls) < 2 {
		t.Fatalf("got %d progress calls, want at least 2", len(calls))
	}

	prev := -1.0
	for i, c := range calls {
		if c.progress < prev {
			t.Errorf("call %d: progress %f went backwards from %f", i, c.progress, prev)
		}
		prev = c.progress

		if i < len(calls)-1 && c.progress > 0.99 {
			t.Errorf("call %d: progress %f exceeds 0.99 before completion", i, c.progress)
		}
		if c.label == "" {
			t.Errorf("call %d: empty stage label", i)
		}
		if c.levelDB < -60.0 || c.levelDB > 0.0 {
			t.Errorf("call %d: level %f dB outside -60..0", i, c.levelDB)
		}
	}

	final := calls[len(calls)-1]
	if final.progress != 1.0 {
		t.Errorf("final progress = %f, want exactly 1.0", final.progress)
	}
}

func TestRenderCancellation(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 1.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Render(ctx, buf, DefaultOptions(), nil)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}

	var procErr *ProcessingError
	if !errors.As(err, &procErr) {
		t.Fatalf("error type = %T, want *ProcessingError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error %v does not wrap context.Canceled", err)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 0.5,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
	})

	t.Run("nil buffer", func(t *testing.T) {
		_, err := Render(context.Background(), nil, DefaultOptions(), nil)
		var procErr *ProcessingError
		if !errors.As(err, &procErr) {
			t.Fatalf("error = %v, want *ProcessingError", err)
		}
	})

	t.Run("invalid options", func(t *testing.T) {
		opts := DefaultOptions()
		opts.LowBandDB = 40.0

		_, err := Render(context.Background(), buf, opts, nil)
		var procErr *ProcessingError
		if !errors.As(err, &procErr) {
			t.Fatalf("error = %v, want *ProcessingError", err)
		}
	})
}

func TestRenderDeterministic(t *testing.T) {
	opts := TestAudioOptions{
		DurationSecs: 2.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
		NoiseLevel:   -40.0,
	}

	first, err := Render(context.Background(), generateTestBuffer(t, opts), allStagesEnabled(65), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	second, err := Render(context.Background(), generateTestBuffer(t, opts), allStagesEnabled(65), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for i := range first.Samples[0] {
		if first.Samples[0][i] != second.Samples[0][i] {
			t.Fatalf("sample %d differs between identical runs", i)
		}
	}
}
