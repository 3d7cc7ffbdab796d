package processor

import (
	"math"
	"testing"
)

func TestAnalyzeSilence(t *testing.T) {
	buf := silentBuffer(t, 2.0, 44100)

	f, err := AnalyzeBuffer(buf)
	if err != nil {
		t.Fatalf("AnalyzeBuffer failed on silence: %v", err)
	}

	// Every field must be well-defined on silence: zero, never NaN.
	fields := map[string]float64{
		"RMSLevel":         f.RMSLevel,
		"PeakLevel":        f.PeakLevel,
		"DynamicRange":     f.DynamicRange,
		"NoiseFloor":       f.NoiseFloor,
		"SpectralCentroid": f.SpectralCentroid,
		"SpectralRolloff":  f.SpectralRolloff,
		"ZeroCrossingRate": f.ZeroCrossingRate,
		"LowEnergyRatio":   f.LowEnergyRatio,
		"MidEnergyRatio":   f.MidEnergyRatio,
		"HighEnergyRatio":  f.HighEnergyRatio,
		"SibilanceEnergy":  f.SibilanceEnergy,
		"TransientDensity": f.TransientDensity,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %v on silent input, want finite", name, v)
		}
		if v != 0 {
			t.Errorf("%s = %v on silent input, want 0", name, v)
		}
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	if _, err := Analyze(nil, 44100); err == nil {
		t.Error("Analyze(nil) should fail")
	}
	if _, err := Analyze([]float64{0.5}, 0); err == nil {
		t.Error("Analyze with zero sample rate should fail")
	}
	if _, err := AnalyzeBuffer(nil); err == nil {
		t.Error("AnalyzeBuffer(nil) should fail")
	}
}

func TestAnalyzeSineTone(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 3.0,
		ToneFreq:     440.0,
		ToneLevel:    -12.0,
	})

	f, err := AnalyzeBuffer(buf)
	if err != nil {
		t.Fatalf("AnalyzeBuffer failed: %v", err)
	}

	wantAmp := math.Pow(10.0, -12.0/20.0)
	wantRMS := wantAmp / math.Sqrt2

	if math.Abs(f.PeakLevel-wantAmp) > 0.01 {
		t.Errorf("PeakLevel = %.4f, want ~%.4f", f.PeakLevel, wantAmp)
	}
	if math.Abs(f.RMSLevel-wantRMS) > 0.01 {
		t.Errorf("RMSLevel = %.4f, want ~%.4f", f.RMSLevel, wantRMS)
	}
	// A sine's crest factor is 3 dB.
	if f.DynamicRange < 2.0 || f.DynamicRange > 4.0 {
		t.Errorf("DynamicRange = %.2f dB, want ~3 dB for a sine", f.DynamicRange)
	}
	// Spectral leakage smears the centroid around the tone frequency.
	if f.SpectralCentroid < 350.0 || f.SpectralCentroid > 600.0 {
		t.Errorf("SpectralCentroid = %.1f Hz, want near 440 Hz", f.SpectralCentroid)
	}
	// A 440 Hz sine crosses zero 880 times a second.
	wantZCR := 880.0 / 44100.0
	if math.Abs(f.ZeroCrossingRate-wantZCR) > 0.005 {
		t.Errorf("ZeroCrossingRate = %.5f, want ~%.5f", f.ZeroCrossingRate, wantZCR)
	}
	// 440 Hz lies in the mid band; nearly all energy should be there.
	if f.MidEnergyRatio < 0.8 {
		t.Errorf("MidEnergyRatio = %.3f, want > 0.8 for a 440 Hz tone", f.MidEnergyRatio)
	}
	if f.SibilanceEnergy > 0.05 {
		t.Errorf("SibilanceEnergy = %.3f, want near 0 for a 440 Hz tone", f.SibilanceEnergy)
	}

	ratioSum := f.LowEnergyRatio + f.MidEnergyRatio + f.HighEnergyRatio
	if math.Abs(ratioSum-1.0) > 0.001 {
		t.Errorf("band ratios sum to %.4f, want 1.0", ratioSum)
	}
}

func TestNoiseFloorWithSilenceGap(t *testing.T) {
	opts := TestAudioOptions{
		DurationSecs: 5.0,
		ToneFreq:     440.0,
		ToneLevel:    -23.0,
	}
	opts.SilenceGap.Start = 2.0
	opts.SilenceGap.Duration = 1.5

	withGap, err := AnalyzeBuffer(generateTestBuffer(t, opts))
	if err != nil {
		t.Fatalf("AnalyzeBuffer failed: %v", err)
	}

	opts.SilenceGap.Duration = 0
	noGap, err := AnalyzeBuffer(generateTestBuffer(t, opts))
	if err != nil {
		t.Fatalf("AnalyzeBuffer failed: %v", err)
	}

	// The 10th percentile window should land inside the 1.5 s gap.
	if withGap.NoiseFloor > 0.001 {
		t.Errorf("NoiseFloor = %.5f with silence gap, want ~0", withGap.NoiseFloor)
	}
	// Without a gap every window carries the tone.
	toneRMS := math.Pow(10.0, -23.0/20.0) / math.Sqrt2
	if noGap.NoiseFloor < toneRMS*0.5 {
		t.Errorf("NoiseFloor = %.5f without gap, want near tone RMS %.5f", noGap.NoiseFloor, toneRMS)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	opts := TestAudioOptions{
		DurationSecs: 3.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
		NoiseLevel:   -40.0,
	}

	first, err := AnalyzeBuffer(generateTestBuffer(t, opts))
	if err != nil {
		t.Fatalf("AnalyzeBuffer failed: %v", err)
	}
	second, err := AnalyzeBuffer(generateTestBuffer(t, opts))
	if err != nil {
		t.Fatalf("AnalyzeBuffer failed: %v", err)
	}

	if first != second {
		t.Errorf("analysis is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
