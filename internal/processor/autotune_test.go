package processor

import (
	"context"
	"math"
	"testing"
)

// featureSet builds a plausible feature baseline that individual tests
// mutate to trip exactly one tuning rule.
func featureSet() AudioFeatures {
	return AudioFeatures{
		RMSLevel:         0.1,
		PeakLevel:        0.5,
		DynamicRange:     14.0,
		NoiseFloor:       0.001,
		SpectralCentroid: 3000.0,
		SpectralRolloff:  5000.0,
		ZeroCrossingRate: 0.05,
		LowEnergyRatio:   1.0 / 3.0,
		MidEnergyRatio:   1.0 / 3.0,
		HighEnergyRatio:  1.0 / 3.0,
		SibilanceEnergy:  0.02,
		TransientDensity: 0.1,
	}
}

func TestSuggestQuietBaseline(t *testing.T) {
	s := Suggest(featureSet())

	stages := map[string]StageConfig{
		"noise suppression":     s.Options.NoiseSuppression,
		"transient suppression": s.Options.TransientSuppression,
		"voice isolation":       s.Options.VoiceIsolation,
		"spectral repair":       s.Options.SpectralRepair,
		"dynamic EQ":            s.Options.DynamicEQ,
		"de-click":              s.Options.DeClickDeChirp,
	}
	for name, cfg := range stages {
		if cfg.Enabled {
			t.Errorf("%s enabled on a well-behaved signal", name)
		}
	}
	if s.Options.LowBandDB != 0 || s.Options.MidBandDB != 0 || s.Options.HighBandDB != 0 {
		t.Errorf("tone bands not flat: %g / %g / %g",
			s.Options.LowBandDB, s.Options.MidBandDB, s.Options.HighBandDB)
	}
}

func TestSuggestStageRules(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*AudioFeatures)
		stage        func(Options) StageConfig
		wantStrength int
	}{
		{
			name:         "audible noise floor engages noise suppression",
			mutate:       func(f *AudioFeatures) { f.NoiseFloor = 0.05 },
			stage:        func(o Options) StageConfig { return o.NoiseSuppression },
			wantStrength: 50,
		},
		{
			name:         "noisy zero crossings engage noise suppression",
			mutate:       func(f *AudioFeatures) { f.ZeroCrossingRate = 0.16 },
			stage:        func(o Options) StageConfig { return o.NoiseSuppression },
			wantStrength: 30, // Floor near zero, strength bottoms out at the rule minimum
		},
		{
			name:         "transient density engages transient suppression",
			mutate:       func(f *AudioFeatures) { f.TransientDensity = 0.5 },
			stage:        func(o Options) StageConfig { return o.TransientSuppression },
			wantStrength: 75,
		},
		{
			name: "mid-heavy dark signal engages voice isolation",
			mutate: func(f *AudioFeatures) {
				f.MidEnergyRatio = 0.5
				f.LowEnergyRatio = 0.3
				f.HighEnergyRatio = 0.2
				f.SpectralCentroid = 2000.0
			},
			stage:        func(o Options) StageConfig { return o.VoiceIsolation },
			wantStrength: 60,
		},
		{
			name:         "sibilance engages spectral repair",
			mutate:       func(f *AudioFeatures) { f.SibilanceEnergy = 0.1 },
			stage:        func(o Options) StageConfig { return o.SpectralRepair },
			wantStrength: 50,
		},
		{
			name: "band imbalance engages dynamic EQ",
			mutate: func(f *AudioFeatures) {
				f.LowEnergyRatio = 0.6
				f.MidEnergyRatio = 0.3
				f.HighEnergyRatio = 0.1
			},
			stage:        func(o Options) StageConfig { return o.DynamicEQ },
			wantStrength: 53,
		},
		{
			name:         "high zero crossing rate engages de-click",
			mutate:       func(f *AudioFeatures) { f.ZeroCrossingRate = 0.25 },
			stage:        func(o Options) StageConfig { return o.DeClickDeChirp },
			wantStrength: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := featureSet()
			tt.mutate(&f)

			cfg := tt.stage(Suggest(f).Options)
			if !cfg.Enabled {
				t.Fatal("stage not enabled")
			}
			if cfg.Strength != tt.wantStrength {
				t.Errorf("strength = %d, want %d", cfg.Strength, tt.wantStrength)
			}
		})
	}
}

func TestSuggestToneBands(t *testing.T) {
	t.Run("low-heavy signal cuts the low shelf", func(t *testing.T) {
		f := featureSet()
		f.LowEnergyRatio = 0.55
		f.MidEnergyRatio = 0.35
		f.HighEnergyRatio = 0.1

		s := Suggest(f)
		if math.Abs(s.Options.LowBandDB-(-3.0)) > 0.001 {
			t.Errorf("LowBandDB = %g, want -3.0", s.Options.LowBandDB)
		}
	})

	t.Run("harsh sibilance cuts the high shelf", func(t *testing.T) {
		f := featureSet()
		f.SibilanceEnergy = 0.16

		s := Suggest(f)
		if math.Abs(s.Options.HighBandDB-(-3.0)) > 0.001 {
			t.Errorf("HighBandDB = %g, want -3.0", s.Options.HighBandDB)
		}
	})

	t.Run("thin low end boosts the low shelf", func(t *testing.T) {
		f := featureSet()
		f.LowEnergyRatio = 0.1
		f.MidEnergyRatio = 0.6
		f.HighEnergyRatio = 0.3

		s := Suggest(f)
		if s.Options.LowBandDB <= 0 {
			t.Errorf("LowBandDB = %g, want a boost", s.Options.LowBandDB)
		}
		if s.Options.LowBandDB > toneLowBoostMaxDB {
			t.Errorf("LowBandDB = %g exceeds cap %g", s.Options.LowBandDB, toneLowBoostMaxDB)
		}
	})
}

func TestSuggestionConfidence(t *testing.T) {
	full := featureSet()
	if got := suggestionConfidence(full); got != 1.0 {
		t.Errorf("confidence = %g for healthy features, want 1.0", got)
	}

	if got := suggestionConfidence(AudioFeatures{}); got != 0.0 {
		t.Errorf("confidence = %g for empty features, want 0.0", got)
	}

	// Signal present but flat dynamics and broken ratios: only the
	// RMS check passes.
	partial := AudioFeatures{RMSLevel: 0.1, DynamicRange: 2.0}
	if got := suggestionConfidence(partial); math.Abs(got-0.3) > 0.001 {
		t.Errorf("confidence = %g, want 0.3", got)
	}
}

func TestApplyIntensity(t *testing.T) {
	opts := DefaultOptions()
	opts.NoiseSuppression = StageConfig{Enabled: true, Strength: 80}
	opts.DynamicEQ = StageConfig{Enabled: true, Strength: 61}
	opts.LowBandDB = -6.0
	opts.HighBandDB = 4.0

	t.Run("half intensity halves strengths and bands", func(t *testing.T) {
		got := ApplyIntensity(opts, 0.5)
		if !got.NoiseSuppression.Enabled || got.NoiseSuppression.Strength != 40 {
			t.Errorf("noise suppression = %+v, want enabled at 40", got.NoiseSuppression)
		}
		if got.DynamicEQ.Strength != 31 { // 30.5 rounds up
			t.Errorf("dynamic EQ strength = %d, want 31", got.DynamicEQ.Strength)
		}
		if got.LowBandDB != -3.0 || got.HighBandDB != 2.0 {
			t.Errorf("bands = %g / %g, want -3.0 / 2.0", got.LowBandDB, got.HighBandDB)
		}
	})

	t.Run("zero intensity disables everything", func(t *testing.T) {
		got := ApplyIntensity(opts, 0)
		if got.NoiseSuppression.Enabled || got.DynamicEQ.Enabled {
			t.Error("stages still enabled at zero intensity")
		}
		if got.NoiseSuppression.Strength != 0 || got.LowBandDB != 0 {
			t.Error("strengths and bands not zeroed at zero intensity")
		}
	})

	t.Run("intensity below the gate disables stages", func(t *testing.T) {
		got := ApplyIntensity(opts, 0.05)
		if got.NoiseSuppression.Enabled {
			t.Error("stage enabled below the intensity gate")
		}
	})
}

func TestAutoTuneDeterministic(t *testing.T) {
	opts := TestAudioOptions{
		DurationSecs: 3.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
		NoiseLevel:   -35.0,
	}

	first := AutoTune(context.Background(), generateTestBuffer(t, opts), 0.8)
	second := AutoTune(context.Background(), generateTestBuffer(t, opts), 0.8)

	if first != second {
		t.Errorf("auto-tune is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if first.AppliedIntensity != 0.8 {
		t.Errorf("AppliedIntensity = %g, want 0.8", first.AppliedIntensity)
	}
}

func TestAutoTuneFallsBackToSafeDefaults(t *testing.T) {
	result := AutoTune(context.Background(), nil, 1.0)

	if result.Suggestions.Confidence != 0 {
		t.Errorf("confidence = %g on analysis failure, want 0", result.Suggestions.Confidence)
	}
	stages := []StageConfig{
		result.DSPOptions.NoiseSuppression,
		result.DSPOptions.TransientSuppression,
		result.DSPOptions.VoiceIsolation,
		result.DSPOptions.SpectralRepair,
		result.DSPOptions.DynamicEQ,
		result.DSPOptions.DeClickDeChirp,
	}
	for i, cfg := range stages {
		if !cfg.Enabled || cfg.Strength != safeDefaultStrength {
			t.Errorf("stage %d = %+v, want enabled at %d", i, cfg, safeDefaultStrength)
		}
	}
}

func TestAutoTuneClampsIntensity(t *testing.T) {
	buf := generateTestBuffer(t, TestAudioOptions{
		DurationSecs: 1.0,
		ToneFreq:     440.0,
		ToneLevel:    -18.0,
	})

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"above range", 2.5, 1.0},
		{"below range", -1.0, 0.0},
		{"NaN defaults to full", math.NaN(), 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AutoTune(context.Background(), buf, tt.in)
			if got.AppliedIntensity != tt.want {
				t.Errorf("AppliedIntensity = %g, want %g", got.AppliedIntensity, tt.want)
			}
		})
	}
}
