// Package processor implements audio analysis, strength-mapped stage
// chains, the offline rendering pipeline, and the triple-check
// diagnostics run.
package processor

import (
	"fmt"
	"math"
)

// StageID identifies a stage in the processing pipeline
type StageID string

// Stage identifiers for the rendering pipeline
const (
	// Normalisation stages - always present, strength-independent
	StagePreNormalize   StageID = "pre_normalize"   // Input attenuation + gentle compressor
	StageFinalNormalize StageID = "final_normalize" // Compressor → limiter → output gain

	// Enhancement stages - gated on per-stage enable and strength
	StageNoiseSuppress     StageID = "noise_suppress"     // HP → gate → LP → hum notch pair
	StageTransientSuppress StageID = "transient_suppress" // Fast compressor + HF shelf
	StageVoiceIsolate      StageID = "voice_isolate"      // Band-pass focus on speech range
	StageSpectralRepair    StageID = "spectral_repair"    // De-ess notch + harshness peaking cuts
	StageDynamicEQ         StageID = "dynamic_eq"         // Band-balancing peaking filters + compressor
	StageDeClickDeChirp    StageID = "declick_dechirp"    // Fast gate + HF chirp notch

	// Tone control - three fixed-frequency shelving/peaking filters
	StageToneControl StageID = "tone_control"
)

// PipelineOrder defines the fixed rendering order.
// Order rationale:
// - PreNormalize first: tames input level so downstream detectors see
//   a predictable range
// - NoiseSuppress before dynamics: gating works best on the raw floor
// - TransientSuppress and DeClickDeChirp before tonal shaping so the
//   tone filters do not exaggerate repaired clicks
// - ToneControl after all repair stages
// - FinalNormalize last: compressor → limiter → gain sets the output
//   ceiling and MUST see the final signal
var PipelineOrder = []StageID{
	StagePreNormalize,
	StageNoiseSuppress,
	StageTransientSuppress,
	StageVoiceIsolate,
	StageSpectralRepair,
	StageDynamicEQ,
	StageDeClickDeChirp,
	StageToneControl,
	StageFinalNormalize,
}

// StageConfig holds the per-category enable flag and strength knob.
// Strength is meaningless when Enabled is false; the pipeline also
// treats strength 0 as a no-op even when Enabled is true.
type StageConfig struct {
	Enabled  bool `json:"enabled"`
	Strength int  `json:"strength"` // 0-100
}

// Active reports whether the stage should execute.
func (c StageConfig) Active() bool {
	return c.Enabled && c.Strength > 0
}

// Tone band limits in dB
const (
	ToneBandMinDB = -12.0
	ToneBandMaxDB = 12.0

	// DefaultHumFundamental is the mains hum base frequency assumed
	// when no regional detection has run. The notch pair sits at the
	// fundamental and its first harmonic.
	DefaultHumFundamental = 60.0
)

// Options is the single configuration value threaded through a
// pipeline run. It is validated once at the entry point and passed
// by value; builders never default-fill missing fields.
type Options struct {
	// Enhancement stages, one StageConfig per DSP category
	NoiseSuppression     StageConfig `json:"noiseSuppression"`
	TransientSuppression StageConfig `json:"transientSuppression"`
	VoiceIsolation       StageConfig `json:"voiceIsolation"`
	SpectralRepair       StageConfig `json:"spectralRepair"`
	DynamicEQ            StageConfig `json:"dynamicEQ"`
	DeClickDeChirp       StageConfig `json:"deClickDeChirp"`

	// Tone band adjustments in dB, each -12..+12
	LowBandDB  float64 `json:"lowBand"`  // 250 Hz low shelf
	MidBandDB  float64 `json:"midBand"`  // 1500 Hz peaking
	HighBandDB float64 `json:"highBand"` // 4000 Hz high shelf

	// DiagnosticsMode restricts the run to the normalisation stages
	// regardless of the fields above. Used to produce the
	// early-pipeline diagnostic checkpoint.
	DiagnosticsMode bool `json:"diagnosticsMode"`

	// HumFundamental is the mains frequency for the noise-suppression
	// notch pair (50 or 60 Hz). Zero means DefaultHumFundamental.
	HumFundamental float64 `json:"humFundamental,omitempty"`
}

// DefaultOptions returns a neutral configuration: every enhancement
// stage disabled at strength 50, tone bands flat.
func DefaultOptions() Options {
	neutral := StageConfig{Enabled: false, Strength: 50}
	return Options{
		NoiseSuppression:     neutral,
		TransientSuppression: neutral,
		VoiceIsolation:       neutral,
		SpectralRepair:       neutral,
		DynamicEQ:            neutral,
		DeClickDeChirp:       neutral,
		LowBandDB:            0,
		MidBandDB:            0,
		HighBandDB:           0,
		HumFundamental:       DefaultHumFundamental,
	}
}

// Stage returns the StageConfig for an enhancement stage ID.
// Normalisation and tone-control stages have no StageConfig and
// return an always-active placeholder.
func (o *Options) Stage(id StageID) StageConfig {
	switch id {
	case StageNoiseSuppress:
		return o.NoiseSuppression
	case StageTransientSuppress:
		return o.TransientSuppression
	case StageVoiceIsolate:
		return o.VoiceIsolation
	case StageSpectralRepair:
		return o.SpectralRepair
	case StageDynamicEQ:
		return o.DynamicEQ
	case StageDeClickDeChirp:
		return o.DeClickDeChirp
	default:
		return StageConfig{Enabled: true, Strength: 100}
	}
}

// humFundamental resolves the configured mains fundamental.
func (o *Options) humFundamental() float64 {
	if o.HumFundamental == 50.0 || o.HumFundamental == 60.0 {
		return o.HumFundamental
	}
	return DefaultHumFundamental
}

// Validate rejects out-of-range strengths and band gains up front,
// so invalid values never reach the stage builders.
func (o *Options) Validate() error {
	stages := map[StageID]StageConfig{
		StageNoiseSuppress:     o.NoiseSuppression,
		StageTransientSuppress: o.TransientSuppression,
		StageVoiceIsolate:      o.VoiceIsolation,
		StageSpectralRepair:    o.SpectralRepair,
		StageDynamicEQ:         o.DynamicEQ,
		StageDeClickDeChirp:    o.DeClickDeChirp,
	}
	for id, cfg := range stages {
		if cfg.Strength < 0 || cfg.Strength > 100 {
			return fmt.Errorf("stage %s: strength %d out of range 0-100", id, cfg.Strength)
		}
	}

	bands := map[string]float64{
		"low":  o.LowBandDB,
		"mid":  o.MidBandDB,
		"high": o.HighBandDB,
	}
	for name, db := range bands {
		if math.IsNaN(db) || db < ToneBandMinDB || db > ToneBandMaxDB {
			return fmt.Errorf("%s band: gain %.1f dB out of range %.0f..%.0f", name, db, ToneBandMinDB, ToneBandMaxDB)
		}
	}

	if o.HumFundamental != 0 && o.HumFundamental != 50.0 && o.HumFundamental != 60.0 {
		return fmt.Errorf("hum fundamental %.1f Hz: must be 50 or 60", o.HumFundamental)
	}

	return nil
}
