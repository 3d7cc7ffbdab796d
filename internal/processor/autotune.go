package processor

import (
	"context"
	"math"

	"github.com/soundmend/soundmend/internal/audio"
)

// =============================================================================
// Auto-Tune Thresholds
// =============================================================================
// Deterministic thresholds on AudioFeatures. Same file and intensity
// always produce bit-identical suggestions - there is no randomness
// anywhere in this path.

const (
	// Noise suppression: engage on an audible floor or a noisy
	// zero-crossing profile.
	noiseFloorEngage    = 0.02
	noiseZCREngage      = 0.15
	noiseFloorFullScale = 0.1 // Floor at which strength saturates
	noiseStrengthMin    = 30.0
	noiseStrengthMax    = 100.0

	// Transient suppression
	transientDensityEngage = 0.3
	transientStrengthScale = 150.0
	transientStrengthMin   = 40.0
	transientStrengthMax   = 100.0

	// Voice isolation: mid-heavy energy with a dark-ish centroid
	// reads as close-mic voice.
	voiceMidRatioEngage  = 0.4
	voiceCentroidCeiling = 2500.0
	voiceStrengthScale   = 120.0
	voiceStrengthMin     = 50.0
	voiceStrengthMax     = 100.0

	// Spectral repair: harsh sibilance or an unusually bright rolloff.
	repairSibilanceEngage  = 0.08
	repairRolloffEngage    = 8000.0
	repairSibilanceFull    = 0.2
	repairStrengthMin      = 40.0
	repairStrengthMax      = 100.0

	// Dynamic EQ: any band ratio drifting from the even 1/3 split.
	dynEQDeviationEngage = 0.15
	dynEQStrengthScale   = 200.0
	dynEQStrengthMin     = 30.0
	dynEQStrengthMax     = 100.0

	// De-click/de-chirp
	declickZCREngage     = 0.2
	declickDensityEngage = 0.5
	declickStrengthScale = 300.0
	declickStrengthMin   = 35.0
	declickStrengthMax   = 100.0

	// Tone band rules
	toneLowHeavyRatio   = 0.45 // Above this, cut low shelf
	toneLowThinRatio    = 0.25 // Below this, boost low shelf
	toneLowCutMaxDB     = -6.0
	toneLowBoostMaxDB   = 4.0
	toneMidThinRatio    = 0.4 // Below this (voice-like content), boost mids
	toneMidHeavyRatio   = 0.5 // Above this, cut mids
	toneMidBoostMaxDB   = 5.0
	toneMidCutMaxDB     = -4.0
	toneHighSibilance   = 0.12 // Above this, cut high shelf
	toneHighCutMaxDB    = -6.0
	toneDarkCentroid    = 1500.0
	toneHighThinRatio   = 0.2
	toneHighBoostMaxDB  = 4.0

	// Confidence checks: weighted 0.3 / 0.3 / 0.4
	confidenceSignalRMS    = 0.001 // Signal present
	confidenceDynamicRange = 6.0   // dB, usable dynamics
	confidenceRatioSumTol  = 0.01  // Band ratios sum to ~1

	// IntensityEnableGate: below this applied intensity, every
	// suggested stage comes back disabled.
	IntensityEnableGate = 0.1

	// Safe defaults used when analysis fails
	safeDefaultStrength = 50
)

// SuggestedSettings is the unscaled auto-tune output: a full options
// set derived from features plus a confidence score in [0, 1].
type SuggestedSettings struct {
	Options    Options `json:"options"`
	Confidence float64 `json:"confidence"`
}

// AutoTuneResult carries everything one auto-tune invocation derived.
// DSPOptions is the intensity-scaled configuration ready for the
// pipeline; Suggestions holds the unscaled feature-driven settings.
type AutoTuneResult struct {
	DSPOptions       Options           `json:"dspOptions"`
	Features         AudioFeatures     `json:"features"`
	Suggestions      SuggestedSettings `json:"suggestions"`
	AppliedIntensity float64           `json:"appliedIntensity"`
}

// AutoTune analyses a buffer and derives suggested stage settings,
// scaled by the caller's intensity in [0, 1]. Analysis failure never
// propagates: suggestions feed a best-effort UI, so the fallback is a
// fixed safe-default configuration with confidence 0.
func AutoTune(ctx context.Context, buf *audio.Buffer, intensity float64) AutoTuneResult {
	intensity = clamp(sanitizeFloat(intensity, 1.0), 0, 1)

	if err := ctx.Err(); err != nil {
		return safeDefaultResult(intensity)
	}

	features, err := AnalyzeBuffer(buf)
	if err != nil {
		return safeDefaultResult(intensity)
	}

	suggestions := Suggest(features)
	return AutoTuneResult{
		DSPOptions:       ApplyIntensity(suggestions.Options, intensity),
		Features:         features,
		Suggestions:      suggestions,
		AppliedIntensity: intensity,
	}
}

// AutoTuneFile decodes a WAV file and auto-tunes it. Decode failures
// fall back to safe defaults like any other analysis failure.
func AutoTuneFile(ctx context.Context, path string, intensity float64) AutoTuneResult {
	intensity = clamp(sanitizeFloat(intensity, 1.0), 0, 1)

	buf, err := audio.DecodeWAVFile(path)
	if err != nil {
		return safeDefaultResult(intensity)
	}
	return AutoTune(ctx, buf, intensity)
}

// safeDefaultResult is the graceful-degradation path: all six stages
// enabled at 50% strength, tone bands flat, confidence 0. Intensity
// scaling and gating still apply so intensity 0 disables everything.
func safeDefaultResult(intensity float64) AutoTuneResult {
	opts := DefaultOptions()
	def := StageConfig{Enabled: true, Strength: safeDefaultStrength}
	opts.NoiseSuppression = def
	opts.TransientSuppression = def
	opts.VoiceIsolation = def
	opts.SpectralRepair = def
	opts.DynamicEQ = def
	opts.DeClickDeChirp = def

	suggestions := SuggestedSettings{Options: opts, Confidence: 0}
	return AutoTuneResult{
		DSPOptions:       ApplyIntensity(opts, intensity),
		Features:         AudioFeatures{},
		Suggestions:      suggestions,
		AppliedIntensity: intensity,
	}
}

// Suggest derives unscaled settings from features using the fixed
// threshold rules above.
func Suggest(f AudioFeatures) SuggestedSettings {
	opts := DefaultOptions()

	opts.NoiseSuppression = tuneNoiseSuppression(f)
	opts.TransientSuppression = tuneTransientSuppression(f)
	opts.VoiceIsolation = tuneVoiceIsolation(f)
	opts.SpectralRepair = tuneSpectralRepair(f)
	opts.DynamicEQ = tuneDynamicEQ(f)
	opts.DeClickDeChirp = tuneDeClickDeChirp(f)
	opts.LowBandDB, opts.MidBandDB, opts.HighBandDB = tuneToneBands(f)

	return SuggestedSettings{
		Options:    opts,
		Confidence: suggestionConfidence(f),
	}
}

func tuneNoiseSuppression(f AudioFeatures) StageConfig {
	return StageConfig{
		Enabled:  f.NoiseFloor > noiseFloorEngage || f.ZeroCrossingRate > noiseZCREngage,
		Strength: scaledStrength(f.NoiseFloor/noiseFloorFullScale*100, noiseStrengthMin, noiseStrengthMax),
	}
}

func tuneTransientSuppression(f AudioFeatures) StageConfig {
	return StageConfig{
		Enabled:  f.TransientDensity > transientDensityEngage,
		Strength: scaledStrength(f.TransientDensity*transientStrengthScale, transientStrengthMin, transientStrengthMax),
	}
}

func tuneVoiceIsolation(f AudioFeatures) StageConfig {
	return StageConfig{
		Enabled:  f.MidEnergyRatio > voiceMidRatioEngage && f.SpectralCentroid < voiceCentroidCeiling,
		Strength: scaledStrength(f.MidEnergyRatio*voiceStrengthScale, voiceStrengthMin, voiceStrengthMax),
	}
}

func tuneSpectralRepair(f AudioFeatures) StageConfig {
	return StageConfig{
		Enabled:  f.SibilanceEnergy > repairSibilanceEngage || f.SpectralRolloff > repairRolloffEngage,
		Strength: scaledStrength(f.SibilanceEnergy/repairSibilanceFull*100, repairStrengthMin, repairStrengthMax),
	}
}

func tuneDynamicEQ(f AudioFeatures) StageConfig {
	dev := bandDeviation(f)
	return StageConfig{
		Enabled:  dev > dynEQDeviationEngage,
		Strength: scaledStrength(dev*dynEQStrengthScale, dynEQStrengthMin, dynEQStrengthMax),
	}
}

func tuneDeClickDeChirp(f AudioFeatures) StageConfig {
	return StageConfig{
		Enabled:  f.ZeroCrossingRate > declickZCREngage || f.TransientDensity > declickDensityEngage,
		Strength: scaledStrength(f.ZeroCrossingRate*declickStrengthScale, declickStrengthMin, declickStrengthMax),
	}
}

// bandDeviation is the largest drift of any band ratio from the even
// 1/3 split.
func bandDeviation(f AudioFeatures) float64 {
	const even = 1.0 / 3.0
	dev := math.Abs(f.LowEnergyRatio - even)
	if d := math.Abs(f.MidEnergyRatio - even); d > dev {
		dev = d
	}
	if d := math.Abs(f.HighEnergyRatio - even); d > dev {
		dev = d
	}
	return dev
}

// tuneToneBands derives the three band adjustments. Each rule scales
// proportionally with how far the trigger feature sits past its
// threshold, capped at the rule's maximum.
func tuneToneBands(f AudioFeatures) (low, mid, high float64) {
	switch {
	case f.LowEnergyRatio > toneLowHeavyRatio:
		low = toneLowCutMaxDB * rampUnit(f.LowEnergyRatio-toneLowHeavyRatio, 0.2)
	case f.LowEnergyRatio < toneLowThinRatio && f.LowEnergyRatio > 0:
		low = toneLowBoostMaxDB * rampUnit(toneLowThinRatio-f.LowEnergyRatio, 0.15)
	}

	switch {
	case f.MidEnergyRatio > toneMidHeavyRatio:
		mid = toneMidCutMaxDB * rampUnit(f.MidEnergyRatio-toneMidHeavyRatio, 0.2)
	case f.SpectralCentroid > 0 && f.SpectralCentroid < voiceCentroidCeiling && f.MidEnergyRatio < toneMidThinRatio && f.MidEnergyRatio > 0:
		// Voice-like content lacking mid energy: lift for clarity
		mid = toneMidBoostMaxDB * rampUnit(toneMidThinRatio-f.MidEnergyRatio, 0.2)
	}

	switch {
	case f.SibilanceEnergy > toneHighSibilance:
		high = toneHighCutMaxDB * rampUnit(f.SibilanceEnergy-toneHighSibilance, 0.08)
	case f.SpectralCentroid > 0 && f.SpectralCentroid < toneDarkCentroid && f.HighEnergyRatio < toneHighThinRatio:
		high = toneHighBoostMaxDB * rampUnit(toneHighThinRatio-f.HighEnergyRatio, 0.1)
	}

	return low, mid, high
}

// suggestionConfidence sums three independent weighted checks:
// signal present (0.3), usable dynamic range (0.3), and band ratios
// summing to ~1 (0.4). Capped at 1.
func suggestionConfidence(f AudioFeatures) float64 {
	confidence := 0.0
	if f.RMSLevel > confidenceSignalRMS {
		confidence += 0.3
	}
	if f.DynamicRange > confidenceDynamicRange {
		confidence += 0.3
	}
	ratioSum := f.LowEnergyRatio + f.MidEnergyRatio + f.HighEnergyRatio
	if math.Abs(ratioSum-1.0) < confidenceRatioSumTol {
		confidence += 0.4
	}
	return clamp(confidence, 0, 1)
}

// ApplyIntensity scales a suggestion set by the applied intensity:
// strengths and band adjustments multiply, and enablement is gated so
// a near-zero intensity disables everything.
func ApplyIntensity(opts Options, intensity float64) Options {
	gate := intensity > IntensityEnableGate

	scaleStage := func(cfg StageConfig) StageConfig {
		return StageConfig{
			Enabled:  cfg.Enabled && gate,
			Strength: int(clamp(math.Round(float64(cfg.Strength)*intensity), 0, 100)),
		}
	}

	opts.NoiseSuppression = scaleStage(opts.NoiseSuppression)
	opts.TransientSuppression = scaleStage(opts.TransientSuppression)
	opts.VoiceIsolation = scaleStage(opts.VoiceIsolation)
	opts.SpectralRepair = scaleStage(opts.SpectralRepair)
	opts.DynamicEQ = scaleStage(opts.DynamicEQ)
	opts.DeClickDeChirp = scaleStage(opts.DeClickDeChirp)

	opts.LowBandDB = clamp(opts.LowBandDB*intensity, ToneBandMinDB, ToneBandMaxDB)
	opts.MidBandDB = clamp(opts.MidBandDB*intensity, ToneBandMinDB, ToneBandMaxDB)
	opts.HighBandDB = clamp(opts.HighBandDB*intensity, ToneBandMinDB, ToneBandMaxDB)

	return opts
}

// scaledStrength rounds a raw strength value and clamps it into the
// rule's band.
func scaledStrength(raw, min, max float64) int {
	return int(clamp(math.Round(sanitizeFloat(raw, min)), min, max))
}

// rampUnit maps an overshoot past a threshold onto [0, 1] with the
// given saturation span.
func rampUnit(overshoot, span float64) float64 {
	if span <= 0 {
		return 1
	}
	return clamp(overshoot/span, 0, 1)
}
