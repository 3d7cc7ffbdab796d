package processor

// Stage chains are pure descriptions: each builder resolves its
// strength-mapped parameters into an ordered list of node specs and
// never touches sample data. A single realize step in the pipeline
// turns specs into running kernels. This keeps parameter mapping
// testable without rendering audio.

// NodeKind identifies a DSP primitive within a stage chain
type NodeKind string

// Node kinds understood by the realize step
const (
	NodeHighpass   NodeKind = "highpass"
	NodeLowpass    NodeKind = "lowpass"
	NodeNotch      NodeKind = "notch"
	NodePeaking    NodeKind = "peaking"
	NodeLowShelf   NodeKind = "lowshelf"
	NodeHighShelf  NodeKind = "highshelf"
	NodeGate       NodeKind = "gate"
	NodeCompressor NodeKind = "compressor"
	NodeLimiter    NodeKind = "limiter"
	NodeGain       NodeKind = "gain"
)

// NodeSpec is one resolved DSP primitive. Only the fields relevant
// to the Kind are meaningful; the rest stay zero.
type NodeSpec struct {
	Kind NodeKind

	// Filter parameters
	Freq   float64 // Hz, cutoff or centre frequency
	Q      float64 // Filter Q factor
	GainDB float64 // dB, shelving/peaking gain or plain gain amount

	// Dynamics parameters
	ThresholdDB float64 // dB, detection threshold
	Ratio       float64 // Compression/expansion ratio
	AttackMs    float64 // ms, envelope attack
	ReleaseMs   float64 // ms, envelope release
	KneeDB      float64 // dB, soft knee width
	FloorDB     float64 // dB, maximum gate attenuation (negative)
	CeilingDB   float64 // dB, limiter output ceiling
	MakeupDB    float64 // dB, post-compression makeup gain
}

// StageSpec is the immutable chain description one builder produces.
type StageSpec struct {
	ID    StageID
	Label string // Human-readable, used for progress reporting
	Nodes []NodeSpec
}

// stageBuilderFunc resolves one stage's node chain from the options.
type stageBuilderFunc func(*Options) StageSpec

// stageBuilders maps StageID to its builder. The registry centralises
// chain construction and keeps the pipeline loop data-driven.
var stageBuilders = map[StageID]stageBuilderFunc{
	StagePreNormalize:      (*Options).buildPreNormalizeStage,
	StageNoiseSuppress:     (*Options).buildNoiseSuppressStage,
	StageTransientSuppress: (*Options).buildTransientSuppressStage,
	StageVoiceIsolate:      (*Options).buildVoiceIsolateStage,
	StageSpectralRepair:    (*Options).buildSpectralRepairStage,
	StageDynamicEQ:         (*Options).buildDynamicEQStage,
	StageDeClickDeChirp:    (*Options).buildDeClickDeChirpStage,
	StageToneControl:       (*Options).buildToneControlStage,
	StageFinalNormalize:    (*Options).buildFinalNormalizeStage,
}

// Pre-normalisation constants - strength-independent input taming
const (
	preNormAttenuationDB   = -3.0
	preNormCompThresholdDB = -24.0
	preNormCompRatio       = 2.0
	preNormCompAttackMs    = 20.0
	preNormCompReleaseMs   = 250.0
	preNormCompKneeDB      = 6.0
)

// Final normalisation constants - compressor → limiter → output gain.
// The dynamics kernels only ever attenuate, but their envelope attack
// lets the first transient through at the chain's static gain, so the
// output gain must stay inside the pre-normalise attenuation:
// preNormAttenuationDB + finalOutputGainDB <= 0 keeps the
// normalisation-only path within full scale for any valid input.
// Only enhancement-stage boost ahead of this chain can overdrive the
// export, which the encoder's clip counters and the diagnostics run
// will report.
const (
	finalCompThresholdDB = -6.0
	finalCompRatio       = 1.5
	finalCompAttackMs    = 10.0
	finalCompReleaseMs   = 200.0
	finalCompKneeDB      = 4.0
	finalLimitCeilingDB  = -1.0
	finalLimitAttackMs   = 1.0
	finalLimitReleaseMs  = 50.0
	finalOutputGainDB    = 2.5
)

// Tone control centre frequencies (fixed)
const (
	toneLowShelfHz  = 250.0
	tonePeakingHz   = 1500.0
	tonePeakingQ    = 1.0
	toneHighShelfHz = 4000.0
	toneShelfQ      = 0.707
)

// buildPreNormalizeStage builds the fixed input-taming chain:
// attenuation followed by a gentle compressor. Strength-independent.
func (o *Options) buildPreNormalizeStage() StageSpec {
	return StageSpec{
		ID:    StagePreNormalize,
		Label: "Pre-normalising input",
		Nodes: []NodeSpec{
			{Kind: NodeGain, GainDB: preNormAttenuationDB},
			{
				Kind:        NodeCompressor,
				ThresholdDB: preNormCompThresholdDB,
				Ratio:       preNormCompRatio,
				AttackMs:    preNormCompAttackMs,
				ReleaseMs:   preNormCompReleaseMs,
				KneeDB:      preNormCompKneeDB,
			},
		},
	}
}

// buildNoiseSuppressStage builds the noise suppression chain:
// high-pass → gate → low-pass → mains hum notch pair.
// The notch pair sits at the configured mains fundamental and its
// first harmonic.
func (o *Options) buildNoiseSuppressStage() StageSpec {
	s := ClampStrength(float64(o.NoiseSuppression.Strength))
	hum := o.humFundamental()

	return StageSpec{
		ID:    StageNoiseSuppress,
		Label: "Suppressing noise",
		Nodes: []NodeSpec{
			{
				Kind: NodeHighpass,
				Freq: MapStrengthToFrequency(s, 60.0, 150.0),
				Q:    0.707,
			},
			{
				Kind:        NodeGate,
				ThresholdDB: MapStrengthToThreshold(s, -60.0, -30.0),
				Ratio:       MapStrengthToRatio(s, 1.5, 4.0),
				AttackMs:    5.0,
				ReleaseMs:   120.0,
				FloorDB:     MapStrengthToGain(s, -6.0, -24.0),
			},
			{
				Kind: NodeLowpass,
				Freq: MapStrengthToFrequency(s, 16000.0, 9000.0),
				Q:    0.707,
			},
			{
				Kind: NodeNotch,
				Freq: hum,
				Q:    MapStrengthToQ(s, 35.0, 15.0),
			},
			{
				Kind: NodeNotch,
				Freq: hum * 2,
				Q:    MapStrengthToQ(s, 35.0, 15.0),
			},
		},
	}
}

// buildTransientSuppressStage builds the transient suppression chain:
// a fast compressor to catch plosives and thumps, then a gentle
// high-shelf cut to soften residual snap.
func (o *Options) buildTransientSuppressStage() StageSpec {
	s := ClampStrength(float64(o.TransientSuppression.Strength))

	return StageSpec{
		ID:    StageTransientSuppress,
		Label: "Taming transients",
		Nodes: []NodeSpec{
			{
				Kind:        NodeCompressor,
				ThresholdDB: MapStrengthToThreshold(s, -40.0, -20.0),
				Ratio:       MapStrengthToRatio(s, 2.0, 8.0),
				AttackMs:    1.0,
				ReleaseMs:   100.0,
				KneeDB:      3.0,
			},
			{
				Kind:   NodeHighShelf,
				Freq:   6000.0,
				Q:      toneShelfQ,
				GainDB: MapStrengthToGain(s, -1.0, -6.0),
			},
		},
	}
}

// buildVoiceIsolateStage builds the voice isolation chain: band-pass
// framing around the speech range plus a presence boost at 2.5 kHz.
func (o *Options) buildVoiceIsolateStage() StageSpec {
	s := ClampStrength(float64(o.VoiceIsolation.Strength))

	return StageSpec{
		ID:    StageVoiceIsolate,
		Label: "Isolating voice",
		Nodes: []NodeSpec{
			{
				Kind: NodeHighpass,
				Freq: MapStrengthToFrequency(s, 80.0, 180.0),
				Q:    0.707,
			},
			{
				Kind: NodeLowpass,
				Freq: MapStrengthToFrequency(s, 12000.0, 6000.0),
				Q:    0.707,
			},
			{
				Kind:   NodePeaking,
				Freq:   2500.0,
				Q:      MapStrengthToQ(s, 0.8, 1.6),
				GainDB: MapStrengthToGain(s, 1.0, 5.0),
			},
		},
	}
}

// buildSpectralRepairStage builds the spectral repair chain: a
// sibilance cut in the de-ess band and a harshness cut around 3 kHz.
func (o *Options) buildSpectralRepairStage() StageSpec {
	s := ClampStrength(float64(o.SpectralRepair.Strength))

	return StageSpec{
		ID:    StageSpectralRepair,
		Label: "Repairing spectrum",
		Nodes: []NodeSpec{
			{
				Kind:   NodePeaking,
				Freq:   7500.0,
				Q:      2.0,
				GainDB: MapStrengthToGain(s, -2.0, -10.0),
			},
			{
				Kind:   NodePeaking,
				Freq:   3000.0,
				Q:      MapStrengthToQ(s, 1.0, 3.0),
				GainDB: MapStrengthToGain(s, -1.0, -6.0),
			},
		},
	}
}

// buildDynamicEQStage builds the band-balancing chain: mud cut,
// clarity boost, and a gentle levelling compressor.
func (o *Options) buildDynamicEQStage() StageSpec {
	s := ClampStrength(float64(o.DynamicEQ.Strength))

	return StageSpec{
		ID:    StageDynamicEQ,
		Label: "Balancing bands",
		Nodes: []NodeSpec{
			{
				Kind:   NodePeaking,
				Freq:   300.0,
				Q:      1.2,
				GainDB: MapStrengthToGain(s, -1.0, -6.0),
			},
			{
				Kind:   NodePeaking,
				Freq:   2000.0,
				Q:      1.0,
				GainDB: MapStrengthToGain(s, 0.5, 4.0),
			},
			{
				Kind:        NodeCompressor,
				ThresholdDB: MapStrengthToThreshold(s, -30.0, -18.0),
				Ratio:       MapStrengthToRatio(s, 1.5, 3.0),
				AttackMs:    15.0,
				ReleaseMs:   180.0,
				KneeDB:      6.0,
			},
		},
	}
}

// buildDeClickDeChirpStage builds the click/chirp repair chain: a
// very fast gate to duck impulse tails and a narrow notch in the
// chirp band.
func (o *Options) buildDeClickDeChirpStage() StageSpec {
	s := ClampStrength(float64(o.DeClickDeChirp.Strength))

	return StageSpec{
		ID:    StageDeClickDeChirp,
		Label: "Removing clicks",
		Nodes: []NodeSpec{
			{
				Kind:        NodeGate,
				ThresholdDB: MapStrengthToThreshold(s, -50.0, -25.0),
				Ratio:       MapStrengthToRatio(s, 2.0, 6.0),
				AttackMs:    0.5,
				ReleaseMs:   30.0,
				FloorDB:     MapStrengthToGain(s, -4.0, -18.0),
			},
			{
				Kind: NodeNotch,
				Freq: MapStrengthToFrequency(s, 12000.0, 9000.0),
				Q:    8.0,
			},
		},
	}
}

// buildToneControlStage builds the three fixed-frequency tone filters
// with the caller's band gains.
func (o *Options) buildToneControlStage() StageSpec {
	return StageSpec{
		ID:    StageToneControl,
		Label: "Applying tone controls",
		Nodes: []NodeSpec{
			{Kind: NodeLowShelf, Freq: toneLowShelfHz, Q: toneShelfQ, GainDB: o.LowBandDB},
			{Kind: NodePeaking, Freq: tonePeakingHz, Q: tonePeakingQ, GainDB: o.MidBandDB},
			{Kind: NodeHighShelf, Freq: toneHighShelfHz, Q: toneShelfQ, GainDB: o.HighBandDB},
		},
	}
}

// buildFinalNormalizeStage builds the fixed output chain:
// compressor → limiter → output gain. Strength-independent.
func (o *Options) buildFinalNormalizeStage() StageSpec {
	return StageSpec{
		ID:    StageFinalNormalize,
		Label: "Normalising output",
		Nodes: []NodeSpec{
			{
				Kind:        NodeCompressor,
				ThresholdDB: finalCompThresholdDB,
				Ratio:       finalCompRatio,
				AttackMs:    finalCompAttackMs,
				ReleaseMs:   finalCompReleaseMs,
				KneeDB:      finalCompKneeDB,
			},
			{
				Kind:      NodeLimiter,
				CeilingDB: finalLimitCeilingDB,
				AttackMs:  finalLimitAttackMs,
				ReleaseMs: finalLimitReleaseMs,
			},
			{Kind: NodeGain, GainDB: finalOutputGainDB},
		},
	}
}

// BuildChain resolves the full pipeline chain for the options: the
// fixed stage order with inactive enhancement stages skipped. In
// diagnostics mode only the normalisation stages are kept.
func (o *Options) BuildChain() []StageSpec {
	var chain []StageSpec
	for _, id := range PipelineOrder {
		if o.DiagnosticsMode && id != StagePreNormalize && id != StageFinalNormalize {
			continue
		}
		if !o.Stage(id).Active() {
			continue
		}
		if builder, ok := stageBuilders[id]; ok {
			chain = append(chain, builder(o))
		}
	}
	return chain
}
