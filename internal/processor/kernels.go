package processor

import (
	"fmt"
	"math"
)

// The realize step: node specs become running kernels. Each kernel
// processes one channel in place and carries its own state, so no
// two pipeline runs or channels share anything mutable.

// kernel processes a channel of samples in place.
type kernel interface {
	process(samples []float64)
}

// realizeNode validates a spec against the sample rate and returns
// its kernel. Invalid parameters are construction errors, reported
// before any sample is touched.
func realizeNode(spec NodeSpec, sampleRate int) (kernel, error) {
	nyquist := float64(sampleRate) / 2.0

	switch spec.Kind {
	case NodeHighpass, NodeLowpass, NodeNotch, NodePeaking, NodeLowShelf, NodeHighShelf:
		if spec.Freq <= 0 || spec.Freq >= nyquist {
			return nil, fmt.Errorf("%s: frequency %.1f Hz outside (0, %.1f)", spec.Kind, spec.Freq, nyquist)
		}
		if spec.Q <= 0 {
			return nil, fmt.Errorf("%s: Q %.3f must be positive", spec.Kind, spec.Q)
		}
		return newBiquad(spec, sampleRate), nil

	case NodeGate:
		if spec.Ratio < 1 {
			return nil, fmt.Errorf("gate: ratio %.2f must be >= 1", spec.Ratio)
		}
		return newGate(spec, sampleRate), nil

	case NodeCompressor:
		if spec.Ratio < 1 {
			return nil, fmt.Errorf("compressor: ratio %.2f must be >= 1", spec.Ratio)
		}
		return newCompressor(spec, sampleRate), nil

	case NodeLimiter:
		return newLimiter(spec, sampleRate), nil

	case NodeGain:
		return &gainKernel{gain: DbToLinear(spec.GainDB)}, nil

	default:
		return nil, fmt.Errorf("unknown node kind %q", spec.Kind)
	}
}

// =============================================================================
// Biquad filters
// =============================================================================

// biquad is a direct form I second-order section. Coefficients follow
// the RBJ audio EQ cookbook designs.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func newBiquad(spec NodeSpec, sampleRate int) *biquad {
	w0 := 2.0 * math.Pi * spec.Freq / float64(sampleRate)
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2.0 * spec.Q)
	a := math.Pow(10, spec.GainDB/40.0) // Shelf/peaking amplitude

	var b0, b1, b2, a0, a1, a2 float64

	switch spec.Kind {
	case NodeHighpass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha

	case NodeLowpass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha

	case NodeNotch:
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha

	case NodePeaking:
		b0 = 1 + alpha*a
		b1 = -2 * cosW0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW0
		a2 = 1 - alpha/a

	case NodeLowShelf:
		sqrtA := math.Sqrt(a)
		b0 = a * ((a + 1) - (a-1)*cosW0 + 2*sqrtA*alpha)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW0)
		b2 = a * ((a + 1) - (a-1)*cosW0 - 2*sqrtA*alpha)
		a0 = (a + 1) + (a-1)*cosW0 + 2*sqrtA*alpha
		a1 = -2 * ((a - 1) + (a+1)*cosW0)
		a2 = (a + 1) + (a-1)*cosW0 - 2*sqrtA*alpha

	case NodeHighShelf:
		sqrtA := math.Sqrt(a)
		b0 = a * ((a + 1) + (a-1)*cosW0 + 2*sqrtA*alpha)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW0)
		b2 = a * ((a + 1) + (a-1)*cosW0 - 2*sqrtA*alpha)
		a0 = (a + 1) - (a-1)*cosW0 + 2*sqrtA*alpha
		a1 = 2 * ((a - 1) - (a+1)*cosW0)
		a2 = (a + 1) - (a-1)*cosW0 - 2*sqrtA*alpha
	}

	return &biquad{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: a1 / a0,
		a2: a2 / a0,
	}
}

func (f *biquad) process(samples []float64) {
	for i, x := range samples {
		y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
		f.x2, f.x1 = f.x1, x
		f.y2, f.y1 = f.y1, y
		samples[i] = y
	}
}

// =============================================================================
// Dynamics
// =============================================================================

// envelopeFollower smooths sample magnitude with separate attack and
// release one-pole coefficients.
type envelopeFollower struct {
	attackCoef  float64
	releaseCoef float64
	env         float64
}

func newEnvelopeFollower(attackMs, releaseMs float64, sampleRate int) envelopeFollower {
	return envelopeFollower{
		attackCoef:  onePoleCoef(attackMs, sampleRate),
		releaseCoef: onePoleCoef(releaseMs, sampleRate),
	}
}

// onePoleCoef derives the smoothing coefficient for a time constant.
// Zero or negative times mean instantaneous response.
func onePoleCoef(ms float64, sampleRate int) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (ms / 1000.0 * float64(sampleRate)))
}

func (e *envelopeFollower) next(sample float64) float64 {
	mag := math.Abs(sample)
	coef := e.releaseCoef
	if mag > e.env {
		coef = e.attackCoef
	}
	e.env = coef*e.env + (1-coef)*mag
	return e.env
}

// gate is a downward expander: below threshold the signal is reduced
// by (ratio-1) dB per dB, floored at FloorDB.
type gate struct {
	follower    envelopeFollower
	thresholdDB float64
	ratio       float64
	floorDB     float64
}

func newGate(spec NodeSpec, sampleRate int) *gate {
	return &gate{
		follower:    newEnvelopeFollower(spec.AttackMs, spec.ReleaseMs, sampleRate),
		thresholdDB: spec.ThresholdDB,
		ratio:       spec.Ratio,
		floorDB:     spec.FloorDB,
	}
}

func (g *gate) process(samples []float64) {
	for i, x := range samples {
		env := g.follower.next(x)
		envDB := LinearToDb(env)
		if envDB >= g.thresholdDB {
			continue
		}
		reductionDB := (envDB - g.thresholdDB) * (g.ratio - 1)
		if reductionDB < g.floorDB {
			reductionDB = g.floorDB
		}
		samples[i] = x * DbToLinear(reductionDB)
	}
}

// compressor applies a downward static curve above threshold with a
// quadratic soft knee, then makeup gain.
type compressor struct {
	follower    envelopeFollower
	thresholdDB float64
	ratio       float64
	kneeDB      float64
	makeup      float64
}

func newCompressor(spec NodeSpec, sampleRate int) *compressor {
	return &compressor{
		follower:    newEnvelopeFollower(spec.AttackMs, spec.ReleaseMs, sampleRate),
		thresholdDB: spec.ThresholdDB,
		ratio:       spec.Ratio,
		kneeDB:      spec.KneeDB,
		makeup:      DbToLinear(spec.MakeupDB),
	}
}

// gainReductionDB computes the static-curve reduction for an envelope
// level. Returns 0 below the knee.
func (c *compressor) gainReductionDB(envDB float64) float64 {
	over := envDB - c.thresholdDB
	slope := 1.0 - 1.0/c.ratio

	if c.kneeDB > 0 && math.Abs(over) < c.kneeDB/2 {
		// Quadratic interpolation inside the knee
		x := over + c.kneeDB/2
		return -slope * x * x / (2 * c.kneeDB)
	}
	if over <= 0 {
		return 0
	}
	return -slope * over
}

func (c *compressor) process(samples []float64) {
	for i, x := range samples {
		env := c.follower.next(x)
		reduction := c.gainReductionDB(LinearToDb(env))
		samples[i] = x * DbToLinear(reduction) * c.makeup
	}
}

// limiter holds the envelope at the ceiling. Not a brick wall: the
// attack time lets brief overshoot through, which the encoder's clip
// counters will report.
type limiter struct {
	follower envelopeFollower
	ceiling  float64
}

func newLimiter(spec NodeSpec, sampleRate int) *limiter {
	return &limiter{
		follower: newEnvelopeFollower(spec.AttackMs, spec.ReleaseMs, sampleRate),
		ceiling:  DbToLinear(spec.CeilingDB),
	}
}

func (l *limiter) process(samples []float64) {
	for i, x := range samples {
		env := l.follower.next(x)
		if env > l.ceiling {
			samples[i] = x * (l.ceiling / env)
		}
	}
}

// gainKernel applies a constant linear gain.
type gainKernel struct {
	gain float64
}

func (g *gainKernel) process(samples []float64) {
	for i := range samples {
		samples[i] *= g.gain
	}
}
