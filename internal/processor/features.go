package processor

import (
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/soundmend/soundmend/internal/audio"
)

// Feature extraction analysis parameters
const (
	// SpectralWindowSize is the FFT window length in samples.
	SpectralWindowSize = 2048

	// SpectralWindowsMax caps the number of analysed windows so that
	// long files stay cheap. Windows are non-overlapping and taken
	// from the front of the signal.
	SpectralWindowsMax = 50

	// RolloffEnergyFraction defines spectral rolloff: the frequency
	// below which this share of cumulative spectral energy lies.
	RolloffEnergyFraction = 0.85

	// Band boundaries for low/mid/high energy ratios
	LowBandCutoffHz  = 250.0
	HighBandCutoffHz = 4000.0

	// Sibilance band
	SibilanceLowHz  = 6000.0
	SibilanceHighHz = 10000.0

	// Noise floor estimation: per-window RMS over 100 ms windows,
	// then the 10th percentile of the sorted window levels.
	noiseFloorWindowSecs = 0.1
	noiseFloorPercentile = 0.1

	// Transient detection: 10 ms windows; a transient is a window
	// whose peak exceeds both 3x the signal RMS and 2x the previous
	// window's peak.
	transientWindowSecs   = 0.01
	transientRMSFactor    = 3.0
	transientPeakFactor   = 2.0
	transientDensityScale = 10.0
)

// AudioFeatures holds the scalar descriptors computed from a decoded
// mono buffer. Computed once per analysis, never mutated.
type AudioFeatures struct {
	RMSLevel         float64 // Linear RMS of the whole signal
	PeakLevel        float64 // Linear peak magnitude
	DynamicRange     float64 // dB, 20*log10(peak/rms), 0 when silent
	NoiseFloor       float64 // Linear, 10th percentile of 100ms window RMS
	SpectralCentroid float64 // Hz, energy-weighted mean frequency
	SpectralRolloff  float64 // Hz, 85% cumulative energy point
	ZeroCrossingRate float64 // Crossings per sample, 0-1
	LowEnergyRatio   float64 // Share of spectral energy below 250 Hz
	MidEnergyRatio   float64 // Share between 250 Hz and 4 kHz
	HighEnergyRatio  float64 // Share above 4 kHz
	SibilanceEnergy  float64 // Share between 6 and 10 kHz
	TransientDensity float64 // Normalised 0-1
}

// Analyze computes AudioFeatures from mono samples. Every ratio is
// well-defined for silent input: divisions are guarded and default
// to 0, so no field is ever NaN.
func Analyze(samples []float64, sampleRate int) (AudioFeatures, error) {
	var f AudioFeatures
	if len(samples) == 0 || sampleRate <= 0 {
		return f, &audio.DecodeError{Reason: "no samples to analyze"}
	}

	f.RMSLevel, f.PeakLevel = rmsAndPeak(samples)
	if f.RMSLevel > 0 && f.PeakLevel > 0 {
		f.DynamicRange = 20.0 * math.Log10(f.PeakLevel/f.RMSLevel)
	}

	f.ZeroCrossingRate = zeroCrossingRate(samples)
	f.NoiseFloor = noiseFloor(samples, sampleRate)
	f.TransientDensity = transientDensity(samples, sampleRate, f.RMSLevel)

	analyzeSpectrum(samples, sampleRate, &f)

	return f, nil
}

// AnalyzeBuffer runs Analyze on the buffer's mono mixdown.
func AnalyzeBuffer(buf *audio.Buffer) (AudioFeatures, error) {
	if buf == nil {
		return AudioFeatures{}, &audio.DecodeError{Reason: "nil buffer"}
	}
	return Analyze(buf.Mono(), buf.SampleRate)
}

// rmsAndPeak computes linear RMS and peak magnitude in one pass.
func rmsAndPeak(samples []float64) (rms, peak float64) {
	var sumSquares float64
	for _, s := range samples {
		sumSquares += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	rms = math.Sqrt(sumSquares / float64(len(samples)))
	return rms, peak
}

// zeroCrossingRate counts sign changes per sample.
func zeroCrossingRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples))
}

// noiseFloor estimates the noise floor as the 10th percentile of
// per-window RMS over 100 ms windows.
func noiseFloor(samples []float64, sampleRate int) float64 {
	windowSize := int(noiseFloorWindowSecs * float64(sampleRate))
	if windowSize < 1 {
		windowSize = 1
	}
	numWindows := len(samples) / windowSize
	if numWindows == 0 {
		rms, _ := rmsAndPeak(samples)
		return rms
	}

	levels := make([]float64, 0, numWindows)
	for w := 0; w < numWindows; w++ {
		var sumSquares float64
		start := w * windowSize
		for _, s := range samples[start : start+windowSize] {
			sumSquares += s * s
		}
		levels = append(levels, math.Sqrt(sumSquares/float64(windowSize)))
	}

	slices.Sort(levels)
	idx := int(float64(len(levels)) * noiseFloorPercentile)
	if idx >= len(levels) {
		idx = len(levels) - 1
	}
	return levels[idx]
}

// transientDensity slides a 10 ms window and flags windows whose peak
// exceeds both 3x the signal RMS and 2x the previous window's peak.
// The per-second count is scaled down and clamped to 0-1.
func transientDensity(samples []float64, sampleRate int, signalRMS float64) float64 {
	windowSize := int(transientWindowSecs * float64(sampleRate))
	if windowSize < 1 || len(samples) < windowSize {
		return 0
	}
	durationSecs := float64(len(samples)) / float64(sampleRate)
	if durationSecs <= 0 {
		return 0
	}

	transients := 0
	prevPeak := 0.0
	for start := 0; start+windowSize <= len(samples); start += windowSize {
		var peak float64
		for _, s := range samples[start : start+windowSize] {
			if abs := math.Abs(s); abs > peak {
				peak = abs
			}
		}
		if peak > transientRMSFactor*signalRMS && peak > transientPeakFactor*prevPeak && prevPeak > 0 {
			transients++
		}
		prevPeak = peak
	}

	perSecond := float64(transients) / durationSecs
	return clamp(perSecond/transientDensityScale, 0, 1)
}

// analyzeSpectrum fills the spectral fields of f: centroid, rolloff,
// band energy ratios, and sibilance share. Windows are Hann-weighted,
// non-overlapping, capped at SpectralWindowsMax.
func analyzeSpectrum(samples []float64, sampleRate int, f *AudioFeatures) {
	numWindows := len(samples) / SpectralWindowSize
	if numWindows > SpectralWindowsMax {
		numWindows = SpectralWindowsMax
	}
	if numWindows == 0 {
		return
	}

	fft := fourier.NewFFT(SpectralWindowSize)
	hann := hannWindow(SpectralWindowSize)
	windowed := make([]float64, SpectralWindowSize)
	binWidth := float64(sampleRate) / float64(SpectralWindowSize)

	var (
		centroidSum, rolloffSum          float64
		analysedWindows                  int
		totalEnergy                      float64
		lowEnergy, midEnergy, highEnergy float64
		sibilanceEnergy                  float64
	)

	for w := 0; w < numWindows; w++ {
		start := w * SpectralWindowSize
		for i := 0; i < SpectralWindowSize; i++ {
			windowed[i] = samples[start+i] * hann[i]
		}

		coeffs := fft.Coefficients(nil, windowed)

		var windowEnergy, weightedFreq float64
		magnitudes := make([]float64, len(coeffs))
		for i, c := range coeffs {
			mag := cmplx.Abs(c)
			magnitudes[i] = mag
			energy := mag * mag
			freq := float64(i) * binWidth

			windowEnergy += energy
			weightedFreq += freq * energy

			switch {
			case freq < LowBandCutoffHz:
				lowEnergy += energy
			case freq < HighBandCutoffHz:
				midEnergy += energy
			default:
				highEnergy += energy
			}
			if freq >= SibilanceLowHz && freq <= SibilanceHighHz {
				sibilanceEnergy += energy
			}
		}
		totalEnergy += windowEnergy

		if windowEnergy > 0 {
			centroidSum += weightedFreq / windowEnergy
			rolloffSum += rolloffFrequency(magnitudes, windowEnergy, binWidth)
			analysedWindows++
		}
	}

	if analysedWindows > 0 {
		f.SpectralCentroid = centroidSum / float64(analysedWindows)
		f.SpectralRolloff = rolloffSum / float64(analysedWindows)
	}
	if totalEnergy > 0 {
		f.LowEnergyRatio = lowEnergy / totalEnergy
		f.MidEnergyRatio = midEnergy / totalEnergy
		f.HighEnergyRatio = highEnergy / totalEnergy
		f.SibilanceEnergy = sibilanceEnergy / totalEnergy
	}
}

// rolloffFrequency finds the frequency below which 85% of the
// window's cumulative spectral energy lies.
func rolloffFrequency(magnitudes []float64, windowEnergy, binWidth float64) float64 {
	target := RolloffEnergyFraction * windowEnergy
	var cumulative float64
	for i, mag := range magnitudes {
		cumulative += mag * mag
		if cumulative >= target {
			return float64(i) * binWidth
		}
	}
	return float64(len(magnitudes)-1) * binWidth
}

// hannWindow returns the Hann window of the given length.
func hannWindow(size int) []float64 {
	win := make([]float64, size)
	for i := range win {
		win[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return win
}
