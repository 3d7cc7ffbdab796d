package processor

import "math"

// Strength mapping: every stage parameter is a linear interpolation
// of the 0-100 strength knob into engineering units. The threshold
// map runs inverted so that higher strength always means a lower,
// more aggressive threshold. That inversion is a hard contract;
// flipping it flips the perceived direction of every strength knob.

// ClampStrength bounds a strength value to the 0-100 knob range.
// Builders assume pre-clamped input, so callers clamp upstream.
func ClampStrength(strength float64) float64 {
	return clamp(strength, 0, 100)
}

// MapStrengthToThreshold maps strength to a detection threshold in dB.
// Inverted: strength 0 returns max (lenient), strength 100 returns
// min (aggressive).
func MapStrengthToThreshold(strength, minDB, maxDB float64) float64 {
	return maxDB - (strength/100.0)*(maxDB-minDB)
}

// MapStrengthToRatio maps strength to a dynamics ratio.
func MapStrengthToRatio(strength, minRatio, maxRatio float64) float64 {
	return minRatio + (strength/100.0)*(maxRatio-minRatio)
}

// MapStrengthToQ maps strength to a filter Q factor.
func MapStrengthToQ(strength, minQ, maxQ float64) float64 {
	return minQ + (strength/100.0)*(maxQ-minQ)
}

// MapStrengthToGain maps strength to a gain value in dB.
func MapStrengthToGain(strength, minDB, maxDB float64) float64 {
	return minDB + (strength/100.0)*(maxDB-minDB)
}

// MapStrengthToFrequency maps strength to a frequency in Hz.
func MapStrengthToFrequency(strength, minHz, maxHz float64) float64 {
	return minHz + (strength/100.0)*(maxHz-minHz)
}

// DbToLinear converts a decibel value to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// LinearToDb converts linear amplitude to a decibel value.
// Inverse of DbToLinear.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return -120.0 // Practical floor for audio
	}
	return 20.0 * math.Log10(linear)
}

// clamp bounds val to [min, max]
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// sanitizeFloat returns defaultVal when val is NaN or infinite.
func sanitizeFloat(val, defaultVal float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return defaultVal
	}
	return val
}
