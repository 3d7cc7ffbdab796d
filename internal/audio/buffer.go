// Package audio provides PCM buffer types and WAV container I/O
package audio

// Buffer holds decoded PCM audio as float64 samples in [-1, 1].
// Samples are stored per channel (non-interleaved); all channels
// have the same length.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    [][]float64 // Samples[channel][frame]
}

// NewBuffer allocates a zeroed buffer with the given shape.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	samples := make([][]float64, channels)
	for ch := range samples {
		samples[ch] = make([]float64, frames)
	}
	return &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    samples,
	}
}

// NewMonoBuffer wraps an existing sample slice as a single-channel buffer.
// The slice is not copied.
func NewMonoBuffer(sampleRate int, samples []float64) *Buffer {
	return &Buffer{
		SampleRate: sampleRate,
		Channels:   1,
		Samples:    [][]float64{samples},
	}
}

// Frames returns the number of sample frames per channel.
func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Mono returns a single mono channel for analysis.
// Multi-channel audio is mixed down by averaging; a mono buffer
// returns its channel directly without copying.
func (b *Buffer) Mono() []float64 {
	if b.Channels == 1 {
		return b.Samples[0]
	}
	frames := b.Frames()
	mono := make([]float64, frames)
	scale := 1.0 / float64(b.Channels)
	for ch := 0; ch < b.Channels; ch++ {
		for i, s := range b.Samples[ch] {
			mono[i] += s * scale
		}
	}
	return mono
}

// Clone returns a deep copy. Pipeline runs operate on clones so that
// no two runs share mutable sample data.
func (b *Buffer) Clone() *Buffer {
	out := NewBuffer(b.SampleRate, b.Channels, b.Frames())
	for ch := range b.Samples {
		copy(out.Samples[ch], b.Samples[ch])
	}
	return out
}
