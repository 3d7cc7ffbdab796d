package processor

import (
	"context"
	"math"

	"github.com/soundmend/soundmend/internal/audio"
)

// renderChunkSize bounds how many samples each kernel processes
// between progress reports.
const renderChunkSize = 65536

// ProgressFunc receives rendering progress. Progress is monotonically
// increasing in [0, 1] and reaches 1 only after rendering completes.
// Level is the current block level in dB for meter display. Callbacks
// fire synchronously on the rendering goroutine.
type ProgressFunc func(progress float64, stageLabel string, levelDB float64)

// Render runs the full pipeline over a buffer and returns the
// rendered result. The input buffer is never modified; each run
// operates on an isolated clone, so concurrent runs share nothing.
//
// Stage order is fixed: PreNormalize, the six optional enhancement
// stages, ToneControl, FinalNormalize. An enhancement stage executes
// only when enabled with nonzero strength. In diagnostics mode only
// the normalisation stages run.
func Render(ctx context.Context, buf *audio.Buffer, opts Options, progress ProgressFunc) (*audio.Buffer, error) {
	if buf == nil || buf.Frames() == 0 {
		return nil, &ProcessingError{Op: "validate input", Err: errEmptyInput}
	}
	if err := opts.Validate(); err != nil {
		return nil, &ProcessingError{Op: "validate options", Err: err}
	}

	chain := opts.BuildChain()
	out := buf.Clone()
	frames := out.Frames()

	for stageIdx, stage := range chain {
		if err := ctx.Err(); err != nil {
			return nil, &ProcessingError{Stage: stage.ID, Op: "render", Err: err}
		}

		// Realise every node before touching samples, so parameter
		// errors surface without a half-processed buffer. Kernels
		// carry per-channel state.
		kernels := make([][]kernel, out.Channels)
		for ch := 0; ch < out.Channels; ch++ {
			for _, spec := range stage.Nodes {
				k, err := realizeNode(spec, out.SampleRate)
				if err != nil {
					return nil, &ProcessingError{Stage: stage.ID, Op: "build chain", Err: err}
				}
				kernels[ch] = append(kernels[ch], k)
			}
		}

		for start := 0; start < frames; start += renderChunkSize {
			end := start + renderChunkSize
			if end > frames {
				end = frames
			}
			for ch := 0; ch < out.Channels; ch++ {
				for _, k := range kernels[ch] {
					k.process(out.Samples[ch][start:end])
				}
			}

			if progress != nil {
				frac := float64(stageIdx) + float64(end)/float64(frames)
				progress(0.99*frac/float64(len(chain)), stage.Label, blockLevelDB(out.Samples[0][start:end]))
			}
		}
	}

	if progress != nil {
		progress(1.0, "Complete", blockLevelDB(out.Samples[0]))
	}

	return out, nil
}

// blockLevelDB calculates the RMS level of a sample block in dB for
// meter display, clamped to the -60..0 range.
func blockLevelDB(samples []float64) float64 {
	if len(samples) == 0 {
		return -60.0
	}
	var sumSquares float64
	for _, s := range samples {
		sumSquares += s * s
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))
	if rms < 0.00001 {
		return -60.0 // Silence floor
	}
	return clamp(20.0*math.Log10(rms), -60.0, 0.0)
}
