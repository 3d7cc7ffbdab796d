package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// WAV format constants for the uncompressed 16-bit PCM container.
const (
	wavFormatPCM  = 1
	wavBitDepth   = 16
	wavBytesDepth = wavBitDepth / 8

	// ClipThreshold is the linear level at or above which a sample
	// counts as clipped. 0.99 rather than 1.0 so that samples sitting
	// at the converter ceiling are caught as well.
	ClipThreshold = 0.99
)

// DecodeError indicates input bytes could not be interpreted as audio.
// Callers that produce suggestions (auto-tune) recover from this with
// safe defaults; diagnostics and processing surface it to the user.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode audio: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode audio: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodingDiagnostics counts the defects repaired while encoding.
// Nonzero counters are the safety net against invalid floating-point
// samples reaching the exported artifact; they are reported, never
// silently dropped.
type EncodingDiagnostics struct {
	SanitizedSamples int // NaN or infinite samples replaced with 0
	ClippedSamples   int // samples at or beyond the clip threshold
	TotalSamples     int
}

// EncodeWAV serialises a buffer to a standard RIFF/WAVE 16-bit PCM
// container with interleaved little-endian samples.
//
// Every sample is sanitised on the way out: NaN and infinite values
// become 0 and are counted, out-of-range values are clamped to [-1, 1],
// and anything at or beyond ClipThreshold is counted as clipped.
// Conversion to int16 uses sign-correct scaling (negative samples by
// 2^15, non-negative by 2^15-1) so that -1.0 and +1.0 both map onto
// representable values.
func EncodeWAV(buf *Buffer) ([]byte, EncodingDiagnostics, error) {
	var diag EncodingDiagnostics

	if buf == nil || buf.Channels < 1 || buf.Frames() == 0 {
		return nil, diag, fmt.Errorf("cannot encode empty buffer")
	}
	if buf.SampleRate <= 0 {
		return nil, diag, fmt.Errorf("cannot encode buffer with sample rate %d", buf.SampleRate)
	}

	frames := buf.Frames()
	channels := buf.Channels
	diag.TotalSamples = frames * channels

	byteRate := buf.SampleRate * channels * wavBytesDepth
	blockAlign := channels * wavBytesDepth
	dataSize := diag.TotalSamples * wavBytesDepth

	out := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	// RIFF header
	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(36+dataSize))
	out.WriteString("WAVE")

	// fmt subchunk
	out.WriteString("fmt ")
	binary.Write(out, binary.LittleEndian, uint32(16))
	binary.Write(out, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(out, binary.LittleEndian, uint16(channels))
	binary.Write(out, binary.LittleEndian, uint32(buf.SampleRate))
	binary.Write(out, binary.LittleEndian, uint32(byteRate))
	binary.Write(out, binary.LittleEndian, uint16(blockAlign))
	binary.Write(out, binary.LittleEndian, uint16(wavBitDepth))

	// data subchunk: interleaved frames
	out.WriteString("data")
	binary.Write(out, binary.LittleEndian, uint32(dataSize))

	pcm := make([]byte, 2)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			s := buf.Samples[ch][i]

			if math.IsNaN(s) || math.IsInf(s, 0) {
				s = 0
				diag.SanitizedSamples++
			}
			if s > 1.0 {
				s = 1.0
			} else if s < -1.0 {
				s = -1.0
			}
			if math.Abs(s) >= ClipThreshold {
				diag.ClippedSamples++
			}

			var v int
			if s < 0 {
				v = int(math.Round(s * 32768))
			} else {
				v = int(math.Round(s * 32767))
			}
			if v > math.MaxInt16 {
				v = math.MaxInt16
			} else if v < math.MinInt16 {
				v = math.MinInt16
			}

			binary.LittleEndian.PutUint16(pcm, uint16(int16(v)))
			out.Write(pcm)
		}
	}

	return out.Bytes(), diag, nil
}

// DecodeWAV parses a RIFF/WAVE 16-bit PCM container back into a
// float64 buffer, the inverse of EncodeWAV. Unknown chunks are
// skipped; only uncompressed 16-bit PCM is supported.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) < 12 {
		return nil, &DecodeError{Reason: "file too short for RIFF header"}
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, &DecodeError{Reason: "not a RIFF/WAVE container"}
	}

	var (
		haveFmt    bool
		channels   int
		sampleRate int
		pcmData    []byte
	)

	// Walk the chunk list. Chunks are word-aligned: odd-sized chunks
	// carry a pad byte that is not counted in the declared size.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			return nil, &DecodeError{Reason: fmt.Sprintf("truncated %q chunk", id)}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, &DecodeError{Reason: "format chunk too short"}
			}
			formatTag := binary.LittleEndian.Uint16(data[body : body+2])
			if formatTag != wavFormatPCM {
				return nil, &DecodeError{Reason: fmt.Sprintf("unsupported format tag %d (want PCM)", formatTag)}
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitDepth := int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if bitDepth != wavBitDepth {
				return nil, &DecodeError{Reason: fmt.Sprintf("unsupported bit depth %d (want 16)", bitDepth)}
			}
			if channels < 1 || sampleRate <= 0 {
				return nil, &DecodeError{Reason: fmt.Sprintf("invalid format: %d channels at %d Hz", channels, sampleRate)}
			}
			haveFmt = true

		case "data":
			pcmData = data[body : body+size]
		}

		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !haveFmt {
		return nil, &DecodeError{Reason: "missing format chunk"}
	}
	if pcmData == nil {
		return nil, &DecodeError{Reason: "missing data chunk"}
	}

	frames := len(pcmData) / (channels * wavBytesDepth)
	buf := NewBuffer(sampleRate, channels, frames)

	idx := 0
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(pcmData[idx : idx+2]))
			idx += 2
			// Sign-correct inverse of the encoder's scaling.
			if v < 0 {
				buf.Samples[ch][i] = float64(v) / 32768
			} else {
				buf.Samples[ch][i] = float64(v) / 32767
			}
		}
	}

	return buf, nil
}

// DecodeWAVFile reads and decodes a WAV file from disk.
func DecodeWAVFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("read %s", path), Err: err}
	}
	return DecodeWAV(data)
}

// WriteWAVFile encodes a buffer and writes it to disk, returning the
// encoding diagnostics for caller-side warnings.
func WriteWAVFile(path string, buf *Buffer) (EncodingDiagnostics, error) {
	data, diag, err := EncodeWAV(buf)
	if err != nil {
		return diag, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return diag, fmt.Errorf("write %s: %w", path, err)
	}
	return diag, nil
}
