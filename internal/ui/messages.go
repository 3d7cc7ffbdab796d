package ui

import (
	"github.com/soundmend/soundmend/internal/processor"
)

// ProgressMsg represents a progress update from the processor
type ProgressMsg struct {
	Pass     int     // 1 (analysis) or 2 (rendering)
	PassName string  // "Analyzing" or "Processing"
	Progress float64 // 0.0 to 1.0
	Level    float64 // Current block level in dB
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex int
	Result    *processor.ProcessingResult
	Error     error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
