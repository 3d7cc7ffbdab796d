// Package jobs defines the seam between the processing pipeline and a
// backend job store: originals are registered as jobs, processed
// artifacts and analysis results get attached to them. The only
// implementation here is in-memory; persistence backends live behind
// the Store interface.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soundmend/soundmend/internal/processor"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// Role controls job visibility. Users see only their own jobs, admins
// see all of them.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller identifies who is making a store request.
type Caller struct {
	ID   string
	Role Role
}

// Capability tags the DSP work that was actually applied to a job's
// audio. Tags are derived from the applied options rather than stored
// as per-stage boolean columns, so new stages never need a record
// migration.
type Capability string

const (
	CapNoiseSuppress     Capability = "noise_suppress"
	CapTransientSuppress Capability = "transient_suppress"
	CapVoiceIsolate      Capability = "voice_isolate"
	CapSpectralRepair    Capability = "spectral_repair"
	CapDynamicEQ         Capability = "dynamic_eq"
	CapDeClickDeChirp    Capability = "declick_dechirp"
	CapToneControl       Capability = "tone_control"
	CapAutoTuned         Capability = "auto_tuned"
)

// Job is one tracked processing run.
type Job struct {
	ID         uuid.UUID
	Owner      string
	InputPath  string
	OutputPath string
	Status     Status

	// Applied capabilities, set when a result is attached.
	Capabilities []Capability

	// Auto-tune confidence of the attached result, 0 when not tuned.
	Confidence float64

	// Failure reason when Status is StatusFailed.
	Error string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store errors.
var (
	ErrNotFound          = errors.New("job not found")
	ErrForbidden         = errors.New("caller may not access this job")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store persists jobs and their attached results.
type Store interface {
	// Create registers a new pending job owned by the caller.
	Create(ctx context.Context, caller Caller, inputPath string) (*Job, error)

	// Get returns a single job. Non-admin callers can only fetch
	// their own jobs.
	Get(ctx context.Context, caller Caller, id uuid.UUID) (*Job, error)

	// ListByOwner returns the owner's jobs, newest first. Non-admin
	// callers can only list their own.
	ListByOwner(ctx context.Context, caller Caller, owner string) ([]*Job, error)

	// UpdateStatus moves a job through its lifecycle. Only forward
	// transitions are allowed.
	UpdateStatus(ctx context.Context, caller Caller, id uuid.UUID, status Status, reason string) error

	// AttachResult records the processed artifact on a job and marks
	// it complete.
	AttachResult(ctx context.Context, caller Caller, id uuid.UUID, result *processor.ProcessingResult) error
}

// CapabilitiesFrom derives the applied-capability tags for a result.
// Only stages that actually ran are tagged; flat tone bands do not
// count as tone control.
func CapabilitiesFrom(result *processor.ProcessingResult) []Capability {
	if result == nil {
		return nil
	}

	opts := result.Applied
	var caps []Capability

	stageTags := []struct {
		cfg processor.StageConfig
		tag Capability
	}{
		{opts.NoiseSuppression, CapNoiseSuppress},
		{opts.TransientSuppression, CapTransientSuppress},
		{opts.VoiceIsolation, CapVoiceIsolate},
		{opts.SpectralRepair, CapSpectralRepair},
		{opts.DynamicEQ, CapDynamicEQ},
		{opts.DeClickDeChirp, CapDeClickDeChirp},
	}
	for _, st := range stageTags {
		if st.cfg.Active() {
			caps = append(caps, st.tag)
		}
	}

	if opts.LowBandDB != 0 || opts.MidBandDB != 0 || opts.HighBandDB != 0 {
		caps = append(caps, CapToneControl)
	}
	if result.Confidence > 0 {
		caps = append(caps, CapAutoTuned)
	}

	return caps
}

// validTransition reports whether a status change moves forward
// through the lifecycle.
func validTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusComplete || to == StatusFailed
	default:
		return false
	}
}
