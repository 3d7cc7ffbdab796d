package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/soundmend/soundmend/internal/processor"
)

var (
	alice = Caller{ID: "alice", Role: RoleUser}
	bob   = Caller{ID: "bob", Role: RoleUser}
	admin = Caller{ID: "ops", Role: RoleAdmin}
)

func sampleResult() *processor.ProcessingResult {
	opts := processor.DefaultOptions()
	opts.NoiseSuppression = processor.StageConfig{Enabled: true, Strength: 60}
	opts.LowBandDB = -3.0
	return &processor.ProcessingResult{
		OutputPath: "/tmp/take-processed.wav",
		Applied:    opts,
		Confidence: 0.8,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job, err := store.Create(ctx, alice, "/tmp/take.wav")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if job.ID == uuid.Nil {
		t.Error("job should get a non-nil ID")
	}
	if job.Owner != "alice" {
		t.Errorf("Owner = %q, want alice", job.Owner)
	}
	if job.Status != StatusPending {
		t.Errorf("Status = %q, want pending", job.Status)
	}

	got, err := store.Get(ctx, alice, job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.InputPath != "/tmp/take.wav" {
		t.Errorf("InputPath = %q", got.InputPath)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job, err := store.Create(ctx, alice, "/tmp/take.wav")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if _, err := store.Get(ctx, bob, job.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other user Get() error = %v, want ErrForbidden", err)
	}
	if _, err := store.Get(ctx, admin, job.ID); err != nil {
		t.Errorf("admin Get() error = %v, want nil", err)
	}
	if _, err := store.Get(ctx, alice, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown ID Get() error = %v, want ErrNotFound", err)
	}
}

func TestListByOwner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, _ := store.Create(ctx, alice, "/tmp/one.wav")
	time.Sleep(time.Millisecond)
	second, _ := store.Create(ctx, alice, "/tmp/two.wav")
	store.Create(ctx, bob, "/tmp/theirs.wav")

	jobs, err := store.ListByOwner(ctx, alice, "alice")
	if err != nil {
		t.Fatalf("ListByOwner() error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	// Newest first
	if jobs[0].ID != second.ID || jobs[1].ID != first.ID {
		t.Error("jobs should be ordered newest first")
	}

	if _, err := store.ListByOwner(ctx, bob, "alice"); !errors.Is(err, ErrForbidden) {
		t.Errorf("cross-owner list error = %v, want ErrForbidden", err)
	}
	if jobs, err := store.ListByOwner(ctx, admin, "alice"); err != nil || len(jobs) != 2 {
		t.Errorf("admin list = %d jobs, err %v", len(jobs), err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job, _ := store.Create(ctx, alice, "/tmp/take.wav")

	if err := store.UpdateStatus(ctx, alice, job.ID, StatusProcessing, ""); err != nil {
		t.Fatalf("pending → processing error: %v", err)
	}
	// Cannot go backwards
	if err := store.UpdateStatus(ctx, alice, job.ID, StatusPending, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("processing → pending error = %v, want ErrInvalidTransition", err)
	}
	if err := store.UpdateStatus(ctx, alice, job.ID, StatusFailed, "decode failed"); err != nil {
		t.Fatalf("processing → failed error: %v", err)
	}

	got, _ := store.Get(ctx, alice, job.ID)
	if got.Status != StatusFailed || got.Error != "decode failed" {
		t.Errorf("job = status %q, error %q", got.Status, got.Error)
	}

	// Terminal states reject further updates
	if err := store.UpdateStatus(ctx, alice, job.ID, StatusProcessing, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("failed → processing error = %v, want ErrInvalidTransition", err)
	}
}

func TestAttachResult(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job, _ := store.Create(ctx, alice, "/tmp/take.wav")
	store.UpdateStatus(ctx, alice, job.ID, StatusProcessing, "")

	if err := store.AttachResult(ctx, alice, job.ID, sampleResult()); err != nil {
		t.Fatalf("AttachResult() error: %v", err)
	}

	got, _ := store.Get(ctx, alice, job.ID)
	if got.Status != StatusComplete {
		t.Errorf("Status = %q, want complete", got.Status)
	}
	if got.OutputPath != "/tmp/take-processed.wav" {
		t.Errorf("OutputPath = %q", got.OutputPath)
	}
	if got.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", got.Confidence)
	}

	wantCaps := []Capability{CapNoiseSuppress, CapToneControl, CapAutoTuned}
	if len(got.Capabilities) != len(wantCaps) {
		t.Fatalf("Capabilities = %v, want %v", got.Capabilities, wantCaps)
	}
	for i, c := range wantCaps {
		if got.Capabilities[i] != c {
			t.Errorf("Capabilities[%d] = %q, want %q", i, got.Capabilities[i], c)
		}
	}
}

func TestAttachResultRequiresProcessing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job, _ := store.Create(ctx, alice, "/tmp/take.wav")

	// Straight from pending is not a valid completion
	if err := store.AttachResult(ctx, alice, job.ID, sampleResult()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("AttachResult() on pending = %v, want ErrInvalidTransition", err)
	}
}

func TestCapabilitiesFrom(t *testing.T) {
	t.Run("nil result", func(t *testing.T) {
		if caps := CapabilitiesFrom(nil); caps != nil {
			t.Errorf("got %v, want nil", caps)
		}
	})

	t.Run("neutral options", func(t *testing.T) {
		result := &processor.ProcessingResult{Applied: processor.DefaultOptions()}
		if caps := CapabilitiesFrom(result); len(caps) != 0 {
			t.Errorf("neutral options tagged %v", caps)
		}
	})

	t.Run("enabled but zero strength does not count", func(t *testing.T) {
		opts := processor.DefaultOptions()
		opts.DynamicEQ = processor.StageConfig{Enabled: true, Strength: 0}
		result := &processor.ProcessingResult{Applied: opts}
		if caps := CapabilitiesFrom(result); len(caps) != 0 {
			t.Errorf("zero-strength stage tagged %v", caps)
		}
	})
}

func TestClonePreventsMutation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	job, _ := store.Create(ctx, alice, "/tmp/take.wav")
	job.Owner = "mallory"

	got, err := store.Get(ctx, alice, job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Owner != "alice" {
		t.Errorf("store state was mutated through a returned job")
	}
}
