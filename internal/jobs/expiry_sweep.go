package jobs

import (
	"context"
	"log"

	"inkwell/internal/services"
)

// ExpirySweepJob promotes recently deleted entries past the retention
// window to hidden. Per-entry timers usually get there first; the sweep
// catches entries whose timers were lost to a restart or a crash, and
// running it again is always safe.
type ExpirySweepJob struct {
	journal *services.JournalService
}

// NewExpirySweepJob creates the sweep job
func NewExpirySweepJob(journal *services.JournalService) *ExpirySweepJob {
	return &ExpirySweepJob{journal: journal}
}

// Name identifies the job in scheduler logs
func (j *ExpirySweepJob) Name() string { return "expiry_sweep" }

// Run executes one sweep pass
func (j *ExpirySweepJob) Run(ctx context.Context) error {
	moved, err := j.journal.CheckDeletedEntries()
	if err != nil {
		return err
	}
	if moved > 0 {
		log.Printf("[SWEEP] Moved %d expired entries to hidden", moved)
	}
	return nil
}
