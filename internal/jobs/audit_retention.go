package jobs

import (
	"context"
	"log"

	"inkwell/internal/services"
)

// AuditRetentionJob trims audit records older than the configured
// retention window
type AuditRetentionJob struct {
	audit *services.AuditService
}

// NewAuditRetentionJob creates the audit cleanup job
func NewAuditRetentionJob(audit *services.AuditService) *AuditRetentionJob {
	return &AuditRetentionJob{audit: audit}
}

// Name identifies the job in scheduler logs
func (j *AuditRetentionJob) Name() string { return "audit_retention" }

// Run executes one cleanup pass
func (j *AuditRetentionJob) Run(ctx context.Context) error {
	removed := j.audit.CleanupOldRecords()
	if removed > 0 {
		log.Printf("[RETENTION] Removed %d expired audit records", removed)
	}
	return nil
}
