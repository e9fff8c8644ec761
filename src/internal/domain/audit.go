package domain

import "time"

type AuditAction string

const (
	AuditEntryDeleted  AuditAction = "ENTRY_DELETED"
	AuditEntryReversed AuditAction = "ENTRY_REVERSED"
	AuditForcedClose   AuditAction = "PERIOD_CLOSED_WITH_DISCREPANCIES"
	AuditOrphanRemoved AuditAction = "ORPHAN_ENTRY_REMOVED"
)

// AuditEvent records destructive or override operations with enough payload
// to reconstruct what was removed or overridden.
type AuditEvent struct {
	ID        string
	TenantID  string
	Action    AuditAction
	EntryID   string
	Actor     string
	Payload   string // JSON snapshot of the affected value
	CreatedAt time.Time
}
