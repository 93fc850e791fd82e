// Package audit provides the mutation-log contract for ledger operations.
// Issuance and invoice records are never physically deleted; this log keeps
// the surrounding mutations (who issued, returned, invoiced, approved what).
package audit

import (
	"context"
	"encoding/json"
	"time"

	"prorab/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionIssue        Action = "issue"
	ActionReturn       Action = "return"
	ActionUnused       Action = "record_unused"
	ActionInvoice      Action = "invoice"
	ActionStatusChange Action = "status_change"
)

// Entry represents a single audit log entry.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	Changes    json.RawMessage
	OccurredAt time.Time
}

// Recorder persists audit entries. Implementations live in infrastructure.
// Recording is best-effort inside the mutating transaction: a failed write
// fails the operation so the log can never miss a committed mutation.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NopRecorder discards entries. Used in tests.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(ctx context.Context, entry Entry) error { return nil }

var _ Recorder = NopRecorder{}

// NewEntry builds an entry with marshalled change payload.
func NewEntry(entityType string, entityID id.ID, action Action, userID string, changes any) Entry {
	raw, _ := json.Marshal(changes)
	return Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		Changes:    raw,
		OccurredAt: time.Now().UTC(),
	}
}
