// Package batch consumes bulk "account records changed" events, works
// out which records actually changed address, and drives one resolution
// per changed record.
package batch

import (
	"github.com/google/uuid"

	"github.com/CivicBridge/CB-Districting/internal/geocoding"
)

// Snapshot is an account record's state at one side of a change event.
// The engine only inspects the address; everything else on the record
// belongs to other subsystems and rides along untouched.
type Snapshot struct {
	Address *geocoding.Address `json:"address,omitempty"`
}

// RecordChange is a before/after pair for one account record. Before is
// nil for a created record, After is nil for a deleted one.
type RecordChange struct {
	AccountID uuid.UUID `json:"account_id"`
	Before    *Snapshot `json:"before,omitempty"`
	After     *Snapshot `json:"after,omitempty"`
}

// ChangeEvent is one bulk-write notification from the trigger source.
type ChangeEvent struct {
	Records []RecordChange `json:"records"`
}

// addressChanged reports whether the record's address value differs from
// its prior value in a way that warrants re-resolution. A record that
// loses its address has nothing to resolve against; its memberships stay
// as they are until a new address arrives.
func (rc RecordChange) addressChanged() bool {
	if rc.After == nil || rc.After.Address == nil {
		return false
	}
	if rc.Before == nil || rc.Before.Address == nil {
		return true
	}
	return *rc.Before.Address != *rc.After.Address
}

// Summary reports what happened to one batch.
type Summary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}
