// Package storage provides storage abstractions for the caregiver cache.
package storage

import (
	"context"
	"time"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/treatment"
)

// Store is the interface for persistent storage.
type Store interface {
	// Glucose samples
	StoreSamples(ctx context.Context, samples []bloodsugar.Sample) error
	QuerySamples(ctx context.Context, since, until time.Time) ([]bloodsugar.Sample, error)

	// Treatments
	StoreBolusEvents(ctx context.Context, events []treatment.BolusEvent) error
	QueryBolusEvents(ctx context.Context, since, until time.Time) ([]treatment.BolusEvent, error)
	StoreCarbEvents(ctx context.Context, events []treatment.CarbEvent) error
	QueryCarbEvents(ctx context.Context, since, until time.Time) ([]treatment.CarbEvent, error)

	// Retention
	DeleteOldData(ctx context.Context, before time.Time) error

	// Remote command audit log
	RecordCommand(ctx context.Context, cmd *CommandRecord) error
	RecentCommands(ctx context.Context, limit int) ([]*CommandRecord, error)

	// Configuration
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
	DeleteConfig(ctx context.Context, key string) error

	// Lifecycle
	Close() error
}

// CommandRecord is an audit entry for a remote command sent to Loop.
type CommandRecord struct {
	ID        string
	Kind      string // "bolus", "carbs" or "override"
	Detail    string
	Error     string
	CreatedAt time.Time
}

// NewCommandRecord creates a command record. A non-nil err marks it failed.
func NewCommandRecord(id, kind, detail string, err error) *CommandRecord {
	rec := &CommandRecord{
		ID:        id,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// Succeeded reports whether the command was accepted by Nightscout.
func (r *CommandRecord) Succeeded() bool {
	return r.Error == ""
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}
