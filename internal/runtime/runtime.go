// Package runtime provides the small ambient capabilities (clock, id
// generation) that are dependency-injected so tests can pin time and ids.
package runtime

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints identifiers for records and runs.
type IDGenerator interface {
	// NewRecordID returns an id for a persistent record.
	NewRecordID() string

	// NewRunID returns an id for an orchestrator run.
	NewRunID() string
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator mints random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewRecordID() string { return uuid.NewString() }

func (UUIDGenerator) NewRunID() string { return uuid.NewString() }
