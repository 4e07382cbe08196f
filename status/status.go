// Package status tracks the in-flight state of asynchronous scheduling
// requests, keyed by a session+query composite.
package status

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"
)

// Stage is one step of the background scheduling pipeline
type Stage string

const (
	StageReceived     Stage = "received"
	StageClassify     Stage = "classify"
	StagePreferences  Stage = "preferences"
	StageAvailability Stage = "availability"
	StageCreate       Stage = "create"
	StageDone         Stage = "done"
)

// stageOrder enforces monotonic progression: a status never regresses to
// an earlier stage
var stageOrder = map[Stage]int{
	StageReceived:     0,
	StageClassify:     1,
	StagePreferences:  2,
	StageAvailability: 3,
	StageCreate:       4,
	StageDone:         5,
}

// ErrStageRegression indicates an attempt to move a status to an earlier
// stage than its current one
var ErrStageRegression = errors.New("status stage would regress")

// ErrUnknownStage indicates a stage outside the fixed sequence
var ErrUnknownStage = errors.New("unknown status stage")

// ProcessingStatus is the polled record for one scheduling request.
// Complete marks the terminal state; Response or Error is set then.
type ProcessingStatus struct {
	Stage     Stage     `json:"stage"`
	Message   string    `json:"message"`
	Complete  bool      `json:"complete"`
	Response  any       `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the abstraction over the status map. Implementations must
// serialize access per key; concurrent requests with different keys must
// not block each other. Completed entries are evicted after the
// configured TTL.
type Store interface {
	// Get returns the status for key, reporting whether it exists
	Get(ctx context.Context, key string) (*ProcessingStatus, bool, error)

	// Advance moves the status to stage with the given message, creating
	// the record if absent. Moving to an earlier stage fails with
	// ErrStageRegression.
	Advance(ctx context.Context, key string, stage Stage, message string) error

	// Complete marks the status terminal with a successful response
	Complete(ctx context.Context, key string, response any) error

	// Fail marks the status terminal with an error message
	Fail(ctx context.Context, key string, message string) error

	// Close releases store resources
	Close() error
}

// Key derives the composite key for a session and query. The query is
// hashed so keys stay bounded regardless of utterance length.
func Key(sessionID, query string) string {
	digest := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s:%x", sessionID, digest[:8])
}

// failureStage returns the stage to record on Fail: the stage the request
// was in when it failed, or StageDone when no in-flight record exists
func failureStage(current *ProcessingStatus) Stage {
	if current != nil && !current.Complete {
		return current.Stage
	}
	return StageDone
}

// inflightTTL bounds how long a non-terminal entry may outlive its writer.
// A terminal write replaces it with the configured TTL.
func inflightTTL(ttl time.Duration) time.Duration {
	return 6 * ttl
}

// advanceFrom validates a transition from the current status (nil when the
// record does not exist yet) to the requested stage
func advanceFrom(current *ProcessingStatus, stage Stage) error {
	order, ok := stageOrder[stage]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}
	if current == nil {
		return nil
	}
	if stageOrder[current.Stage] > order {
		return fmt.Errorf("%w: %s -> %s", ErrStageRegression, current.Stage, stage)
	}
	return nil
}
