// Package alloc assigns arriving vehicles to parking spots. It snapshots the
// free spots for the requested class, finds the nearest candidate through a
// freshly built spatial index and commits the assignment transactionally.
// The store's unique constraints are the final arbiter of spot exclusivity:
// a stale snapshot costs a wasted attempt, never a double assignment.
package alloc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alfosobral/UniParking/core/logger"
	"github.com/alfosobral/UniParking/core/model"
	"github.com/alfosobral/UniParking/core/spotindex"
)

// ErrConflict is returned by SpotStore.InsertAllocation when the chosen spot
// or the plate was raced by a concurrent allocation.
var ErrConflict = errors.New("allocation conflict")

// SpotStore is the persistent collaborator. InsertAllocation must insert
// atomically, flipping the spot's occupancy as a side effect, and report
// ErrConflict on a uniqueness violation.
type SpotStore interface {
	FreeSpots(ctx context.Context, class model.VehicleClass) ([]model.FreeSpot, error)
	InsertAllocation(ctx context.Context, a model.Allocation) error
}

// Outcome is the terminal state of one allocation attempt. The four values
// are mutually exclusive and exhaustive.
type Outcome string

const (
	OutcomeAssigned    Outcome = "ASSIGNED"
	OutcomeNoCandidate Outcome = "NO_CANDIDATE"
	OutcomeConflict    Outcome = "CONFLICT"
	OutcomeError       Outcome = "ERROR"
)

// Request describes one allocation attempt. Gate is the reference point the
// nearest-spot query measures from.
type Request struct {
	Plate string
	Class model.VehicleClass
	Gate  spotindex.Point
}

// Result carries the outcome of an attempt. SpotCode is set only for
// OutcomeAssigned; Err only for OutcomeConflict and OutcomeError.
type Result struct {
	Outcome  Outcome
	SpotCode string
	Err      error
}

// Allocator resolves a vehicle class to a concrete spot.
type Allocator struct {
	store SpotStore
	log   logger.Logger
}

// New creates an Allocator backed by the given store.
func New(store SpotStore, log logger.Logger) *Allocator {
	return &Allocator{store: store, log: log}
}

// Allocate performs one snapshot-query-commit cycle. A lost commit race is
// reported as OutcomeConflict and is not retried: the barrier is already
// open and reconciliation is an operator concern.
func (a *Allocator) Allocate(ctx context.Context, req Request) Result {
	free, err := a.store.FreeSpots(ctx, req.Class)
	if err != nil {
		return Result{Outcome: OutcomeError, Err: fmt.Errorf("snapshot free spots: %w", err)}
	}
	if len(free) == 0 {
		a.log.Infof("no free %s spot for plate %s", req.Class, req.Plate)
		return Result{Outcome: OutcomeNoCandidate}
	}

	codes := spotindex.Build(free).Nearest(req.Gate, 1)
	if len(codes) == 0 {
		return Result{Outcome: OutcomeNoCandidate}
	}
	chosen := codes[0]

	err = a.store.InsertAllocation(ctx, model.Allocation{
		SpotCode:   chosen,
		Plate:      req.Plate,
		AssignedAt: time.Now().UTC(),
	})
	switch {
	case err == nil:
		a.log.Debugw("spot assigned", map[string]any{"spot": chosen, "plate": req.Plate})
		return Result{Outcome: OutcomeAssigned, SpotCode: chosen}
	case errors.Is(err, ErrConflict):
		a.log.Warnf("allocation race lost for spot %s plate %s", chosen, req.Plate)
		return Result{Outcome: OutcomeConflict, Err: err}
	default:
		return Result{Outcome: OutcomeError, Err: fmt.Errorf("insert allocation: %w", err)}
	}
}
