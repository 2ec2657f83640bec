// Package memory provides an in-memory stand-in for the relational store.
// It backs tests and broker-less development runs and mirrors the Postgres
// contract, including the occupancy flip on allocation insert.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/alfosobral/UniParking/core/alloc"
	"github.com/alfosobral/UniParking/core/model"
)

// Store keeps all tables in mutex-guarded maps. The mutex makes the dedupe
// check-and-insert and the allocation commit atomic, matching what the
// database constraints provide in production.
type Store struct {
	mu         sync.Mutex
	events     map[string]model.SensorEvent
	plates     map[string]model.VehicleClass
	spots      map[string]model.FreeSpot
	occupied   map[string]bool
	bySpot     map[string]model.Allocation
	plateTaken map[string]bool
}

// New creates an empty store.
func New() *Store {
	return &Store{
		events:     make(map[string]model.SensorEvent),
		plates:     make(map[string]model.VehicleClass),
		spots:      make(map[string]model.FreeSpot),
		occupied:   make(map[string]bool),
		bySpot:     make(map[string]model.Allocation),
		plateTaken: make(map[string]bool),
	}
}

// AuthorizePlate registers a plate with its class.
func (s *Store) AuthorizePlate(plate string, class model.VehicleClass) {
	s.mu.Lock()
	s.plates[model.NormalizePlate(plate)] = class
	s.mu.Unlock()
}

// AddSpot registers a free spot.
func (s *Store) AddSpot(spot model.FreeSpot) {
	s.mu.Lock()
	s.spots[spot.Code] = spot
	s.mu.Unlock()
}

// Seen reports whether the event id was recorded.
func (s *Store) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.events[eventID]
	return ok, nil
}

// SaveIfUnseen records the event unless its id exists.
func (s *Store) SaveIfUnseen(_ context.Context, ev model.SensorEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.EventID]; ok {
		return false, nil
	}
	s.events[ev.EventID] = ev
	return true, nil
}

// Events returns how many events were persisted.
func (s *Store) Events() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Resolve answers the authorization point query.
func (s *Store) Resolve(_ context.Context, plate string) (model.VehicleClass, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	class, ok := s.plates[plate]
	return class, ok, nil
}

// FreeSpots snapshots the unoccupied spots of the class.
func (s *Store) FreeSpots(_ context.Context, class model.VehicleClass) ([]model.FreeSpot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FreeSpot
	for code, spot := range s.spots {
		if s.occupied[code] {
			continue
		}
		if class != "" && spot.Class != class {
			continue
		}
		out = append(out, spot)
	}
	return out, nil
}

// InsertAllocation commits the assignment, flipping occupancy like the
// database trigger does. Conflicts mirror the unique constraints.
func (s *Store) InsertAllocation(_ context.Context, a model.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spots[a.SpotCode]; !ok {
		return fmt.Errorf("unknown spot %s", a.SpotCode)
	}
	if s.occupied[a.SpotCode] {
		return fmt.Errorf("spot %s: %w", a.SpotCode, alloc.ErrConflict)
	}
	if _, ok := s.bySpot[a.SpotCode]; ok {
		return fmt.Errorf("spot %s: %w", a.SpotCode, alloc.ErrConflict)
	}
	if s.plateTaken[a.Plate] {
		return fmt.Errorf("plate %s: %w", a.Plate, alloc.ErrConflict)
	}
	s.bySpot[a.SpotCode] = a
	s.plateTaken[a.Plate] = true
	s.occupied[a.SpotCode] = true
	return nil
}

// Allocation returns the allocation committed for a spot, if any.
func (s *Store) Allocation(spotCode string) (model.Allocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.bySpot[spotCode]
	return a, ok
}
