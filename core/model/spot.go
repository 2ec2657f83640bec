package model

import "time"

// VehicleClass categorizes spots and the vehicles allowed to use them.
type VehicleClass string

const (
	ClassGeneral    VehicleClass = "GENERAL"
	ClassAccessible VehicleClass = "ACCESSIBLE"
)

// FreeSpot is a snapshot row of a currently unoccupied parking spot on the
// facility plane.
type FreeSpot struct {
	Code  string       `json:"code"`
	X     float64      `json:"x"`
	Y     float64      `json:"y"`
	Class VehicleClass `json:"class"`
}

// Allocation ties a plate to a spot. Rows are inserted by the allocator and
// released by an external process, never by this system.
type Allocation struct {
	SpotCode   string    `json:"spot_code"`
	Plate      string    `json:"plate"`
	AssignedAt time.Time `json:"assigned_at"`
}
