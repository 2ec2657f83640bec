package store

import "time"

// SensorEventRecord is the append-only event log row. The primary key doubles
// as the dedup set: an id present here has been saved exactly once.
type SensorEventRecord struct {
	EventID   string    `gorm:"primaryKey;size:64"`
	DeviceID  string    `gorm:"size:64;index"`
	Timestamp time.Time
	Type      string `gorm:"size:16"`
	Payload   string `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (SensorEventRecord) TableName() string { return "sensor_events" }

// PlateAuthorization is the registry row keyed by normalized plate.
type PlateAuthorization struct {
	Plate  string `gorm:"primaryKey;size:16"`
	Class  string `gorm:"size:16"`
	Active bool
}

func (PlateAuthorization) TableName() string { return "plate_authorizations" }

// Spot is a parking spot on the facility plane. Occupancy is flipped by the
// allocation trigger, never written directly by the gateway.
type Spot struct {
	Code     string `gorm:"primaryKey;size:16"`
	X        float64
	Y        float64
	Class    string `gorm:"size:16;index"`
	Occupied bool
}

func (Spot) TableName() string { return "spots" }

// AllocationRow ties a plate to a spot. The primary key on spot_code and the
// unique index on plate are the arbiter of allocation races.
type AllocationRow struct {
	SpotCode   string `gorm:"primaryKey;size:16"`
	Plate      string `gorm:"uniqueIndex;size:16"`
	AssignedAt time.Time
}

func (AllocationRow) TableName() string { return "allocations" }
