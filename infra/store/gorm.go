// Package store implements the persistent collaborators of the pipeline on
// Postgres: the deduplicating event log, the plate registry and the
// spot/allocation tables.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alfosobral/UniParking/core/alloc"
	"github.com/alfosobral/UniParking/core/logger"
	"github.com/alfosobral/UniParking/core/model"
)

// Config holds the database connection settings.
type Config struct {
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `json:"conn_max_lifetime_minutes"`
}

// SetDefaults applies sane pool defaults.
func (c *Config) SetDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 20
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 10
	}
	if c.ConnMaxLifetimeMinutes == 0 {
		c.ConnMaxLifetimeMinutes = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	return nil
}

// Store is the Postgres-backed implementation of the pipeline's EventRepo,
// AuthResolver and SpotStore ports.
type Store struct {
	db  *gorm.DB
	log logger.Logger
}

// Open connects to Postgres and tunes the connection pool.
func Open(cfg Config, log logger.Logger) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	log.Infof("connected to database")
	return &Store{db: db, log: log}, nil
}

// NewWithDB wraps an existing gorm handle. Used by tests.
func NewWithDB(db *gorm.DB, log logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// Seen reports whether the event id is already recorded.
func (s *Store) Seen(ctx context.Context, eventID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&SensorEventRecord{}).
		Where("event_id = ?", eventID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("dedupe lookup: %w", err)
	}
	return n > 0, nil
}

// SaveIfUnseen inserts the event unless its id exists. The insert-or-ignore
// on the primary key makes the check-and-insert atomic, so concurrent runs
// for the same id resolve to exactly one save.
func (s *Store) SaveIfUnseen(ctx context.Context, ev model.SensorEvent) (bool, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return false, fmt.Errorf("encode payload: %w", err)
	}
	rec := SensorEventRecord{
		EventID:   ev.EventID,
		DeviceID:  ev.DeviceID,
		Timestamp: ev.Timestamp,
		Type:      string(ev.Type),
		Payload:   string(payload),
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("save event: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Resolve looks up a normalized plate. Absence is not an error; it means
// deny.
func (s *Store) Resolve(ctx context.Context, plate string) (model.VehicleClass, bool, error) {
	var row PlateAuthorization
	err := s.db.WithContext(ctx).
		Where("plate = ? AND active", plate).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("plate lookup: %w", err)
	}
	class := model.VehicleClass(row.Class)
	if class == "" {
		class = model.ClassGeneral
	}
	return class, true, nil
}

// FreeSpots snapshots the unoccupied spots, optionally filtered by class.
func (s *Store) FreeSpots(ctx context.Context, class model.VehicleClass) ([]model.FreeSpot, error) {
	q := s.db.WithContext(ctx).Where("occupied = ?", false)
	if class != "" {
		q = q.Where("class = ?", string(class))
	}
	var rows []Spot
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("snapshot spots: %w", err)
	}
	out := make([]model.FreeSpot, len(rows))
	for i, r := range rows {
		out[i] = model.FreeSpot{Code: r.Code, X: r.X, Y: r.Y, Class: model.VehicleClass(r.Class)}
	}
	return out, nil
}

// InsertAllocation commits the assignment in a transaction. The row insert
// relies on the allocations trigger to flip the spot's occupancy; a
// uniqueness violation (spot or plate raced) rolls back and reports
// alloc.ErrConflict.
func (s *Store) InsertAllocation(ctx context.Context, a model.Allocation) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&AllocationRow{
			SpotCode:   a.SpotCode,
			Plate:      a.Plate,
			AssignedAt: a.AssignedAt,
		}).Error
	})
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("spot %s / plate %s: %w", a.SpotCode, a.Plate, alloc.ErrConflict)
	}
	return fmt.Errorf("insert allocation: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
