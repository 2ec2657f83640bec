package store

import (
	"context"

	"gorm.io/gorm/clause"
)

// The occupancy flip is a store-side contract: inserting an allocation marks
// the spot occupied in the same transaction as the insert. The gateway
// verifies the trigger exists by installing it at migration time instead of
// assuming it.
const occupancyTrigger = `
CREATE OR REPLACE FUNCTION mark_spot_occupied() RETURNS trigger AS $$
BEGIN
    UPDATE spots SET occupied = TRUE WHERE code = NEW.spot_code;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS allocations_mark_occupied ON allocations;
CREATE TRIGGER allocations_mark_occupied
AFTER INSERT ON allocations
FOR EACH ROW EXECUTE FUNCTION mark_spot_occupied();
`

// Migrate creates the schema and installs the occupancy trigger.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&SensorEventRecord{},
		&PlateAuthorization{},
		&Spot{},
		&AllocationRow{},
	); err != nil {
		return err
	}
	return db.Exec(occupancyTrigger).Error
}

// SeedDemo loads the demo registry and spot layout used for local runs:
// one authorized plate and a small mixed-class lot around gate-1.
func (s *Store) SeedDemo(ctx context.Context) error {
	plates := []PlateAuthorization{
		{Plate: "SBA1234", Class: "GENERAL", Active: true},
		{Plate: "SBA9999", Class: "ACCESSIBLE", Active: true},
	}
	spots := []Spot{
		{Code: "G1", X: 8, Y: 4, Class: "GENERAL"},
		{Code: "G2", X: 5, Y: 3, Class: "GENERAL"},
		{Code: "G3", X: 2, Y: 2, Class: "GENERAL"},
		{Code: "G4", X: 12, Y: 7, Class: "GENERAL"},
		{Code: "A1", X: 1, Y: 3, Class: "ACCESSIBLE"},
		{Code: "A2", X: 3, Y: 6, Class: "ACCESSIBLE"},
	}
	db := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
	if err := db.Create(&plates).Error; err != nil {
		return err
	}
	return db.Create(&spots).Error
}
