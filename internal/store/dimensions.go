package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/crzdata/congestion-etl/internal/domain"
)

// EnsureEntryPoints inserts any canonical entry point from the alias table
// that is not already present, keyed by name. Existing rows are left
// untouched, so repeated runs are idempotent.
func (s *Store) EnsureEntryPoints(ctx context.Context, defs []domain.EntryPointDef) error {
	if len(defs) == 0 {
		return nil
	}
	rows := make([]EntryPoint, len(defs))
	for i, def := range defs {
		rows[i] = EntryPoint{
			Name:        def.Name,
			Latitude:    def.Lat,
			Longitude:   def.Lon,
			Description: fmt.Sprintf("Entry point at %s", def.Name),
		}
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
}

// EnsureVehicleClasses inserts any observed class name not already present.
// Existing rows are left untouched.
func (s *Store) EnsureVehicleClasses(ctx context.Context, names []string) error {
	rows := make([]VehicleClass, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		rows = append(rows, VehicleClass{
			Name:        name,
			Description: fmt.Sprintf("Vehicle class: %s", name),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
}

// EntryPointIDs returns a point-in-time name→id snapshot for the loader.
func (s *Store) EntryPointIDs(ctx context.Context) (map[string]uint, error) {
	var rows []EntryPoint
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]uint, len(rows))
	for _, row := range rows {
		ids[row.Name] = row.ID
	}
	return ids, nil
}

// VehicleClassIDs returns a point-in-time name→id snapshot for the loader.
func (s *Store) VehicleClassIDs(ctx context.Context) (map[string]uint, error) {
	var rows []VehicleClass
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]uint, len(rows))
	for _, row := range rows {
		ids[row.Name] = row.ID
	}
	return ids, nil
}

// ListEntryPoints returns all entry points ordered by name.
func (s *Store) ListEntryPoints(ctx context.Context) ([]EntryPoint, error) {
	var rows []EntryPoint
	err := s.db.WithContext(ctx).Order("name").Find(&rows).Error
	return rows, err
}

// ListVehicleClasses returns all vehicle classes ordered by name.
func (s *Store) ListVehicleClasses(ctx context.Context) ([]VehicleClass, error) {
	var rows []VehicleClass
	err := s.db.WithContext(ctx).Order("name").Find(&rows).Error
	return rows, err
}
