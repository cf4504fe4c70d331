package migrations

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/Anirudh9794/container-service-extension/internal/logger"
)

// Migration represents a database migration
type Migration struct {
	ID          string    `gorm:"primaryKey"`
	AppliedAt   time.Time `gorm:"not null"`
	Description string    `gorm:"not null"`
}

// MigrationFunc represents a migration function
type MigrationFunc func(*gorm.DB) error

// MigrationDefinition represents a single migration with up and down functions
type MigrationDefinition struct {
	ID          string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// Migrator handles database migrations
type Migrator struct {
	db         *gorm.DB
	logger     logger.Interface
	migrations []MigrationDefinition
}

// NewMigrator creates a new migration manager
func NewMigrator(db *gorm.DB, logger logger.Interface) *Migrator {
	return &Migrator{
		db:         db,
		logger:     logger,
		migrations: getAllMigrations(),
	}
}

// EnsureMigrationTable creates the migrations table if it doesn't exist
func (m *Migrator) EnsureMigrationTable() error {
	if err := m.db.AutoMigrate(&Migration{}); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// ValidateMigrationOrder verifies migration IDs are unique and sortable
func (m *Migrator) ValidateMigrationOrder() error {
	seen := make(map[string]bool, len(m.migrations))
	for _, migration := range m.migrations {
		if migration.ID == "" {
			return fmt.Errorf("migration with empty ID: %s", migration.Description)
		}
		if seen[migration.ID] {
			return fmt.Errorf("duplicate migration ID: %s", migration.ID)
		}
		seen[migration.ID] = true
	}
	return nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	if err := m.EnsureMigrationTable(); err != nil {
		return err
	}

	applied, err := m.appliedMap()
	if err != nil {
		return err
	}

	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].ID < m.migrations[j].ID
	})

	for _, migration := range m.migrations {
		if applied[migration.ID] {
			m.logger.WithField("id", migration.ID).Debug("Migration already applied")
			continue
		}

		m.logger.WithFields(map[string]interface{}{
			"id":          migration.ID,
			"description": migration.Description,
		}).Info("Applying migration")

		err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.ID, err)
			}

			record := Migration{
				ID:          migration.ID,
				AppliedAt:   time.Now().UTC(),
				Description: migration.Description,
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.ID, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		m.logger.WithField("id", migration.ID).Info("Migration applied successfully")
	}

	return nil
}

// Down rolls back the last applied migration
func (m *Migrator) Down() error {
	if err := m.EnsureMigrationTable(); err != nil {
		return err
	}

	var last Migration
	if err := m.db.Order("id desc").First(&last).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			m.logger.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to find last migration: %w", err)
	}

	var def *MigrationDefinition
	for i := range m.migrations {
		if m.migrations[i].ID == last.ID {
			def = &m.migrations[i]
			break
		}
	}
	if def == nil {
		return fmt.Errorf("no definition found for applied migration %s", last.ID)
	}

	m.logger.WithField("id", def.ID).Info("Rolling back migration")

	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := def.Down(tx); err != nil {
			return fmt.Errorf("rollback of migration %s failed: %w", def.ID, err)
		}
		if err := tx.Delete(&Migration{}, "id = ?", def.ID).Error; err != nil {
			return fmt.Errorf("failed to remove migration record %s: %w", def.ID, err)
		}
		return nil
	})
}

// MigrationStatus describes one migration's applied state
type MigrationStatus struct {
	ID          string
	Description string
	Applied     bool
	AppliedAt   *time.Time
}

// Status returns the applied state of every known migration
func (m *Migrator) Status() ([]MigrationStatus, error) {
	if err := m.EnsureMigrationTable(); err != nil {
		return nil, err
	}

	var applied []Migration
	if err := m.db.Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	appliedAt := make(map[string]time.Time, len(applied))
	for _, record := range applied {
		appliedAt[record.ID] = record.AppliedAt
	}

	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].ID < m.migrations[j].ID
	})

	statuses := make([]MigrationStatus, 0, len(m.migrations))
	for _, def := range m.migrations {
		status := MigrationStatus{ID: def.ID, Description: def.Description}
		if at, ok := appliedAt[def.ID]; ok {
			status.Applied = true
			status.AppliedAt = &at
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Reset rolls back every applied migration and reapplies all of them
func (m *Migrator) Reset() error {
	if err := m.EnsureMigrationTable(); err != nil {
		return err
	}

	var applied []Migration
	if err := m.db.Order("id desc").Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for range applied {
		if err := m.Down(); err != nil {
			return err
		}
	}

	return m.Up()
}

func (m *Migrator) appliedMap() (map[string]bool, error) {
	var applied []Migration
	if err := m.db.Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	result := make(map[string]bool, len(applied))
	for _, migration := range applied {
		result[migration.ID] = true
	}
	return result, nil
}
