package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationNormalizeLegacyStatusValues = "2026-08-12_normalize_legacy_status_values"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeLegacyStatusValues, apply: normalizeLegacyStatusValues},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// normalizeLegacyStatusValues rewrites occupancy values persisted by the
// previous front-end, which stored the enum in Spanish.
func normalizeLegacyStatusValues(db *gorm.DB) error {
	renames := map[string]string{
		`"libre"`:     `"free"`,
		`"ocupada"`:   `"occupied"`,
		`"reservada"`: `"reserved"`,
		`"limpieza"`:  `"cleaning"`,
	}
	for legacy, current := range renames {
		err := db.Exec(
			"UPDATE pos_records SET value_json = ? WHERE key LIKE 'table_status_%' AND value_json = ?;",
			current, legacy,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}
