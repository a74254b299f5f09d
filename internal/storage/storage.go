package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	orderKeyPrefix  = "order_"
	statusKeyPrefix = "table_status_"
)

// Record is one persisted key-value row. Values are JSON-encoded so any
// serializable payload fits the same table.
type Record struct {
	Key              string `gorm:"column:key;primaryKey;size:190;not null"`
	ValueJSON        string `gorm:"column:value_json;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "pos_records"
}

// OrderKey returns the storage key holding a table's order list.
func OrderKey(tableID string) string {
	return orderKeyPrefix + tableID
}

// StatusKey returns the storage key holding a table's occupancy status.
func StatusKey(tableID string) string {
	return statusKeyPrefix + tableID
}

// Store reads and writes JSON values against the persistent client store.
// Failures are logged and swallowed: a failed write is a no-op, a failed
// read leaves the caller's default in place. The in-memory registry stays
// responsive either way.
type Store struct {
	db     *gorm.DB
	clock  func() int64
	logger *zap.Logger
}

// Config carries Store dependencies.
type Config struct {
	Database *gorm.DB
	// Clock returns unix seconds; defaults to wall time.
	Clock  func() int64
	Logger *zap.Logger
}

var errMissingDatabase = errors.New("storage: database handle is required")

// New constructs a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: cfg.Database, clock: cfg.Clock, logger: logger}, nil
}

// Put serializes value under key, overwriting any prior row. Returns false
// when the write did not happen.
func (s *Store) Put(ctx context.Context, key string, value any) bool {
	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("storage write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	record := Record{Key: key, ValueJSON: string(encoded), UpdatedAtSeconds: s.now()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(&record).Error
	if err != nil {
		s.logger.Error("storage write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Get decodes the value stored under key into out. Returns false when the
// key is absent or unreadable; out is left untouched in that case.
func (s *Store) Get(ctx context.Context, key string, out any) bool {
	var record Record
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if err != nil {
		s.logger.Error("storage read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal([]byte(record.ValueJSON), out); err != nil {
		s.logger.Error("storage value corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Delete removes the row under key. Absent keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) bool {
	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&Record{}).Error
	if err != nil {
		s.logger.Error("storage delete failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) now() int64 {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now().Unix()
}
