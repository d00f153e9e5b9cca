// Package sqlrecords stores remote collection records in PostgreSQL through
// gorm. One row holds one (owner, kind) snapshot; writes are upserts.
package sqlrecords

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/remote"
)

// collectionRecord is the row model. The composite primary key mirrors
// remote.RecordKey.
type collectionRecord struct {
	OwnerKey  string    `gorm:"column:owner_key;primaryKey;size:255"`
	Kind      int       `gorm:"column:kind;primaryKey;autoIncrement:false"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false;not null"`
}

func (collectionRecord) TableName() string { return "collection_records" }

// Store implements remote.RecordStore on a gorm connection.
type Store struct {
	db *gorm.DB
}

// Config returns the gorm configuration the store expects: no implicit
// transaction around single-statement writes and a silent SQL logger.
func Config() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}
}

// Open connects to PostgreSQL using dsn.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return nil, fmt.Errorf("sqlrecords: open: %w", err)
	}
	return New(db), nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the records table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&collectionRecord{}); err != nil {
		return fmt.Errorf("sqlrecords: migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetRecord implements remote.RecordStore.
func (s *Store) GetRecord(ctx context.Context, key remote.RecordKey) (remote.Record, error) {
	var row collectionRecord
	err := s.db.WithContext(ctx).
		Where("owner_key = ? AND kind = ?", key.Owner, int(key.Kind)).
		Take(&row).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return remote.Record{}, fmt.Errorf("sqlrecords: %w", remote.ErrRecordNotFound)
	}
	if err != nil {
		return remote.Record{}, fmt.Errorf("sqlrecords: get: %w", err)
	}

	return remote.Record{
		Key:       remote.RecordKey{Owner: row.OwnerKey, Kind: collection.Kind(row.Kind)},
		Payload:   []byte(row.Payload),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

// PutRecord implements remote.RecordStore. An existing row for the key is
// replaced.
func (s *Store) PutRecord(ctx context.Context, rec remote.Record) error {
	if rec.Key.Owner == "" {
		return remote.Rejected(errors.New("sqlrecords: owner key is empty"))
	}

	row := collectionRecord{
		OwnerKey:  rec.Key.Owner,
		Kind:      int(rec.Key.Kind),
		Payload:   string(rec.Payload),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_key"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlrecords: put: %w", err)
	}
	return nil
}
