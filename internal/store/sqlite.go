package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ Backend = (*SQLiteBackend)(nil)

// Entry is a single key-value pair persisted in sqlite.
type Entry struct {
	Key       string `gorm:"column:storage_key;primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName overrides the gorm table name.
func (Entry) TableName() string {
	return "kv_entries"
}

// SQLiteBackend persists the store in a sqlite database file.
type SQLiteBackend struct {
	db *gorm.DB
}

// NewSQLiteBackend opens (or creates) the database at path and migrates it.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	if err := b.db.WithContext(ctx).Where("storage_key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value}
	return b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	return b.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&Entry{}).Error
}

// Keys returns every stored key in lexical order.
func (b *SQLiteBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := b.db.WithContext(ctx).Model(&Entry{}).Order("storage_key").Pluck("storage_key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Entries returns every stored entry ordered by key.
func (b *SQLiteBackend) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := b.db.WithContext(ctx).Order("storage_key").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
