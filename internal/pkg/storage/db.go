package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Entry is one persisted key/value row.
type Entry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

// TableName implements gorm's table naming override.
func (Entry) TableName() string { return "kv_entries" }

// DB is the SQLite-backed Store used by real hosts.
type DB struct {
	db *gorm.DB
}

// Open opens (creating if needed) the store at path and ensures the
// schema exists. Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Get(key string, dst any) error {
	var e Entry
	err := d.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(e.Value), dst)
}

func (d *DB) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := Entry{Key: key, Value: string(raw)}
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&e).Error
}

func (d *DB) Delete(key string) error {
	return d.db.Delete(&Entry{}, "key = ?", key).Error
}

func (d *DB) Has(key string) bool {
	var n int64
	if err := d.db.Model(&Entry{}).Where("key = ?", key).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}
