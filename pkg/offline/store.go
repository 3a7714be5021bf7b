// Package offline is the client-side kit for the portal's offline-first
// behavior: a durable record cache, a FIFO queue of pending writes, a
// connectivity monitor and the coordinator that drains the queue against
// the sync endpoint on reconnect.
package offline

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// CachedRecord is one cached copy of a server entity, keyed by entity type
// ("store") and the record's natural identifier. It is overwritten on every
// successful remote fetch and never mutated by local-only writes.
type CachedRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Store     string `gorm:"uniqueIndex:idx_store_key;size:64"`
	Key       string `gorm:"uniqueIndex:idx_store_key;size:128"`
	Payload   string `gorm:"type:text"`
	UpdatedAt time.Time
}

// QueueItem is one pending write captured while offline.
type QueueItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Type      string `gorm:"size:32"`
	Payload   string `gorm:"type:text"`
	CreatedAt time.Time
}

// DB is the sqlite-backed persistence shared by Store and Queue.
type DB struct {
	db *gorm.DB
}

// Open opens (or creates) the offline database at path. Use ":memory:" style
// DSNs in tests.
func Open(path string) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open offline db: %w", err)
	}
	if err := db.AutoMigrate(&CachedRecord{}, &QueueItem{}); err != nil {
		return nil, fmt.Errorf("migrate offline db: %w", err)
	}
	return &DB{db: db}, nil
}

// Store is the local record cache. When the underlying engine is
// unavailable every operation degrades to a no-op: callers must treat
// absence as "unknown", not "does not exist".
type Store struct {
	db *DB
}

// NewStore returns a cache over db. A nil db yields a degraded store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) available() bool {
	return s != nil && s.db != nil && s.db.db != nil
}

// Put upserts one record under its natural key.
func (s *Store) Put(store, key string, value interface{}) error {
	if !s.available() {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	record := CachedRecord{Store: store, Key: key, Payload: string(payload), UpdatedAt: time.Now()}
	return s.db.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&record).Error
}

// PutMany upserts a batch of records. Each entry maps natural key to value.
func (s *Store) PutMany(store string, records map[string]interface{}) error {
	if !s.available() {
		return nil
	}
	for key, value := range records {
		if err := s.Put(store, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Get loads the record under key into dest. The second return is false when
// the record is absent or the engine is unavailable.
func (s *Store) Get(store, key string, dest interface{}) (bool, error) {
	if !s.available() {
		return false, nil
	}
	var record CachedRecord
	err := s.db.db.Where("store = ? AND key = ?", store, key).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if dest != nil {
		if err := json.Unmarshal([]byte(record.Payload), dest); err != nil {
			return false, fmt.Errorf("unmarshal record: %w", err)
		}
	}
	return true, nil
}

// GetAll returns every cached record of a store as raw JSON payloads.
func (s *Store) GetAll(store string) ([]json.RawMessage, error) {
	if !s.available() {
		return nil, nil
	}
	var records []CachedRecord
	if err := s.db.db.Where("store = ?", store).Order("key").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		out = append(out, json.RawMessage(r.Payload))
	}
	return out, nil
}
