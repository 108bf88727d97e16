package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cacheRow is one entry of the database backed cache
type cacheRow struct {
	CacheKey  string    `gorm:"column:cache_key;primaryKey;size:255"`
	Payload   []byte    `gorm:"column:payload"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableStore keeps entries in a database table through GORM.
// It has no native expiry, so stale rows stay until overwritten or removed.
type TableStore struct {
	db    *gorm.DB
	table string
}

// NewTableStore creates a store over table; an empty table name uses DefaultTableName
func NewTableStore(db *gorm.DB, table string) *TableStore {
	if table == "" {
		table = DefaultTableName
	}
	return &TableStore{db: db, table: table}
}

// Name implements Store
func (s *TableStore) Name() string { return string(StoreDatabase) }

// Open implements Store by checking the connection
func (s *TableStore) Open(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Store; the connection is owned by the caller
func (s *TableStore) Close() error { return nil }

// Prepare implements Store by creating the cache table
func (s *TableStore) Prepare(ctx context.Context) error {
	return s.tx(ctx).AutoMigrate(&cacheRow{})
}

// Get implements Store
func (s *TableStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row cacheRow
	err := s.tx(ctx).Where("cache_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Payload, true, nil
}

// Set implements Store as an upsert; ttl is ignored
func (s *TableStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	row := cacheRow{CacheKey: key, Payload: value, UpdatedAt: time.Now().UTC()}
	return s.tx(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
}

// Delete implements Store
func (s *TableStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.tx(ctx).Where("cache_key IN ?", keys).Delete(&cacheRow{}).Error
}

// Flush implements Store
func (s *TableStore) Flush(ctx context.Context) error {
	return s.tx(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&cacheRow{}).Error
}

func (s *TableStore) tx(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table)
}
