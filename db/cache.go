package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/witness/models"
	"gorm.io/gorm/clause"
)

/*
SetCacheEntry upsert a TTL cache entry

	@param ctx context.Context - execution context
	@param entry models.CacheEntry - the entry
*/
func (d *databaseImpl) SetCacheEntry(_ context.Context, entry models.CacheEntry) error {
	newEntry := CacheEntryDBEntry{CacheEntry: entry}

	if err := d.validator.Struct(&newEntry); err != nil {
		return fmt.Errorf("new cache entry '%s' is not valid [%w]", entry.Key, err)
	}

	if tmp := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&newEntry); tmp.Error != nil {
		return fmt.Errorf("cache entry '%s' upsert failed [%w]", entry.Key, tmp.Error)
	}

	return nil
}

/*
GetCacheEntry fetch a TTL cache entry by key.

Expiry is not interpreted here; the store layer decides staleness.

	@param ctx context.Context - execution context
	@param key string - cache key
	@returns the entry
*/
func (d *databaseImpl) GetCacheEntry(
	_ context.Context, key string,
) (models.CacheEntry, error) {
	var entry CacheEntryDBEntry
	if tmp := d.db.Where("key = ?", key).First(&entry); tmp.Error != nil {
		return models.CacheEntry{}, fmt.Errorf("failed to fetch cache entry '%s' [%w]", key, tmp.Error)
	}

	return entry.CacheEntry, nil
}

/*
DeleteCacheEntry delete a TTL cache entry. Deleting an absent key is a no-op.

	@param ctx context.Context - execution context
	@param key string - cache key
*/
func (d *databaseImpl) DeleteCacheEntry(_ context.Context, key string) error {
	if tmp := d.db.Where("key = ?", key).Delete(&CacheEntryDBEntry{}); tmp.Error != nil {
		return fmt.Errorf("failed to delete cache entry '%s' [%w]", key, tmp.Error)
	}
	return nil
}

/*
PurgeExpiredCacheEntries remove every cache entry expired as of a timestamp

	@param ctx context.Context - execution context
	@param now time.Time - the reference timestamp
	@returns number of entries removed
*/
func (d *databaseImpl) PurgeExpiredCacheEntries(
	_ context.Context, now time.Time,
) (int64, error) {
	tmp := d.db.Where("expires_at <= ?", now).Delete(&CacheEntryDBEntry{})
	if tmp.Error != nil {
		return 0, fmt.Errorf("failed to purge expired cache entries [%w]", tmp.Error)
	}
	return tmp.RowsAffected, nil
}
