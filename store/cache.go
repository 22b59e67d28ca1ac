package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alwitt/witness/db"
	"github.com/alwitt/witness/models"
	"github.com/apex/log"
	"gorm.io/gorm"
)

/*
SaveToCache cache a document under a key with a TTL

	@param ctx context.Context - execution context
	@param key string - cache key
	@param document interface{} - JSON-serializable payload
	@param ttl time.Duration - time until the entry expires
*/
func (s *deviceStoreImpl) SaveToCache(
	ctx context.Context, key string, document interface{}, ttl time.Duration,
) error {
	payload, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("cache document for '%s' not serializable [%w]", key, err)
	}

	now := s.timeSource()
	entry := models.CacheEntry{
		Key:       key,
		Payload:   payload,
		WrittenAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.SetCacheEntry(dbCtx, entry)
		},
	); dbErr != nil {
		return fmt.Errorf("cache write for '%s' failed [%w]", key, dbErr)
	}

	return nil
}

/*
GetFromCache read a cached document.

A read at or past the entry's expiry is a miss, and evicts the entry.
Stale data is never returned.

	@param ctx context.Context - execution context
	@param key string - cache key
	@param target interface{} - unmarshal destination for the payload
	@returns whether the key was present and fresh
*/
func (s *deviceStoreImpl) GetFromCache(
	ctx context.Context, key string, target interface{},
) (bool, error) {
	var entry models.CacheEntry
	found := false

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entry, err = dbClient.GetCacheEntry(dbCtx, key)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}

			if !s.timeSource().Before(entry.ExpiresAt) {
				// Expired. Evict, and report a miss.
				if err := dbClient.DeleteCacheEntry(dbCtx, key); err != nil {
					log.
						WithError(err).
						WithFields(s.LogTags).
						WithField("key", key).
						Warn("Expired cache entry eviction failed")
				}
				return nil
			}

			found = true
			return nil
		},
	); dbErr != nil {
		return false, fmt.Errorf("cache read for '%s' failed [%w]", key, dbErr)
	}

	if !found {
		return false, nil
	}

	if err := json.Unmarshal(entry.Payload, target); err != nil {
		return false, fmt.Errorf("cached document for '%s' not parsable [%w]", key, err)
	}

	return true, nil
}

/*
RemoveFromCache drop a cached document. Removing an absent key is a no-op.

	@param ctx context.Context - execution context
	@param key string - cache key
*/
func (s *deviceStoreImpl) RemoveFromCache(ctx context.Context, key string) error {
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.DeleteCacheEntry(dbCtx, key)
		},
	); dbErr != nil {
		return fmt.Errorf("cache remove for '%s' failed [%w]", key, dbErr)
	}
	return nil
}
