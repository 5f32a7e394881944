// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/jmoiron/sqlx"
)

var (
	activityCacheRepoOnce     sync.Once
	activityCacheRepoInstance *ActivityCacheRepository
)

// ActivityCacheRepository indexes the on-disk analytics result cache
// (SPEC_FULL §4.13's "tier 2" cache, keyed on activity_id+cache_key).
type ActivityCacheRepository struct {
	DB *sqlx.DB
}

func GetActivityCacheRepository() *ActivityCacheRepository {
	activityCacheRepoOnce.Do(func() {
		activityCacheRepoInstance = &ActivityCacheRepository{DB: GetConnection().DB}
	})
	return activityCacheRepoInstance
}

// GetActive returns the single active entry for (activityID, cacheKey),
// or apperror.NotFound if none is active (either never written or
// invalidated).
func (r *ActivityCacheRepository) GetActive(activityID int64, cacheKey string) (*schema.CacheEntry, error) {
	e := &schema.CacheEntry{}
	var expiresAt sql.NullTime
	var metadata sql.NullString
	err := sq.Select("activity_id", "cache_key", "file_path", "file_size", "created_at",
		"updated_at", "expires_at", "is_active", "cache_metadata").
		From("tb_activity_cache").
		Where(sq.Eq{"activity_id": activityID, "cache_key": cacheKey, "is_active": true}).
		RunWith(r.DB).QueryRow().
		Scan(&e.ActivityID, &e.CacheKey, &e.FilePath, &e.FileSize, &e.CreatedAt,
			&e.UpdatedAt, &expiresAt, &e.IsActive, &metadata)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("no active cache entry for activity %d key %q", activityID, cacheKey)
	}
	if err != nil {
		log.Errorf("GetActive(%d, %s): %v", activityID, cacheKey, err)
		return nil, apperror.Internal(err, "querying cache entry")
	}
	if expiresAt.Valid {
		e.ExpiresAt = &expiresAt.Time
	}
	e.MetadataRaw = metadata.String
	return e, nil
}

// Put upserts the active entry for (activityID, cacheKey), replacing
// whatever was previously active (§4.13: writes are idempotent per key).
func (r *ActivityCacheRepository) Put(e *schema.CacheEntry) error {
	now := time.Now().UTC()
	_, err := r.DB.Exec(`
		INSERT INTO tb_activity_cache
			(activity_id, cache_key, file_path, file_size, created_at, updated_at, expires_at, is_active, cache_metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(activity_id, cache_key) DO UPDATE SET
			file_path = excluded.file_path,
			file_size = excluded.file_size,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at,
			is_active = 1,
			cache_metadata = excluded.cache_metadata`,
		e.ActivityID, e.CacheKey, e.FilePath, e.FileSize, now, now, e.ExpiresAt, e.MetadataRaw)
	if err != nil {
		log.Errorf("Put(%d, %s): %v", e.ActivityID, e.CacheKey, err)
		return apperror.Internal(err, "upserting cache entry")
	}
	return nil
}

// LatestActive returns the most recently updated active entry for an
// activity regardless of cache key, the row per-metric reads go
// through.
func (r *ActivityCacheRepository) LatestActive(activityID int64) (*schema.CacheEntry, error) {
	e := &schema.CacheEntry{}
	var expiresAt sql.NullTime
	var metadata sql.NullString
	err := sq.Select("activity_id", "cache_key", "file_path", "file_size", "created_at",
		"updated_at", "expires_at", "is_active", "cache_metadata").
		From("tb_activity_cache").
		Where(sq.Eq{"activity_id": activityID, "is_active": true}).
		OrderBy("updated_at DESC").Limit(1).
		RunWith(r.DB).QueryRow().
		Scan(&e.ActivityID, &e.CacheKey, &e.FilePath, &e.FileSize, &e.CreatedAt,
			&e.UpdatedAt, &expiresAt, &e.IsActive, &metadata)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("no active cache entry for activity %d", activityID)
	}
	if err != nil {
		log.Errorf("LatestActive(%d): %v", activityID, err)
		return nil, apperror.Internal(err, "querying latest cache entry")
	}
	if expiresAt.Valid {
		e.ExpiresAt = &expiresAt.Time
	}
	e.MetadataRaw = metadata.String
	return e, nil
}

// AllForActivity lists every row (active or not) for one activity,
// used when invalidation needs to unlink the files behind them.
func (r *ActivityCacheRepository) AllForActivity(activityID int64) ([]*schema.CacheEntry, error) {
	rows, err := sq.Select("activity_id", "cache_key", "file_path", "file_size", "created_at",
		"updated_at", "expires_at", "is_active", "cache_metadata").
		From("tb_activity_cache").
		Where(sq.Eq{"activity_id": activityID}).
		RunWith(r.DB).Query()
	if err != nil {
		log.Errorf("AllForActivity(%d): %v", activityID, err)
		return nil, apperror.Internal(err, "querying cache entries")
	}
	defer rows.Close()
	return scanCacheEntries(rows)
}

// ActivityIDs lists the distinct activities with any cache row.
func (r *ActivityCacheRepository) ActivityIDs() ([]int64, error) {
	rows, err := sq.Select("DISTINCT activity_id").From("tb_activity_cache").
		RunWith(r.DB).Query()
	if err != nil {
		log.Errorf("ActivityIDs: %v", err)
		return nil, apperror.Internal(err, "querying cached activity ids")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperror.Internal(err, "scanning activity id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Invalidate marks every cache row for an activity inactive, without
// deleting it — the background sweeper reclaims the file later.
func (r *ActivityCacheRepository) Invalidate(activityID int64) error {
	_, err := sq.Update("tb_activity_cache").Set("is_active", false).
		Where(sq.Eq{"activity_id": activityID}).RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("Invalidate(%d): %v", activityID, err)
		return apperror.Internal(err, "invalidating cache entries")
	}
	return nil
}

// Expired lists inactive or time-expired rows for the sweeper to
// reclaim from disk.
func (r *ActivityCacheRepository) Expired(now time.Time) ([]*schema.CacheEntry, error) {
	rows, err := sq.Select("activity_id", "cache_key", "file_path", "file_size", "created_at",
		"updated_at", "expires_at", "is_active", "cache_metadata").
		From("tb_activity_cache").
		Where(sq.Or{sq.Eq{"is_active": false}, sq.Lt{"expires_at": now}}).
		RunWith(r.DB).Query()
	if err != nil {
		log.Errorf("Expired: %v", err)
		return nil, apperror.Internal(err, "querying expired cache entries")
	}
	defer rows.Close()
	return scanCacheEntries(rows)
}

func scanCacheEntries(rows *sql.Rows) ([]*schema.CacheEntry, error) {
	var out []*schema.CacheEntry
	for rows.Next() {
		e := &schema.CacheEntry{}
		var expiresAt sql.NullTime
		var metadata sql.NullString
		if err := rows.Scan(&e.ActivityID, &e.CacheKey, &e.FilePath, &e.FileSize, &e.CreatedAt,
			&e.UpdatedAt, &expiresAt, &e.IsActive, &metadata); err != nil {
			return nil, apperror.Internal(err, "scanning cache entry row")
		}
		if expiresAt.Valid {
			e.ExpiresAt = &expiresAt.Time
		}
		e.MetadataRaw = metadata.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes a row outright, called by the sweeper once the file
// behind it has been unlinked.
func (r *ActivityCacheRepository) Delete(activityID int64, cacheKey string) error {
	_, err := sq.Delete("tb_activity_cache").
		Where(sq.Eq{"activity_id": activityID, "cache_key": cacheKey}).RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("Delete(%d, %s): %v", activityID, cacheKey, err)
		return apperror.Internal(err, "deleting cache entry")
	}
	return nil
}
