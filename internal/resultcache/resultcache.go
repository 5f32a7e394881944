// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package resultcache is the on-disk tier of the caching substrate:
// one JSON document per (activity, resolution, streamKeys) combination
// plus a database index row, so an assembled composite response never
// has to be recomputed while its inputs are unchanged.
package resultcache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/internal/metrics"
	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

var (
	rcOnce     sync.Once
	rcInstance *ResultCache
)

// ResultCache pairs the cache directory with its DB index.
type ResultCache struct {
	dir  string
	repo *repository.ActivityCacheRepository

	mu      sync.Mutex
	enabled bool
}

// GetResultCache returns the process-wide result cache, creating the
// cache directory on first use.
func GetResultCache() *ResultCache {
	rcOnce.Do(func() {
		dir := config.Keys.CacheDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Errorf("creating result cache dir %s: %v", dir, err)
		}
		rcInstance = &ResultCache{
			dir:     dir,
			repo:    repository.GetActivityCacheRepository(),
			enabled: config.Keys.CacheEnabled,
		}
	})
	return rcInstance
}

// Enabled reports the runtime cache switch.
func (rc *ResultCache) Enabled() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.enabled
}

// SetEnabled flips the runtime switch and persists it to
// .cache_config so a restart keeps the operator's choice.
func (rc *ResultCache) SetEnabled(enabled bool) {
	rc.mu.Lock()
	rc.enabled = enabled
	rc.mu.Unlock()
	if err := config.WriteCacheConfigFile(enabled); err != nil {
		log.Warnf("persisting cache toggle: %v", err)
	}
}

// GenerateKey derives the cache key for one parameter combination:
// md5 of "activity_{id}_" plus the sorted k=v& encoding of
// {resolution, keys}.
func GenerateKey(activityID int64, resolution schema.Resolution, keys []schema.StreamKey) string {
	params := map[string]string{
		"resolution": string(resolution),
	}
	if len(keys) > 0 {
		strs := make([]string, len(keys))
		for i, k := range keys {
			strs[i] = string(k)
		}
		sort.Strings(strs)
		params["keys"] = strings.Join(strs, ",")
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	fmt.Fprintf(&sb, "activity_%d_", activityID)
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('&')
		}
		fmt.Fprintf(&sb, "%s=%s", name, params[name])
	}
	return fmt.Sprintf("%x", md5.Sum([]byte(sb.String())))
}

func (rc *ResultCache) filePath(activityID int64, cacheKey string) string {
	return filepath.Join(rc.dir, fmt.Sprintf("%d_%s.json", activityID, cacheKey))
}

// Get returns the cached composite document for (activity, key), or
// nil without error when the index row or the file is missing.
func (rc *ResultCache) Get(activityID int64, cacheKey string) (json.RawMessage, error) {
	entry, err := rc.repo.GetActive(activityID, cacheKey)
	if err != nil {
		if apperror.IsNotFound(err) {
			metrics.ResultCacheMisses.Inc()
			return nil, nil
		}
		return nil, err
	}

	raw, err := os.ReadFile(entry.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			metrics.ResultCacheMisses.Inc()
			return nil, nil
		}
		return nil, apperror.Internal(err, "reading cache file")
	}
	metrics.ResultCacheHits.Inc()
	return raw, nil
}

// Set serializes the payload to <dir>/<activity>_<key>.json (written
// via temp file + rename) and upserts the index, superseding any
// previously active row for this activity.
func (rc *ResultCache) Set(activityID int64, cacheKey string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperror.Internal(err, "serializing cache payload")
	}

	path := rc.filePath(activityID, cacheKey)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return apperror.Internal(err, "writing cache file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperror.Internal(err, "renaming cache file")
	}

	// one active row per activity: older keys are superseded first
	if err := rc.repo.Invalidate(activityID); err != nil {
		log.Warnf("superseding old cache rows for activity %d: %v", activityID, err)
	}

	return rc.repo.Put(&schema.CacheEntry{
		ActivityID: activityID,
		CacheKey:   cacheKey,
		FilePath:   path,
		FileSize:   int64(len(raw)),
		IsActive:   true,
	})
}

// Invalidate deletes every cache file for an activity (best-effort)
// and marks the index rows inactive.
func (rc *ResultCache) Invalidate(activityID int64) error {
	entries, err := rc.repo.AllForActivity(activityID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.FilePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("removing cache file %s: %v", e.FilePath, err)
		}
	}
	return rc.repo.Invalidate(activityID)
}

// InvalidateAll removes the cache files of every indexed activity and
// marks all index rows inactive.
func (rc *ResultCache) InvalidateAll() error {
	ids, err := rc.repo.ActivityIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := rc.Invalidate(id); err != nil {
			log.Warnf("invalidating cache for activity %d: %v", id, err)
		}
	}
	return nil
}

// CleanupExpired unlinks the files behind inactive or time-expired
// index rows and drops the rows. The scheduler runs this alongside
// the stream-cache sweeper; every step is best-effort.
func (rc *ResultCache) CleanupExpired() {
	entries, err := rc.repo.Expired(time.Now().UTC())
	if err != nil {
		log.Warnf("listing expired cache rows: %v", err)
		return
	}
	for _, e := range entries {
		if err := os.Remove(e.FilePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("removing cache file %s: %v", e.FilePath, err)
			continue
		}
		if err := rc.repo.Delete(e.ActivityID, e.CacheKey); err != nil {
			log.Warnf("deleting cache row %d/%s: %v", e.ActivityID, e.CacheKey, err)
		}
	}
	if len(entries) > 0 {
		log.Debugf("result cache cleanup reclaimed %d entries", len(entries))
	}
}

// GetMetric reads the latest active composite document for an
// activity and returns its top-level field with the given name. Nil
// without error when no document or no such field exists; the
// per-metric endpoints use this to answer without re-analysis.
func (rc *ResultCache) GetMetric(activityID int64, name string) (json.RawMessage, error) {
	entry, err := rc.repo.LatestActive(activityID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	raw, err := os.ReadFile(entry.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperror.Internal(err, "reading cache file")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.Internal(err, "decoding cache document")
	}
	return doc[name], nil
}
