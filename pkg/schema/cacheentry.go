package schema

import "time"

// CacheEntry is one row of the on-disk result cache's DB index.
// Invariant: at most one active row per (activity_id, cache_key);
// invalidation sets IsActive=false and best-effort deletes the file.
type CacheEntry struct {
	ActivityID  int64      `db:"activity_id" json:"activity_id"`
	CacheKey    string     `db:"cache_key" json:"cache_key"`
	FilePath    string     `db:"file_path" json:"file_path"`
	FileSize    int64      `db:"file_size" json:"file_size"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	MetadataRaw string     `db:"cache_metadata" json:"metadata,omitempty"`
}
