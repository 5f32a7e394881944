// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache holds the in-process tier of the caching substrate:
// parsed sample tables, session summaries and athlete profiles, kept
// for a TTL and bounded by an entry count, with a periodic sweeper.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cc-analytics/activity-engine/internal/metrics"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/resampler"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// TableLoader produces the sample table (and optional session
// summary) for one activity on a cache miss.
type TableLoader func(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, *schema.SessionSummary, error)

// AthleteLoader produces the athlete owning one activity on a miss.
type AthleteLoader func(ctx context.Context, activity *schema.ActivityRecord) (*schema.AthleteProfile, error)

// tableEntry is one cached parse result. waitingFor is non-nil while
// a goroutine is still computing the value; concurrent readers block
// on it instead of re-parsing the same recording.
type tableEntry struct {
	table      *schema.SampleTable
	session    *schema.SessionSummary
	err        error
	waitingFor chan struct{}
}

// athleteEntry mirrors tableEntry for the athlete map: the same
// computing slot keeps concurrent misses for one activity's athlete on
// a single loader call.
type athleteEntry struct {
	athlete    *schema.AthleteProfile
	err        error
	waitingFor chan struct{}
}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// StreamCache is the only cross-request in-memory shared state of the
// engine. One mutex protects all maps; the sweeper takes the same
// lock.
type StreamCache struct {
	mu sync.Mutex

	tables   map[int64]*tableEntry
	athletes map[int64]*athleteEntry
	stamps   map[string]time.Time

	ttl        time.Duration
	maxEntries int

	loadTable   TableLoader
	loadAthlete AthleteLoader

	hits, misses, evictions int64
}

// NewStreamCache builds a cache with the given policy. A zero ttl
// defaults to one hour, a zero maxEntries to 100.
func NewStreamCache(ttl time.Duration, maxEntries int, loadTable TableLoader, loadAthlete AthleteLoader) *StreamCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &StreamCache{
		tables:      make(map[int64]*tableEntry),
		athletes:    make(map[int64]*athleteEntry),
		stamps:      make(map[string]time.Time),
		ttl:         ttl,
		maxEntries:  maxEntries,
		loadTable:   loadTable,
		loadAthlete: loadAthlete,
	}
}

func tableStamp(activityID int64) string   { return fmt.Sprintf("table:%d", activityID) }
func athleteStamp(activityID int64) string { return fmt.Sprintf("athlete:%d", activityID) }

// getEntry returns a live entry, the channel to wait on if another
// goroutine is still computing it, and whether this caller must
// compute it (and then call finish()).
func (c *StreamCache) getEntry(activityID int64) (entry *tableEntry, wait <-chan struct{}, compute bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableStamp(activityID)
	if e, ok := c.tables[activityID]; ok {
		if e.waitingFor != nil || time.Since(c.stamps[key]) <= c.ttl {
			c.hits++
			metrics.StreamCacheHits.Inc()
			c.stamps[key] = time.Now()
			return e, e.waitingFor, false
		}
		// expired; fall through and recompute in place
	}

	c.misses++
	metrics.StreamCacheMisses.Inc()
	e := &tableEntry{waitingFor: make(chan struct{})}
	c.tables[activityID] = e
	c.stamps[key] = time.Now()
	return e, nil, true
}

func (c *StreamCache) finish(activityID int64, e *tableEntry, table *schema.SampleTable, session *schema.SessionSummary, err error) {
	c.mu.Lock()
	e.table = table
	e.session = session
	e.err = err
	close(e.waitingFor)
	e.waitingFor = nil
	if err != nil {
		// do not keep failures around
		delete(c.tables, activityID)
		delete(c.stamps, tableStamp(activityID))
	}
	c.trimLocked()
	c.mu.Unlock()
}

// loadEntry resolves an activity's parse result, computing it if this
// caller is first.
func (c *StreamCache) loadEntry(ctx context.Context, activity *schema.ActivityRecord) (*tableEntry, error) {
	e, wait, compute := c.getEntry(activity.ID)
	if compute {
		table, session, err := c.loadTable(ctx, activity)
		c.finish(activity.ID, e, table, session, err)
		return e, err
	}
	if wait != nil {
		<-wait
	}
	return e, e.err
}

// GetRaw returns the full-resolution sample table for an activity,
// parsing it on first access.
func (c *StreamCache) GetRaw(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, error) {
	e, err := c.loadEntry(ctx, activity)
	if err != nil {
		return nil, err
	}
	return e.table, nil
}

// GetStreams returns the table downsampled to the requested
// resolution. The underlying full-resolution parse is shared.
func (c *StreamCache) GetStreams(ctx context.Context, activity *schema.ActivityRecord, resolution schema.Resolution) (*schema.SampleTable, error) {
	t, err := c.GetRaw(ctx, activity)
	if err != nil {
		return nil, err
	}
	return resampler.DownsampleTable(t, resolution), nil
}

// GetSession returns the recording's session summary; nil without
// error when the recording carries none.
func (c *StreamCache) GetSession(ctx context.Context, activity *schema.ActivityRecord) (*schema.SessionSummary, error) {
	e, err := c.loadEntry(ctx, activity)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

// getAthleteEntry is the athlete-map twin of getEntry: a live entry is
// a hit, a computing entry hands back its wait channel, and the first
// caller to miss installs the computing slot.
func (c *StreamCache) getAthleteEntry(activityID int64) (entry *athleteEntry, wait <-chan struct{}, compute bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := athleteStamp(activityID)
	if e, ok := c.athletes[activityID]; ok {
		if e.waitingFor != nil || time.Since(c.stamps[key]) <= c.ttl {
			c.hits++
			c.stamps[key] = time.Now()
			return e, e.waitingFor, false
		}
	}

	c.misses++
	e := &athleteEntry{waitingFor: make(chan struct{})}
	c.athletes[activityID] = e
	c.stamps[key] = time.Now()
	return e, nil, true
}

func (c *StreamCache) finishAthlete(activityID int64, e *athleteEntry, athlete *schema.AthleteProfile, err error) {
	c.mu.Lock()
	e.athlete = athlete
	e.err = err
	close(e.waitingFor)
	e.waitingFor = nil
	if err != nil {
		// do not keep failures around
		delete(c.athletes, activityID)
		delete(c.stamps, athleteStamp(activityID))
	}
	c.trimLocked()
	c.mu.Unlock()
}

// GetAthlete returns the athlete owning an activity, cached under the
// activity id. Concurrent misses share one loader call.
func (c *StreamCache) GetAthlete(ctx context.Context, activity *schema.ActivityRecord) (*schema.AthleteProfile, error) {
	e, wait, compute := c.getAthleteEntry(activity.ID)
	if compute {
		a, err := c.loadAthlete(ctx, activity)
		c.finishAthlete(activity.ID, e, a, err)
		return a, err
	}
	if wait != nil {
		<-wait
	}
	return e.athlete, e.err
}

// Invalidate drops one activity's cached entries.
func (c *StreamCache) Invalidate(activityID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, activityID)
	delete(c.athletes, activityID)
	delete(c.stamps, tableStamp(activityID))
	delete(c.stamps, athleteStamp(activityID))
}

// InvalidateAll empties the cache.
func (c *StreamCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[int64]*tableEntry)
	c.athletes = make(map[int64]*athleteEntry)
	c.stamps = make(map[string]time.Time)
}

// Stats snapshots the counters.
func (c *StreamCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.tables) + len(c.athletes),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// Sweep drops all expired entries, then — if the cache still exceeds
// its entry budget — evicts the oldest entries until back under the
// limit. The sweeper calls this every five minutes; explicit calls
// are harmless.
func (c *StreamCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, ts := range c.stamps {
		if now.Sub(ts) > c.ttl {
			c.dropByStampLocked(key)
		}
	}
	c.trimLocked()
}

// trimLocked evicts oldest-stamped entries until the entry count is
// back under maxEntries. Entries still being computed are skipped.
func (c *StreamCache) trimLocked() {
	for len(c.tables)+len(c.athletes) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for key, ts := range c.stamps {
			if c.stampComputing(key) {
				continue
			}
			if oldestKey == "" || ts.Before(oldest) {
				oldestKey = key
				oldest = ts
			}
		}
		if oldestKey == "" {
			return
		}
		c.dropByStampLocked(oldestKey)
	}
}

func (c *StreamCache) stampComputing(key string) bool {
	var id int64
	if _, err := fmt.Sscanf(key, "table:%d", &id); err == nil {
		if e, ok := c.tables[id]; ok {
			return e.waitingFor != nil
		}
	}
	if _, err := fmt.Sscanf(key, "athlete:%d", &id); err == nil {
		if e, ok := c.athletes[id]; ok {
			return e.waitingFor != nil
		}
	}
	return false
}

func (c *StreamCache) dropByStampLocked(key string) {
	var id int64
	if _, err := fmt.Sscanf(key, "table:%d", &id); err == nil {
		if e, ok := c.tables[id]; ok {
			if e.waitingFor != nil {
				return
			}
			delete(c.tables, id)
			c.evictions++
		}
		delete(c.stamps, key)
		return
	}
	if _, err := fmt.Sscanf(key, "athlete:%d", &id); err == nil {
		if e, ok := c.athletes[id]; ok {
			if e.waitingFor != nil {
				return
			}
			delete(c.athletes, id)
			delete(c.stamps, key)
			c.evictions++
		}
	}
}

// logStats is a debug hook the sweeper uses.
func (c *StreamCache) logStats() {
	s := c.Stats()
	log.Debugf("stream cache: %d entries, %d hits, %d misses, %d evictions",
		s.Entries, s.Hits, s.Misses, s.Evictions)
}
