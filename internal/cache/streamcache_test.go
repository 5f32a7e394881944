// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActivity(id int64) *schema.ActivityRecord {
	return &schema.ActivityRecord{ID: id, AthleteID: 1}
}

func countingLoader(calls *int64) TableLoader {
	return func(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, *schema.SessionSummary, error) {
		atomic.AddInt64(calls, 1)
		return &schema.SampleTable{TimeSec: []int{0, 1, 2}}, nil, nil
	}
}

func noAthlete(ctx context.Context, activity *schema.ActivityRecord) (*schema.AthleteProfile, error) {
	return &schema.AthleteProfile{ID: activity.AthleteID}, nil
}

func TestStreamCacheCachesParseResult(t *testing.T) {
	var calls int64
	c := NewStreamCache(time.Hour, 10, countingLoader(&calls), noAthlete)

	ctx := context.Background()
	first, err := c.GetRaw(ctx, testActivity(1))
	require.NoError(t, err)
	second, err := c.GetRaw(ctx, testActivity(1))
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "loader must run once")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestStreamCacheDoesNotCacheFailures(t *testing.T) {
	var calls int64
	failing := func(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, *schema.SessionSummary, error) {
		atomic.AddInt64(&calls, 1)
		return nil, nil, errors.New("decode failed")
	}
	c := NewStreamCache(time.Hour, 10, failing, noAthlete)

	ctx := context.Background()
	_, err := c.GetRaw(ctx, testActivity(1))
	require.Error(t, err)
	_, err = c.GetRaw(ctx, testActivity(1))
	require.Error(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls), "failures must not stick")
}

func TestStreamCacheInvalidate(t *testing.T) {
	var calls int64
	c := NewStreamCache(time.Hour, 10, countingLoader(&calls), noAthlete)

	ctx := context.Background()
	_, err := c.GetRaw(ctx, testActivity(1))
	require.NoError(t, err)

	c.Invalidate(1)
	_, err = c.GetRaw(ctx, testActivity(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestStreamCacheTTLExpiry(t *testing.T) {
	var calls int64
	c := NewStreamCache(10*time.Millisecond, 10, countingLoader(&calls), noAthlete)

	ctx := context.Background()
	_, err := c.GetRaw(ctx, testActivity(1))
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = c.GetRaw(ctx, testActivity(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls), "expired entry must reload")
}

func TestStreamCacheSweepEvictsOverLimit(t *testing.T) {
	var calls int64
	c := NewStreamCache(time.Hour, 3, countingLoader(&calls), noAthlete)

	ctx := context.Background()
	for id := int64(1); id <= 6; id++ {
		_, err := c.GetRaw(ctx, testActivity(id))
		require.NoError(t, err)
	}

	c.Sweep()
	stats := c.Stats()
	assert.LessOrEqual(t, stats.Entries, 3)
	assert.Greater(t, stats.Evictions, int64(0))
}

func TestStreamCacheConcurrentAccessSingleLoad(t *testing.T) {
	var calls int64
	slow := func(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, *schema.SessionSummary, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(5 * time.Millisecond)
		return &schema.SampleTable{TimeSec: []int{0}}, nil, nil
	}
	c := NewStreamCache(time.Hour, 10, slow, noAthlete)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetRaw(ctx, testActivity(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent readers share one parse")
}

func TestStreamCacheGetAthlete(t *testing.T) {
	var calls int64
	c := NewStreamCache(time.Hour, 10, countingLoader(&calls), noAthlete)

	ctx := context.Background()
	a, err := c.GetAthlete(ctx, testActivity(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
}

func TestStreamCacheConcurrentAthleteSingleLoad(t *testing.T) {
	var calls int64
	slowAthlete := func(ctx context.Context, activity *schema.ActivityRecord) (*schema.AthleteProfile, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(5 * time.Millisecond)
		return &schema.AthleteProfile{ID: activity.AthleteID}, nil
	}
	c := NewStreamCache(time.Hour, 10, countingLoader(new(int64)), slowAthlete)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := c.GetAthlete(ctx, testActivity(1))
			assert.NoError(t, err)
			assert.NotNil(t, a)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls), "concurrent misses share one athlete load")
}
