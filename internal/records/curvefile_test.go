// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "records-test-")
	if err != nil {
		panic(err)
	}
	config.Keys.BestCurveDir = filepath.Join(tmp, "best_power")

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

func TestCurveStoreLoadMissing(t *testing.T) {
	cs := GetCurveStore()
	curve, err := cs.Load(9999)
	require.NoError(t, err)
	assert.Nil(t, curve, "missing file means no history, not an error")
}

func TestCurveStoreUpdateAndMerge(t *testing.T) {
	cs := GetCurveStore()
	const athleteID = 42

	first := make([]int, 300)
	first[4] = 600
	first[59] = 420
	first[299] = 310
	_, err := cs.Update(athleteID, first)
	require.NoError(t, err)

	second := make([]int, 300)
	second[4] = 550
	second[59] = 440
	second[299] = 305
	merged, err := cs.Update(athleteID, second)
	require.NoError(t, err)

	assert.Equal(t, 600, merged[4])
	assert.Equal(t, 440, merged[59])
	assert.Equal(t, 310, merged[299])

	// persisted document matches
	stored, err := cs.Load(athleteID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(athleteID), stored.AthleteID)
	assert.Equal(t, merged, stored.BestCurve)
	assert.False(t, stored.UpdatedAt.IsZero())
}

func TestCurveStoreUpdateIdempotent(t *testing.T) {
	cs := GetCurveStore()
	const athleteID = 43

	curve := []int{500, 450, 400}
	once, err := cs.Update(athleteID, curve)
	require.NoError(t, err)
	twice, err := cs.Update(athleteID, curve)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCurveStoreWritesNoTempLeftovers(t *testing.T) {
	cs := GetCurveStore()
	_, err := cs.Update(44, []int{300})
	require.NoError(t, err)

	entries, err := os.ReadDir(config.Keys.BestCurveDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestWindowBests(t *testing.T) {
	curve := make([]int, 3600)
	curve[4] = 600    // 5s
	curve[59] = 420   // 1m
	curve[1199] = 330 // 20m
	curve[3599] = 290 // 60m

	bests := WindowBests(curve)
	assert.Equal(t, schema.Float(600), bests["5s"])
	assert.Equal(t, schema.Float(420), bests["1m"])
	assert.Equal(t, schema.Float(330), bests["20m"])
	assert.Equal(t, schema.Float(290), bests["60m"])

	short := WindowBests(make([]int, 100))
	_, has60m := short["60m"]
	assert.False(t, has60m, "windows beyond the curve length are absent")
}
