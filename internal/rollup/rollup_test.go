// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package rollup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "rollup-test-")
	if err != nil {
		panic(err)
	}
	dbPath := filepath.Join(tmp, "test.db")
	repository.MigrateDB("sqlite3", dbPath)
	repository.Connect("sqlite3", dbPath)

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

func addActivity(t *testing.T, athleteID int64, daysAgo int, tss int, ref time.Time) {
	t.Helper()
	id, err := repository.GetActivityRepository().CreateActivity(&schema.ActivityRecord{
		AthleteID:        athleteID,
		StartTime:        ref.AddDate(0, 0, -daysAgo),
		EfficiencyFactor: schema.NaN(),
	})
	require.NoError(t, err)
	if tss > 0 {
		require.NoError(t, repository.GetActivityRepository().UpdateTSS(id, tss))
	}
}

func TestRecomputeTrainingLoad(t *testing.T) {
	athleteID, err := repository.GetAthleteRepository().CreateAthlete(&schema.AthleteProfile{FTPWatts: 250})
	require.NoError(t, err)

	ref := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)

	// inside the 7-day window
	addActivity(t, athleteID, 1, 70, ref)
	addActivity(t, athleteID, 3, 70, ref)
	// inside 42 days only
	addActivity(t, athleteID, 20, 84, ref)
	// zero TSS is excluded from both sums
	addActivity(t, athleteID, 2, 0, ref)
	// outside both windows
	addActivity(t, athleteID, 60, 100, ref)

	res, err := Recompute(athleteID, ref)
	require.NoError(t, err)

	// atl = round(140/7) = 20, ctl = round(224/42) = 5
	assert.Equal(t, 20, res.ATL)
	assert.Equal(t, 5, res.CTL)
	assert.Equal(t, -15, res.TSB)

	// persisted on the athlete row
	athlete, err := repository.GetAthleteRepository().GetAthlete(athleteID)
	require.NoError(t, err)
	assert.Equal(t, float64(20), athlete.ATL)
	assert.Equal(t, float64(5), athlete.CTL)
	assert.Equal(t, float64(-15), athlete.TSB)
}

func TestRecomputeEmptyHistory(t *testing.T) {
	athleteID, err := repository.GetAthleteRepository().CreateAthlete(&schema.AthleteProfile{FTPWatts: 200})
	require.NoError(t, err)

	res, err := Recompute(athleteID, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, res.ATL)
	assert.Zero(t, res.CTL)
	assert.Zero(t, res.TSB)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, "fresh", statusFor(20))
	assert.Equal(t, "neutral", statusFor(0))
	assert.Equal(t, "fatigued", statusFor(-15))
	assert.Equal(t, "overreached", statusFor(-30))
}
