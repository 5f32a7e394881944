// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "repository-test-")
	if err != nil {
		panic(err)
	}
	dbPath := filepath.Join(tmp, "test.db")
	MigrateDB("sqlite3", dbPath)
	Connect("sqlite3", dbPath)

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

func createTestAthlete(t *testing.T) int64 {
	t.Helper()
	id, err := GetAthleteRepository().CreateAthlete(&schema.AthleteProfile{
		FTPWatts:              250,
		WPrimeJoules:          20000,
		MaxHeartRateBpm:       190,
		ThresholdHeartRateBpm: 168,
		WeightKg:              72,
	})
	require.NoError(t, err)
	return id
}

func TestAthleteRoundtrip(t *testing.T) {
	id := createTestAthlete(t)

	a, err := GetAthleteRepository().GetAthlete(id)
	require.NoError(t, err)
	assert.Equal(t, 250, a.FTPWatts)
	assert.Equal(t, 20000, a.WPrimeJoules)
	assert.Equal(t, 190, a.MaxHeartRateBpm)

	require.NoError(t, GetAthleteRepository().UpdateFTP(id, 260))
	a, err = GetAthleteRepository().GetAthlete(id)
	require.NoError(t, err)
	assert.Equal(t, 260, a.FTPWatts)
}

func TestGetAthleteNotFound(t *testing.T) {
	_, err := GetAthleteRepository().GetAthlete(999999)
	assert.True(t, apperror.IsNotFound(err))
}

func TestActivityTSSUpdate(t *testing.T) {
	athleteID := createTestAthlete(t)
	id, err := GetActivityRepository().CreateActivity(&schema.ActivityRecord{
		AthleteID:        athleteID,
		StartTime:        time.Now().UTC(),
		EfficiencyFactor: schema.NaN(),
	})
	require.NoError(t, err)

	require.NoError(t, GetActivityRepository().UpdateTSS(id, 85))

	a, err := GetActivityRepository().GetActivity(id)
	require.NoError(t, err)
	assert.Equal(t, 85, a.TSS)
	assert.True(t, a.TSSUpdated)
}

func TestActivitiesInRange(t *testing.T) {
	athleteID := createTestAthlete(t)
	ref := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, daysAgo := range []int{1, 5, 50} {
		_, err := GetActivityRepository().CreateActivity(&schema.ActivityRecord{
			AthleteID:        athleteID,
			StartTime:        ref.AddDate(0, 0, -daysAgo),
			EfficiencyFactor: schema.NaN(),
		})
		require.NoError(t, err)
	}

	within, err := GetActivityRepository().ActivitiesInRange(athleteID, ref.AddDate(0, 0, -7), ref)
	require.NoError(t, err)
	require.Len(t, within, 2)
	// oldest first
	assert.True(t, within[0].StartTime.Before(within[1].StartTime))
}

func TestPowerRecordsRowRoundtrip(t *testing.T) {
	athleteID := createTestAthlete(t)
	repo := GetPowerRecordsRepository()

	// first read of a fresh athlete yields an all-zero row
	row, err := repo.GetRow(athleteID)
	require.NoError(t, err)
	assert.Equal(t, schema.Float(0), row.PowerRecords["5s"][0].Value)

	row.PowerRecords["5s"] = [3]schema.RecordSlot{
		{Value: 600, SourceActivityID: 11},
		{Value: 550, SourceActivityID: 12},
	}
	row.LongestRide[0] = schema.RecordSlot{Value: 120000, SourceActivityID: 11}
	require.NoError(t, repo.SaveRow(row))

	back, err := repo.GetRow(athleteID)
	require.NoError(t, err)
	assert.Equal(t, schema.Float(600), back.PowerRecords["5s"][0].Value)
	assert.Equal(t, int64(11), back.PowerRecords["5s"][0].SourceActivityID)
	assert.Equal(t, schema.Float(550), back.PowerRecords["5s"][1].Value)
	assert.Equal(t, schema.Float(120000), back.LongestRide[0].Value)

	// upsert replaces in place
	back.PowerRecords["5s"] = [3]schema.RecordSlot{
		{Value: 650, SourceActivityID: 13},
		{Value: 600, SourceActivityID: 11},
		{Value: 550, SourceActivityID: 12},
	}
	require.NoError(t, repo.SaveRow(back))
	final, err := repo.GetRow(athleteID)
	require.NoError(t, err)
	assert.Equal(t, schema.Float(650), final.PowerRecords["5s"][0].Value)
}

func TestOAuthTokenRoundtrip(t *testing.T) {
	repo := GetOAuthTokenRepository()

	_, err := repo.Get("unknown-device")
	assert.True(t, apperror.IsNotFound(err))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Upsert(&StoredToken{
		DeviceID:     "device-1",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		UpdateTime:   now,
	}))

	tok, err := repo.Get("device-1")
	require.NoError(t, err)
	assert.Equal(t, "at-1", tok.AccessToken)

	require.NoError(t, repo.Upsert(&StoredToken{
		DeviceID:     "device-1",
		AccessToken:  "at-2",
		RefreshToken: "rt-2",
		UpdateTime:   now.Add(time.Hour),
	}))
	tok, err = repo.Get("device-1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", tok.AccessToken)
}

func TestDailyStateUpsert(t *testing.T) {
	athleteID := createTestAthlete(t)
	repo := GetAthleteRepository()

	require.NoError(t, repo.UpsertDailyState(athleteID, "2025-03-01", 45, 60, "fatigued"))
	require.NoError(t, repo.UpsertDailyState(athleteID, "2025-03-01", 46, 58, "neutral"))

	fitness, fatigue, found, err := repo.LatestDailyState(athleteID, "2025-03-02")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, float64(46), fitness)
	assert.Equal(t, float64(58), fatigue)
}
