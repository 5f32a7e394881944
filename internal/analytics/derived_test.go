// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"testing"

	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(n int) *schema.SampleTable {
	t := &schema.SampleTable{TimeSec: make([]int, n)}
	for i := 0; i < n; i++ {
		t.TimeSec[i] = i
	}
	return t
}

func testAthlete() *schema.AthleteProfile {
	return &schema.AthleteProfile{
		ID:           1,
		FTPWatts:     250,
		WPrimeJoules: 20000,
	}
}

func TestEnrichComputesRatioStreams(t *testing.T) {
	tbl := testTable(3)
	tbl.PowerW = []schema.Float{200, 0, 300}
	tbl.HeartRateBpm = []schema.Float{140, 150, 150}
	tbl.CadenceRpm = []schema.Float{90, 90, 0}

	EnrichDerivedStreams(tbl, testAthlete())

	require.Len(t, tbl.PowerHrRatio, 3)
	assert.InDelta(t, 1.43, float64(tbl.PowerHrRatio[0]), 0.001)
	assert.Zero(t, float64(tbl.PowerHrRatio[1])) // zero power -> 0

	require.Len(t, tbl.SPI, 3)
	assert.InDelta(t, 2.22, float64(tbl.SPI[0]), 0.001)
	assert.Zero(t, float64(tbl.SPI[2])) // zero cadence -> 0

	require.Len(t, tbl.Torque, 3)
	// 200 W at 90 rpm: 200 / (90 * 2pi/60) ~ 21 Nm
	assert.InDelta(t, 21, float64(tbl.Torque[0]), 0.5)
}

func TestEnrichIsIdempotent(t *testing.T) {
	tbl := testTable(10)
	tbl.PowerW = constPower(200, 10)

	EnrichDerivedStreams(tbl, testAthlete())
	first := tbl.WBalanceKJ
	EnrichDerivedStreams(tbl, testAthlete())
	assert.Equal(t, &first[0], &tbl.WBalanceKJ[0], "second enrichment must not recompute")
}

func TestWBalanceDepletesAndRecovers(t *testing.T) {
	// 60 s well above CP, then 300 s well below
	tbl := testTable(360)
	tbl.PowerW = append(constPower(350, 60), constPower(100, 300)...)

	EnrichDerivedStreams(tbl, testAthlete())
	require.Len(t, tbl.WBalanceKJ, 360)

	// depletion: 100 J/s for 60 s = 6 kJ down from 20
	assert.InDelta(t, 14.0, float64(tbl.WBalanceKJ[59]), 0.2)
	// recovery brings it back up towards W'
	assert.Greater(t, float64(tbl.WBalanceKJ[359]), float64(tbl.WBalanceKJ[59]))
	// never outside [0, W']
	for _, v := range tbl.WBalanceKJ {
		assert.GreaterOrEqual(t, float64(v), 0.0)
		assert.LessOrEqual(t, float64(v), 20.0)
	}
}

func TestWBalanceZeroWithoutWPrime(t *testing.T) {
	tbl := testTable(100)
	tbl.PowerW = constPower(350, 100)

	athlete := testAthlete()
	athlete.WPrimeJoules = 0
	EnrichDerivedStreams(tbl, athlete)

	require.Len(t, tbl.WBalanceKJ, 100)
	for _, v := range tbl.WBalanceKJ {
		assert.Zero(t, float64(v))
	}
}

func TestVAMClampAndWindow(t *testing.T) {
	// climbing 1 m/s: raw VAM = 3600 m/h * 1.4 = 5040, clamped to 5000
	tbl := testTable(120)
	tbl.AltitudeM = make([]schema.Float, 120)
	for i := range tbl.AltitudeM {
		tbl.AltitudeM[i] = schema.Float(float64(i))
	}

	EnrichDerivedStreams(tbl, testAthlete())
	require.Len(t, tbl.VAM, 120)
	assert.Zero(t, float64(tbl.VAM[0])) // no window yet
	assert.InDelta(t, 5000, float64(tbl.VAM[100]), 0.001)
}

func TestEnrichSkipsMissingInputs(t *testing.T) {
	tbl := testTable(10)
	tbl.PowerW = constPower(200, 10)

	EnrichDerivedStreams(tbl, testAthlete())

	assert.Nil(t, tbl.PowerHrRatio, "no heart rate, no ratio stream")
	assert.Nil(t, tbl.SPI)
	assert.Nil(t, tbl.Torque)
	assert.Nil(t, tbl.VAM)
	assert.NotNil(t, tbl.BestPowerCurve)
	assert.NotNil(t, tbl.WBalanceKJ)
}
