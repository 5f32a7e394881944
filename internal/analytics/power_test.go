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

func constPower(watts float64, n int) []schema.Float {
	out := make([]schema.Float, n)
	for i := range out {
		out[i] = schema.Float(watts)
	}
	return out
}

func TestNormalizedPowerFlatRide(t *testing.T) {
	// a perfectly flat ride normalizes to its own average
	power := constPower(200, 120)

	np := NormalizedPower(power)
	require.False(t, np.IsNaN())
	assert.InDelta(t, 200, float64(np), 5)

	assert.Equal(t, 0, WorkAboveFTP(power, 200))
}

func TestNormalizedPowerEmpty(t *testing.T) {
	assert.True(t, NormalizedPower(nil).IsNaN())
}

func TestNormalizedPowerWeightsSurges(t *testing.T) {
	// 4th-power weighting: a spiky ride must normalize above its mean
	power := make([]schema.Float, 600)
	for i := range power {
		if i%120 < 30 {
			power[i] = 400
		} else {
			power[i] = 100
		}
	}
	np := NormalizedPower(power)
	avg := AveragePower(power)
	assert.Greater(t, float64(np), float64(avg))
}

func TestBestWindowAverage(t *testing.T) {
	power := []schema.Float{100, 200, 300, 400, 100}

	best2 := BestWindowAverage(power, 2)
	assert.InDelta(t, 350, float64(best2), 0.001)

	best5 := BestWindowAverage(power, 5)
	assert.InDelta(t, 220, float64(best5), 0.001)

	assert.True(t, BestWindowAverage(power, 6).IsNaN())
	assert.True(t, BestWindowAverage(power, 0).IsNaN())
}

func TestBestPowerCurve(t *testing.T) {
	power := []schema.Float{100, 300, 200}
	curve := BestPowerCurve(power)
	require.Len(t, curve, 3)
	assert.Equal(t, 300, curve[0])
	assert.Equal(t, 250, curve[1])
	assert.Equal(t, 200, curve[2])
}

func TestBestPowerCurveAllZero(t *testing.T) {
	curve := BestPowerCurve(constPower(0, 100))
	require.Len(t, curve, 100)
	for _, v := range curve {
		assert.Equal(t, 0, v)
	}
}

func TestWorkAboveFTP(t *testing.T) {
	// 600 seconds 50 W above FTP = 30 kJ
	power := constPower(300, 600)
	assert.Equal(t, 30, WorkAboveFTP(power, 250))
	assert.Equal(t, 0, WorkAboveFTP(power, 0))
}

func TestWBalanceDecline(t *testing.T) {
	wbal := []schema.Float{20.0, 18.5, 12.3, 15.0}
	d := WBalanceDecline(wbal)
	assert.InDelta(t, 7.7, float64(d), 0.001)

	assert.True(t, WBalanceDecline(nil).IsNaN())
}
