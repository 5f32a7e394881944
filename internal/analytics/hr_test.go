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

func TestFilterHeartRateDropsImplausible(t *testing.T) {
	hr := []schema.Float{140, 145, 250, 148, 20, 150, schema.NaN(), 152}
	valid := FilterHeartRate(hr)
	// 250 (>220), 20 (<30) and NaN are dropped
	assert.Equal(t, []float64{140, 145, 148, 150, 152}, valid)
}

func TestFilterHeartRateSpikeGuard(t *testing.T) {
	// a 65 bpm jump from the previous valid reading is a sensor spike
	hr := []schema.Float{140, 205, 142, 144}
	valid := FilterHeartRate(hr)
	assert.Equal(t, []float64{140, 142, 144}, valid)
}

func TestHeartRateRecoveryRate(t *testing.T) {
	// ramp down from 180 by 0.5 bpm/s: best 60 s drop is 30
	hr := make([]schema.Float, 120)
	for i := range hr {
		hr[i] = schema.Float(180 - float64(i)/2)
	}
	rate := HeartRateRecoveryRate(hr)
	require.False(t, rate.IsNaN())
	assert.InDelta(t, 30, float64(rate), 1)

	assert.True(t, HeartRateRecoveryRate(constPower(150, 30)).IsNaN())
}

func TestEfficiencyIndex(t *testing.T) {
	power := constPower(210, 300)
	hr := constPower(140, 300)
	ei := EfficiencyIndex(power, hr)
	require.False(t, ei.IsNaN())
	assert.InDelta(t, 1.5, float64(ei), 0.01)

	assert.True(t, EfficiencyIndex(nil, hr).IsNaN())
	assert.True(t, EfficiencyIndex(power, nil).IsNaN())
}

func TestDecouplingRate(t *testing.T) {
	// constant power, HR drifting up in the second half: positive
	// decoupling
	n := 600
	power := constPower(200, n)
	hr := make([]schema.Float, n)
	for i := range hr {
		if i < n/2 {
			hr[i] = 140
		} else {
			hr[i] = 150
		}
	}
	rate := DecouplingRate(power, hr)
	require.NotEmpty(t, rate)
	assert.Regexp(t, `^\d+\.\d%$`, rate)
}

func TestDecouplingRateSpurious(t *testing.T) {
	// a >30% result is treated as a data problem, not a physiology
	// finding
	n := 600
	power := constPower(200, n)
	hr := make([]schema.Float, n)
	for i := range hr {
		if i < n/2 {
			hr[i] = 60
		} else {
			hr[i] = 190
		}
	}
	assert.Empty(t, DecouplingRate(power, hr))
}

func TestHeartRateLag(t *testing.T) {
	// HR follows power with a 10 s delay
	n := 300
	power := make([]schema.Float, n)
	hr := make([]schema.Float, n)
	for i := 0; i < n; i++ {
		if i%60 < 30 {
			power[i] = 300
		} else {
			power[i] = 100
		}
	}
	for i := 0; i < n; i++ {
		src := i - 10
		if src < 0 {
			src = 0
		}
		hr[i] = schema.Float(100 + float64(power[src])/10)
	}

	lag := HeartRateLag(power, hr)
	require.False(t, lag.IsNaN())
	assert.InDelta(t, 10, float64(lag), 2)
}

func TestHeartRateLagUncorrelated(t *testing.T) {
	n := 100
	power := make([]schema.Float, n)
	hr := make([]schema.Float, n)
	for i := 0; i < n; i++ {
		// alternating power against flat-then-jump HR: no shared shape
		if i%2 == 0 {
			power[i] = 300
		} else {
			power[i] = 100
		}
		if i < n/2 {
			hr[i] = 120
		} else {
			hr[i] = 160
		}
	}
	assert.True(t, HeartRateLag(power, hr).IsNaN())
}
