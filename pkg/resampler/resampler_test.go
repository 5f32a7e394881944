// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package resampler

import (
	"testing"

	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleResampler(t *testing.T) {
	data := make([]schema.Float, 400)
	for i := range data {
		data[i] = schema.Float(i)
	}

	out, err := SimpleResampler(data, 1, 4)
	require.NoError(t, err)
	assert.Len(t, out, 100)
	assert.Equal(t, schema.Float(0), out[0])
	assert.Equal(t, schema.Float(4), out[1])

	// short series pass through unchanged
	short := data[:50]
	out, err = SimpleResampler(short, 1, 4)
	require.NoError(t, err)
	assert.Len(t, out, 50)

	_, err = SimpleResampler(data, 0, 4)
	assert.Error(t, err)
	_, err = SimpleResampler(data, 3, 4)
	assert.Error(t, err)
}

func TestZeroOrderHold(t *testing.T) {
	// a 10-second recording interval stretched onto a 1 Hz timeline
	data := []schema.Float{100, 200, 300}
	timeSec := []int{0, 10, 20}

	out := ZeroOrderHold(data, timeSec, 25)
	require.Len(t, out, 25)
	assert.Equal(t, schema.Float(100), out[0])
	assert.Equal(t, schema.Float(100), out[9])
	assert.Equal(t, schema.Float(200), out[10])
	assert.Equal(t, schema.Float(200), out[19])
	assert.Equal(t, schema.Float(300), out[20])
	assert.Equal(t, schema.Float(300), out[24])
}

func TestZeroOrderHoldSkipsOnZeroTarget(t *testing.T) {
	data := []schema.Float{100, 200}
	timeSec := []int{0, 10}

	// moving_time of 0 (aborted activity) silently skips upsampling
	assert.Equal(t, data, ZeroOrderHold(data, timeSec, 0))
	// mismatched lengths also pass through
	assert.Equal(t, data, ZeroOrderHold(data, []int{0}, 20))
}

func TestIsLowResolution(t *testing.T) {
	assert.False(t, IsLowResolution([]int{0, 1, 2, 3}))
	assert.True(t, IsLowResolution([]int{0, 10, 20, 30}))
	assert.False(t, IsLowResolution([]int{0}))
}

func testTable(n int) *schema.SampleTable {
	t := &schema.SampleTable{
		TimeSec:      make([]int, n),
		PowerW:       make([]schema.Float, n),
		HeartRateBpm: make([]schema.Float, n),
		AltitudeM:    make([]schema.Float, n),
	}
	for i := 0; i < n; i++ {
		t.TimeSec[i] = i
		t.PowerW[i] = schema.Float(200)
		t.HeartRateBpm[i] = schema.Float(140)
		t.AltitudeM[i] = schema.Float(500)
	}
	return t
}

func TestDownsampleTableStrides(t *testing.T) {
	tbl := testTable(1000)
	tbl.BestPowerCurve = make([]int, 1000)

	medium := DownsampleTable(tbl, schema.ResolutionMedium)
	assert.InDelta(t, 250, medium.Len(), 10, "medium keeps ~25%%")

	low := DownsampleTable(tbl, schema.ResolutionLow)
	assert.InDelta(t, 50, low.Len(), 10, "low keeps ~5%%")

	high := DownsampleTable(tbl, schema.ResolutionHigh)
	assert.Equal(t, 1000, high.Len())

	// best_power is never downsampled
	assert.Len(t, medium.BestPowerCurve, 1000)
	assert.Len(t, low.BestPowerCurve, 1000)
}

func TestDownsampleTableKeepsColumnAlignment(t *testing.T) {
	tbl := testTable(400)
	down := DownsampleTable(tbl, schema.ResolutionMedium)

	n := down.Len()
	require.Greater(t, n, 0)
	assert.Len(t, down.PowerW, n)
	assert.Len(t, down.HeartRateBpm, n)
	assert.Len(t, down.AltitudeM, n)
}

func TestDownsampleTableShortSeriesPassThrough(t *testing.T) {
	tbl := testTable(60)
	down := DownsampleTable(tbl, schema.ResolutionLow)
	assert.Equal(t, 60, down.Len())
}
