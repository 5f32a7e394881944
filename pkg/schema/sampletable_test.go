// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWithColumns(n int) *SampleTable {
	t := &SampleTable{
		TimeSec:      make([]int, n),
		PowerW:       make([]Float, n),
		HeartRateBpm: make([]Float, n),
		AltitudeM:    make([]Float, n),
	}
	for i := 0; i < n; i++ {
		t.TimeSec[i] = i
		t.PowerW[i] = Float(200)
		t.HeartRateBpm[i] = Float(140)
		t.AltitudeM[i] = Float(500)
	}
	return t
}

func TestAvailableStreamsDependencyRules(t *testing.T) {
	tbl := tableWithColumns(10)
	avail := tbl.AvailableStreams()

	assert.True(t, avail[StreamWatts])
	assert.True(t, avail[StreamHeartrate])
	assert.True(t, avail[StreamAltitude])

	// derived availability follows the input columns
	assert.True(t, avail[StreamPowerHrRatio], "power + heart rate present")
	assert.True(t, avail[StreamWBalance], "power present")
	assert.True(t, avail[StreamBestPower], "power present")
	assert.True(t, avail[StreamVAM], "altitude present")

	// spi/torque need cadence, which is absent
	assert.False(t, avail[StreamSPI])
	assert.False(t, avail[StreamTorque])
	assert.False(t, avail[StreamCadence])
}

func TestAvailableStreamsIgnoresAllZeroColumns(t *testing.T) {
	tbl := tableWithColumns(10)
	tbl.CadenceRpm = make([]Float, 10) // all zero

	avail := tbl.AvailableStreams()
	assert.False(t, avail[StreamCadence])
	assert.False(t, avail[StreamSPI])
}

func TestFloatJSONNullRoundtrip(t *testing.T) {
	f := NaN()
	raw, err := f.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))

	var back Float
	require.NoError(t, back.UnmarshalJSON([]byte("null")))
	assert.True(t, back.IsNaN())

	require.NoError(t, back.UnmarshalJSON([]byte("12.5")))
	assert.Equal(t, Float(12.5), back)
}
