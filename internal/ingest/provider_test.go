// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"encoding/json"
	"testing"

	"github.com/cc-analytics/activity-engine/internal/providerclient"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawStream(t *testing.T, typ string, data any) *providerclient.ProviderStream {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &providerclient.ProviderStream{Type: typ, Data: raw}
}

func TestDecodeFloatStreamMapsNullToNaN(t *testing.T) {
	s := rawStream(t, "watts", []any{200, nil, 250})
	col := decodeFloatStream(s, 3)
	require.Len(t, col, 3)
	assert.Equal(t, schema.Float(200), col[0])
	assert.True(t, col[1].IsNaN())
	assert.Equal(t, schema.Float(250), col[2])
}

func TestDecodeFloatStreamFitsLength(t *testing.T) {
	s := rawStream(t, "watts", []float64{200, 210})
	col := decodeFloatStream(s, 4)
	require.Len(t, col, 4)
	assert.True(t, col[2].IsNaN(), "padding is NaN, not zero")
	assert.True(t, col[3].IsNaN())

	col = decodeFloatStream(rawStream(t, "watts", []float64{1, 2, 3, 4, 5}), 3)
	assert.Len(t, col, 3)
}

func TestDecodeIntStream(t *testing.T) {
	s := rawStream(t, "time", []int{0, 5, 10})
	assert.Equal(t, []int{0, 5, 10}, decodeIntStream(s))
	assert.Nil(t, decodeIntStream(nil))
}

func TestDecodeLatLngStream(t *testing.T) {
	s := rawStream(t, "latlng", [][2]float64{{48.1, 11.5}, {48.2, 11.6}})
	lat, lng, ok := decodeLatLngStream(s, 2)
	require.True(t, ok)
	assert.Equal(t, schema.Float(48.1), lat[0])
	assert.Equal(t, schema.Float(11.6), lng[1])

	_, _, ok = decodeLatLngStream(nil, 2)
	assert.False(t, ok)
}

func TestUpsampleTableStretchesAllColumns(t *testing.T) {
	tbl := &schema.SampleTable{
		TimeSec:  []int{0, 10, 20},
		PowerW:   []schema.Float{100, 200, 300},
		SpeedMps: []schema.Float{5, 6, 7},
	}
	upsampleTable(tbl, 21)

	assert.Len(t, tbl.TimeSec, 21)
	assert.Len(t, tbl.PowerW, 21)
	assert.Len(t, tbl.SpeedMps, 21)
	assert.Nil(t, tbl.HeartRateBpm, "absent columns stay absent")

	assert.Equal(t, schema.Float(100), tbl.PowerW[9])
	assert.Equal(t, schema.Float(200), tbl.PowerW[10])
	assert.Equal(t, 20, tbl.TimeSec[20])
}
