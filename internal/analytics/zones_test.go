// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"strconv"
	"strings"
	"testing"

	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pctOf(t *testing.T, b ZoneBucket) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(strings.TrimSuffix(b.PercentageFormatted, "%"), 64)
	require.NoError(t, err)
	return v
}

func TestPowerZonesDistribution(t *testing.T) {
	// 60 s at 200 W, 60 s at 260 W, 30 s at 300 W around FTP 250
	var power []schema.Float
	power = append(power, constPower(200, 60)...)
	power = append(power, constPower(260, 60)...)
	power = append(power, constPower(300, 30)...)

	buckets := PowerZones(power, 250)
	require.Len(t, buckets, 7)

	var sum float64
	for _, b := range buckets {
		sum += pctOf(t, b)
	}
	assert.InDelta(t, 100, sum, 0.5)

	// Z3 (the 75-90% band holds the 200 W block) has the
	// largest share
	z3 := pctOf(t, buckets[2])
	for i, b := range buckets {
		assert.LessOrEqual(t, pctOf(t, b), z3, "zone %d larger than Z3", i+1)
	}

	// last band is open-ended
	assert.Equal(t, -1, buckets[6].Max)
}

func TestPowerZonesInvalidFTP(t *testing.T) {
	assert.Nil(t, PowerZones(constPower(200, 10), 0))
}

func TestPowerZonesDropsNonPositiveSamples(t *testing.T) {
	power := []schema.Float{0, 0, schema.NaN(), 200, 200}
	buckets := PowerZones(power, 250)
	require.Len(t, buckets, 7)

	total := 0
	for _, b := range buckets {
		total += b.TimeSec
	}
	assert.Equal(t, 2, total)
}

func TestHeartRateZonesByMax(t *testing.T) {
	hr := []schema.Float{100, 120, 140, 160, 180}
	buckets := HeartRateZonesByMax(hr, 190)
	require.Len(t, buckets, 5)

	total := 0
	for _, b := range buckets {
		total += b.TimeSec
	}
	assert.Equal(t, 5, total)
}

func TestHeartRateZonesByThreshold(t *testing.T) {
	hr := constPower(160, 100)
	buckets := HeartRateZonesByThreshold(hr, 165)
	require.Len(t, buckets, 7)
	assert.Nil(t, HeartRateZonesByThreshold(hr, 0))
}

func TestZoneTimeFormatted(t *testing.T) {
	power := constPower(200, 90)
	buckets := PowerZones(power, 250)
	for _, b := range buckets {
		if b.TimeSec == 90 {
			assert.Equal(t, "1:30", b.TimeFormatted)
		}
	}
}
