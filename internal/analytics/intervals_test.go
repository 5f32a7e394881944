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

// assertPartition checks the central detector invariant: the final
// intervals cover [0, duration) contiguously with no gap and no
// overlap.
func assertPartition(t *testing.T, result *schema.IntervalDetectionResult) {
	t.Helper()
	require.NotEmpty(t, result.Intervals)
	assert.Equal(t, 0, result.Intervals[0].StartSec)
	for i := 1; i < len(result.Intervals); i++ {
		assert.Equal(t, result.Intervals[i-1].EndSec, result.Intervals[i].StartSec,
			"gap or overlap between interval %d and %d", i-1, i)
	}
	assert.Equal(t, result.DurationSec, result.Intervals[len(result.Intervals)-1].EndSec)
}

func TestDetectIntervalsInvalidInput(t *testing.T) {
	res := DetectIntervals(nil, nil, nil, 250)
	assert.Equal(t, 0, res.DurationSec)
	assert.Empty(t, res.Intervals)
	assert.Empty(t, res.Repeats)

	res = DetectIntervals(constPower(200, 100), nil, nil, 0)
	assert.Equal(t, 0, res.DurationSec)
	assert.Empty(t, res.Intervals)
}

func TestDetectIntervalsSingleSprint(t *testing.T) {
	// 300 s at 150 W with a 15 s burst at 420 W (1.68x FTP)
	power := constPower(150, 300)
	for i := 120; i < 135; i++ {
		power[i] = 420
	}

	res := DetectIntervals(power, nil, nil, 250)
	assertPartition(t, res)

	var sprint *schema.IntervalSummary
	for i := range res.Intervals {
		if res.Intervals[i].Classification == schema.ClassSprint {
			require.Nil(t, sprint, "expected exactly one sprint interval")
			sprint = &res.Intervals[i]
		}
	}
	require.NotNil(t, sprint, "sprint interval not detected")
	assert.LessOrEqual(t, sprint.StartSec, 120)
	assert.GreaterOrEqual(t, sprint.EndSec, 135)

	for _, iv := range res.Intervals {
		if iv.Classification == schema.ClassSprint {
			continue
		}
		assert.Contains(t,
			[]schema.Classification{schema.ClassRecovery, schema.ClassEndurance},
			iv.Classification)
	}
}

func TestDetectIntervalsZ2Z1Repeats(t *testing.T) {
	// two full Z2/Z1 cycles: 300 s at 0.65 FTP, 100 s at 0.50 FTP, twice
	const ftp = 220
	var power []schema.Float
	for cycle := 0; cycle < 2; cycle++ {
		power = append(power, constPower(0.65*ftp, 300)...)
		power = append(power, constPower(0.50*ftp, 100)...)
	}

	res := DetectIntervals(power, nil, nil, ftp)
	assertPartition(t, res)

	require.NotEmpty(t, res.Repeats, "expected a z2-z1 repeat block")
	block := res.Repeats[0]
	assert.GreaterOrEqual(t, block.CycleCount, 2)
	assert.GreaterOrEqual(t, float64(block.Z2AvgRatio)-float64(block.Z1AvgRatio), 0.10)
	for _, leg := range block.Legs {
		assert.Equal(t, schema.ClassZ2Z1Repeats, leg.Classification)
		assert.GreaterOrEqual(t, leg.Duration(), 60)
	}
}

func TestDetectIntervalsMinimumRunLength(t *testing.T) {
	// steady ride with brief wobbles: every non-sprint interval of a
	// multi-interval result must last at least a minute
	power := constPower(180, 900)
	for i := 400; i < 420; i++ {
		power[i] = 260
	}

	res := DetectIntervals(power, nil, nil, 250)
	assertPartition(t, res)
	if len(res.Intervals) > 1 {
		for _, iv := range res.Intervals {
			if iv.Classification == schema.ClassSprint {
				continue
			}
			assert.GreaterOrEqual(t, iv.Duration(), 60)
		}
	}
}

func TestDetectIntervalsResamplesIrregularTimeline(t *testing.T) {
	// 10-second recording interval: the detector must stretch onto a
	// 1 Hz timeline before analysis
	n := 60
	power := make([]schema.Float, n)
	timeSec := make([]int, n)
	for i := 0; i < n; i++ {
		power[i] = 200
		timeSec[i] = i * 10
	}

	res := DetectIntervals(power, nil, timeSec, 250)
	assert.Equal(t, (n-1)*10+1, res.DurationSec)
	assertPartition(t, res)
}

func TestClassifyIntervalLadder(t *testing.T) {
	mk := func(ratio float64, dur int) schema.IntervalSummary {
		return schema.IntervalSummary{
			StartSec:   0,
			EndSec:     dur,
			PowerRatio: schema.Float(ratio),
			AvgPower:   schema.Float(ratio * 250),
			PeakPower:  schema.Float(ratio * 250),
		}
	}

	assert.Equal(t, schema.ClassAnaerobic, classifyInterval(mk(1.3, 120), 250))
	assert.Equal(t, schema.ClassVO2Max, classifyInterval(mk(1.1, 180), 250))
	assert.Equal(t, schema.ClassThreshold, classifyInterval(mk(1.0, 600), 250))
	assert.Equal(t, schema.ClassTempo, classifyInterval(mk(0.8, 600), 250))
	assert.Equal(t, schema.ClassEndurance, classifyInterval(mk(0.6, 600), 250))
	assert.Equal(t, schema.ClassRecovery, classifyInterval(mk(0.3, 600), 250))

	// short maximal effort
	assert.Equal(t, schema.ClassSprint, classifyInterval(mk(1.65, 10), 250))
}
