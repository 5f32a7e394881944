// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package resampler

import (
	"errors"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// SimpleResampler decimates data by keeping every step-th point, where
// step = newFrequency / oldFrequency. Series shorter than 100 points
// are returned unchanged — decimating a short stream loses more shape
// than it saves in payload size.
func SimpleResampler(data []schema.Float, oldFrequency int64, newFrequency int64) ([]schema.Float, error) {
	if oldFrequency == 0 || newFrequency == 0 {
		return nil, errors.New("either old or new frequency is set to 0")
	}

	if newFrequency%oldFrequency != 0 {
		return nil, errors.New("new sampling frequency should be multiple of the old frequency")
	}

	step := int(newFrequency / oldFrequency)
	newDataLength := len(data) / step

	if newDataLength == 0 || len(data) < 100 || newDataLength >= len(data) {
		return data, nil
	}

	newData := make([]schema.Float, newDataLength)

	for i := 0; i < newDataLength; i++ {
		newData[i] = data[i*step]
	}

	return newData, nil
}

// resolutionStep maps a requested resolution onto the decimation step
// for a series of n samples: medium keeps ~25% of points, low keeps
// ~5%, high keeps everything. The step is max(1, floor(n/target)).
func resolutionStep(n int, res schema.Resolution) int {
	var target int
	switch res {
	case schema.ResolutionMedium:
		target = n / 4
	case schema.ResolutionLow:
		target = n / 20
	default:
		return 1
	}
	if target <= 0 {
		return 1
	}
	step := n / target
	if step < 1 {
		step = 1
	}
	return step
}

func decimateInts(col []int, step, target int) []int {
	if col == nil {
		return nil
	}
	out := make([]int, 0, target)
	for i := 0; i < len(col) && len(out) < target; i += step {
		out = append(out, col[i])
	}
	return out
}

// DownsampleTable returns a copy of the table resampled to the
// requested resolution, every float column decimated through
// SimpleResampler with the same step so the column-length invariant
// holds. Tables under 100 samples pass through unchanged (the same
// short-series guard SimpleResampler applies), and best_power is never
// downsampled — it is always returned at full resolution.
func DownsampleTable(t *schema.SampleTable, res schema.Resolution) *schema.SampleTable {
	n := t.Len()
	if res == schema.ResolutionHigh || n < 100 {
		return t
	}
	step := resolutionStep(n, res)
	if step <= 1 {
		return t
	}
	target := n / step

	down := func(col []schema.Float) []schema.Float {
		if col == nil {
			return nil
		}
		out, err := SimpleResampler(col, 1, int64(step))
		if err != nil {
			return col
		}
		return out
	}

	out := &schema.SampleTable{
		TimeSec:      decimateInts(t.TimeSec, step, target),
		DistanceM:    down(t.DistanceM),
		AltitudeM:    down(t.AltitudeM),
		SpeedMps:     down(t.SpeedMps),
		PowerW:       down(t.PowerW),
		HeartRateBpm: down(t.HeartRateBpm),
		CadenceRpm:   down(t.CadenceRpm),
		TemperatureC: down(t.TemperatureC),
		Latitude:     down(t.Latitude),
		Longitude:    down(t.Longitude),
		VAM:          down(t.VAM),
		Torque:       down(t.Torque),
		SPI:          down(t.SPI),
		PowerHrRatio: down(t.PowerHrRatio),
		WBalanceKJ:   down(t.WBalanceKJ),
		ElapsedTime:  decimateInts(t.ElapsedTime, step, target),

		// best_power is never downsampled.
		BestPowerCurve: t.BestPowerCurve,
	}
	return out
}

// ZeroOrderHold stretches a low-resolution series onto a 1 Hz timeline
// of targetLen points: each output sample holds the value of the last
// input sample whose timestamp is <= that second. Provider streams
// recorded at >1s intervals are upsampled through this before entering
// a SampleTable. A targetLen <= 0 skips upsampling and returns the
// input unchanged (an aborted activity can report moving_time of 0).
func ZeroOrderHold(data []schema.Float, timeSec []int, targetLen int) []schema.Float {
	if targetLen <= 0 || len(data) == 0 || len(data) != len(timeSec) {
		return data
	}

	out := make([]schema.Float, targetLen)
	src := 0
	for t := 0; t < targetLen; t++ {
		for src+1 < len(timeSec) && timeSec[src+1] <= t {
			src++
		}
		out[t] = data[src]
	}
	return out
}

// IsLowResolution reports whether the average inter-sample interval of
// timeSec exceeds 5 seconds, the signal that a provider stream needs
// zero-order-hold upsampling before analysis.
func IsLowResolution(timeSec []int) bool {
	if len(timeSec) < 2 {
		return false
	}
	span := timeSec[len(timeSec)-1] - timeSec[0]
	return float64(span)/float64(len(timeSec)-1) > 5.0
}
