// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"math"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// movingThresholdMps is the speed below which a sample counts as
// stopped rather than moving.
const movingThresholdMps = 0.3

// AverageSpeed is the mean over moving samples in m/s, NaN if the
// rider never moved.
func AverageSpeed(speed []schema.Float) schema.Float {
	var sum float64
	var n int
	for _, v := range speed {
		f := float64(v)
		if math.IsNaN(f) || f < movingThresholdMps {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return schema.NaN()
	}
	return schema.Float(round2(sum / float64(n)))
}

// MaxSpeed is the highest sample in m/s, NaN on an empty stream.
func MaxSpeed(speed []schema.Float) schema.Float {
	best := math.NaN()
	for _, v := range speed {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		if math.IsNaN(best) || f > best {
			best = f
		}
	}
	if math.IsNaN(best) {
		return schema.NaN()
	}
	return schema.Float(round2(best))
}

// MovingTime counts the seconds spent above the moving threshold.
func MovingTime(speed []schema.Float) int {
	var sec int
	for _, v := range speed {
		f := float64(v)
		if !math.IsNaN(f) && f >= movingThresholdMps {
			sec++
		}
	}
	return sec
}

// TotalDistance reads the final value of the non-decreasing distance
// column, in meters. NaN on an empty stream.
func TotalDistance(dist []schema.Float) schema.Float {
	for i := len(dist) - 1; i >= 0; i-- {
		if f := float64(dist[i]); !math.IsNaN(f) {
			return schema.Float(f)
		}
	}
	return schema.NaN()
}
