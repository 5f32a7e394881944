// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"math"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// FilterAltitude drops implausible altitude samples: null, above
// 5000 m, below -500 m, or jumping more than 100 m from the previous
// kept sample (barometer glitch).
func FilterAltitude(alt []schema.Float) []float64 {
	out := make([]float64, 0, len(alt))
	prev := math.NaN()
	for _, v := range alt {
		f := float64(v)
		if math.IsNaN(f) || f > 5000 || f < -500 {
			continue
		}
		if !math.IsNaN(prev) && math.Abs(f-prev) > 100 {
			continue
		}
		out = append(out, f)
		prev = f
	}
	return out
}

// ElevationGain sums the positive successive deltas of the filtered
// altitude series, in meters. NaN if fewer than two samples survive
// the filter.
func ElevationGain(alt []schema.Float) schema.Float {
	valid := FilterAltitude(alt)
	if len(valid) < 2 {
		return schema.NaN()
	}
	var gain float64
	for i := 1; i < len(valid); i++ {
		if d := valid[i] - valid[i-1]; d > 0 {
			gain += d
		}
	}
	return schema.Float(math.Round(gain))
}

// TotalDescent walks the raw series detecting descending runs and
// sums (run start - run minimum) over all of them, a trailing
// unclosed run included.
func TotalDescent(alt []schema.Float) schema.Float {
	if len(alt) < 2 {
		return schema.NaN()
	}

	var descent float64
	descending := false
	startAlt := float64(alt[0])
	minAlt := float64(alt[0])
	for i := 1; i < len(alt); i++ {
		prev, curr := float64(alt[i-1]), float64(alt[i])
		if curr < prev {
			if !descending {
				descending = true
				startAlt = prev
				minAlt = curr
			} else if curr < minAlt {
				minAlt = curr
			}
		} else if descending {
			descent += startAlt - minAlt
			descending = false
		}
	}
	if descending {
		descent += startAlt - minAlt
	}
	return schema.Float(math.Trunc(descent))
}

// MaxGrade scans 5-sample windows of aligned altitude/distance and
// returns the steepest absolute grade percentage seen, considering
// only windows covering between 50 and 1000 meters of ground and
// discarding grades beyond 50% as sensor noise. NaN when no window
// qualifies.
func MaxGrade(alt, dist []schema.Float) schema.Float {
	n := len(alt)
	if len(dist) < n {
		n = len(dist)
	}
	best := math.NaN()
	for i := 5; i < n; i++ {
		a0, a1 := float64(alt[i-5]), float64(alt[i])
		d0, d1 := float64(dist[i-5]), float64(dist[i])
		if math.IsNaN(a0) || math.IsNaN(a1) || math.IsNaN(d0) || math.IsNaN(d1) {
			continue
		}
		dd := d1 - d0
		if dd <= 50 || dd >= 1000 {
			continue
		}
		g := math.Abs((a1 - a0) / dd * 100)
		if g > 50 {
			continue
		}
		if math.IsNaN(best) || g > best {
			best = g
		}
	}
	if math.IsNaN(best) {
		return schema.NaN()
	}
	return schema.Float(round2(best))
}

// UphillDownhillDistance slides the same overlapping 5-sample window
// as MaxGrade and, for every window covering more than 50 m of ground,
// adds that window's whole ground span to the uphill total when it
// rises more than 1 m or to the downhill total when it falls more than
// 1 m. Windows overlap, so the same stretch of ground is counted by up
// to five windows. Both totals are reported in km with two decimals.
func UphillDownhillDistance(alt, dist []schema.Float) (uphillKm, downhillKm schema.Float) {
	n := len(alt)
	if len(dist) < n {
		n = len(dist)
	}
	if n <= 5 {
		return schema.NaN(), schema.NaN()
	}
	var up, down float64
	for i := 5; i < n; i++ {
		a0, a1 := float64(alt[i-5]), float64(alt[i])
		d0, d1 := float64(dist[i-5]), float64(dist[i])
		if math.IsNaN(a0) || math.IsNaN(a1) || math.IsNaN(d0) || math.IsNaN(d1) {
			continue
		}
		dd := d1 - d0
		if dd <= 50 {
			continue
		}
		da := a1 - a0
		if da > 1 {
			up += dd
		} else if da < -1 {
			down += dd
		}
	}
	return schema.Float(round2(up / 1000)), schema.Float(round2(down / 1000))
}

// MaxAltitude is the highest filtered reading, NaN if nothing
// survives the filter.
func MaxAltitude(alt []schema.Float) schema.Float {
	valid := FilterAltitude(alt)
	if len(valid) == 0 {
		return schema.NaN()
	}
	best := valid[0]
	for _, v := range valid {
		if v > best {
			best = v
		}
	}
	return schema.Float(math.Round(best))
}
