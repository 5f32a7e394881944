// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"math"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// powerValues flattens a power column to float64, mapping NaN (sensor
// dropout) and negative readings to 0. Power analysis treats a dropout
// as coasting, not as a gap.
func powerValues(col []schema.Float) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		f := float64(v)
		if math.IsNaN(f) || f < 0 {
			f = 0
		}
		out[i] = f
	}
	return out
}

// NormalizedPower is the 4th root of the mean of the 4th powers of a
// 30-second rolling mean of the power series, rounded to the nearest
// integer. The rolling window is shorter at the start of the series
// until 30 samples have been seen. Returns NaN on an empty series.
func NormalizedPower(power []schema.Float) schema.Float {
	p := powerValues(power)
	if len(p) == 0 {
		return schema.NaN()
	}

	const window = 30
	var sum float64 // current window sum, O(n) slide
	var quadSum float64
	for i := range p {
		sum += p[i]
		n := i + 1
		if i >= window {
			sum -= p[i-window]
			n = window
		}
		mean := sum / float64(n)
		quadSum += mean * mean * mean * mean
	}
	np := math.Pow(quadSum/float64(len(p)), 0.25)
	return schema.Float(math.Round(np))
}

// prefixSums returns S where S[i] = p[0]+...+p[i-1], S[0] = 0.
func prefixSums(p []float64) []float64 {
	s := make([]float64, len(p)+1)
	for i, v := range p {
		s[i+1] = s[i] + v
	}
	return s
}

// BestWindowAverage returns the maximum arithmetic mean over any
// contiguous window of w samples, or NaN if the series is shorter
// than w or w is not positive.
func BestWindowAverage(power []schema.Float, w int) schema.Float {
	p := powerValues(power)
	if w <= 0 || len(p) < w {
		return schema.NaN()
	}
	s := prefixSums(p)
	best := math.Inf(-1)
	for i := 0; i+w <= len(p); i++ {
		if avg := (s[i+w] - s[i]) / float64(w); avg > best {
			best = avg
		}
	}
	return schema.Float(best)
}

// BestPowerCurve computes, for every window length w in [1, n], the
// highest average power sustained over any contiguous w samples. The
// inner step is a prefix-sum subtraction so the total work is O(n^2)
// arithmetic over contiguous memory, no per-window re-aggregation.
func BestPowerCurve(power []schema.Float) []int {
	p := powerValues(power)
	n := len(p)
	if n == 0 {
		return nil
	}
	s := prefixSums(p)
	curve := make([]int, n)
	for w := 1; w <= n; w++ {
		best := 0.0
		for i := 0; i+w <= n; i++ {
			if sum := s[i+w] - s[i]; sum > best {
				best = sum
			}
		}
		curve[w-1] = int(math.Round(best / float64(w)))
	}
	return curve
}

// WorkAboveFTP sums the per-sample power excess over FTP, reported as
// truncated kilojoules. Zero if FTP is not positive.
func WorkAboveFTP(power []schema.Float, ftp int) int {
	if ftp <= 0 {
		return 0
	}
	var joules float64
	for _, v := range powerValues(power) {
		if v > float64(ftp) {
			joules += v - float64(ftp)
		}
	}
	return int(joules / 1000)
}

// WBalanceDecline reports how far the W' balance dropped from its
// starting value: first - min, one decimal. NaN on an empty series.
func WBalanceDecline(wbal []schema.Float) schema.Float {
	if len(wbal) == 0 {
		return schema.NaN()
	}
	first := float64(wbal[0])
	minV := first
	for _, v := range wbal {
		if f := float64(v); !math.IsNaN(f) && f < minV {
			minV = f
		}
	}
	return schema.Float(round1(first - minV))
}

// AveragePower is the arithmetic mean over non-NaN samples, NaN if
// none exist.
func AveragePower(power []schema.Float) schema.Float {
	var sum float64
	var n int
	for _, v := range power {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return schema.NaN()
	}
	return schema.Float(sum / float64(n))
}

// MaxPower is the highest non-NaN sample, NaN if none exist.
func MaxPower(power []schema.Float) schema.Float {
	best := math.Inf(-1)
	found := false
	for _, v := range power {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		found = true
		if f > best {
			best = f
		}
	}
	if !found {
		return schema.NaN()
	}
	return schema.Float(best)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
