// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package service

import "math"

// ftpDurationGrid are the MMP durations sampled from the best-power
// curve for the critical-power fit.
var ftpDurationGrid = []int{120, 180, 300, 480, 720, 900, 1200, 1800, 2400, 3600}

// longDurationWindows are the anchors the long-duration component
// prefers, worked backwards from 60 minutes, each with its decay
// factor towards a one-hour effort.
var longDurationWindows = []struct {
	sec    int
	factor float64
}{
	{3600, 1.00},
	{3000, 0.97},
	{2700, 0.965},
	{2400, 0.96},
	{2100, 0.955},
	{1800, 0.95},
}

// FTPEstimate is the blended estimate over three complementary
// components: A (95% of the 20-minute best), B (critical power from a
// time-work regression) and C (long-duration anchor). Component
// values are NaN when the curve cannot support them.
type FTPEstimate struct {
	FTP        float64 // NaN when no component is available
	A, B, C    float64
	WeightA    float64
	WeightB    float64
	WeightC    float64
	Cov20      bool
	Cov40      bool
	Cov60      bool
	Confidence string
}

// mmpAt reads the mean maximal power for a duration off the curve;
// index sec-1 holds the sec-second best.
func mmpAt(curve []int, sec int) (float64, bool) {
	if sec <= 0 || sec > len(curve) {
		return 0, false
	}
	return float64(curve[sec-1]), true
}

// fitCriticalPower fits work = cp*t + w' by least squares over the
// sampled grid points, then drops residuals beyond two standard
// deviations and refits once. Needs at least two points.
func fitCriticalPower(durations, powers []float64) (cp, wPrime float64, ok bool) {
	fit := func(t, w []float64) (float64, float64, bool) {
		n := float64(len(t))
		var st, sw, stt, stw float64
		for i := range t {
			st += t[i]
			sw += w[i]
			stt += t[i] * t[i]
			stw += t[i] * w[i]
		}
		denom := n*stt - st*st
		if denom == 0 {
			return 0, 0, false
		}
		slope := (n*stw - st*sw) / denom
		return slope, (sw - slope*st) / n, true
	}

	if len(durations) < 2 {
		return 0, 0, false
	}
	work := make([]float64, len(durations))
	for i := range durations {
		work[i] = powers[i] * durations[i]
	}

	cp, wPrime, ok = fit(durations, work)
	if !ok {
		return 0, 0, false
	}

	residuals := make([]float64, len(work))
	var mean float64
	for i := range work {
		residuals[i] = work[i] - (cp*durations[i] + wPrime)
		mean += residuals[i]
	}
	mean /= float64(len(residuals))
	var variance float64
	for _, r := range residuals {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(residuals)))
	if std > 0 {
		var keptT, keptW []float64
		for i, r := range residuals {
			if math.Abs(r) <= 2*std {
				keptT = append(keptT, durations[i])
				keptW = append(keptW, work[i])
			}
		}
		if len(keptT) >= 2 && len(keptT) != len(durations) {
			if c, w, refitOK := fit(keptT, keptW); refitOK {
				cp, wPrime = c, w
			}
		}
	}
	return cp, wPrime, true
}

// longDurationComponent anchors the estimate on an actual long effort
// when one exists, falling back to projecting the CP model out to one
// hour.
func longDurationComponent(curve []int, cp, wPrime float64, cpOK bool) (float64, bool) {
	for _, w := range longDurationWindows {
		if mmp, ok := mmpAt(curve, w.sec); ok && mmp > 0 {
			return mmp * w.factor, true
		}
	}
	if cpOK {
		return (cp*3600 + wPrime) / 3600, true
	}
	return 0, false
}

func ftpConfidence(curve []int) string {
	switch {
	case len(curve) >= 1800:
		return "reliable"
	case len(curve) >= 900:
		return "medium"
	default:
		return "low"
	}
}

// estimateFTPDetail blends the three components over the athlete's
// best-power curve. Weights follow the coverage heuristic: the longer
// the observed curve, the more the long-duration anchor counts; below
// 20 minutes of coverage the CP fit dominates. Weights of absent
// components are redistributed over the rest.
func estimateFTPDetail(curve []int) FTPEstimate {
	est := FTPEstimate{
		FTP: math.NaN(), A: math.NaN(), B: math.NaN(), C: math.NaN(),
		Confidence: "none",
	}
	if len(curve) == 0 {
		return est
	}

	est.Cov20 = len(curve) >= 1200
	est.Cov40 = len(curve) >= 2400
	est.Cov60 = len(curve) >= 3600
	est.Confidence = ftpConfidence(curve)

	if p20, ok := mmpAt(curve, 1200); ok {
		est.A = p20 * 0.95
	}

	var durations, powers []float64
	for _, sec := range ftpDurationGrid {
		if mmp, ok := mmpAt(curve, sec); ok {
			durations = append(durations, float64(sec))
			powers = append(powers, mmp)
		}
	}
	cp, wPrime, cpOK := fitCriticalPower(durations, powers)
	if cpOK {
		est.B = cp
	}
	if c, ok := longDurationComponent(curve, cp, wPrime, cpOK); ok {
		est.C = c
	}

	switch {
	case est.Cov40 || est.Cov60:
		est.WeightA, est.WeightB, est.WeightC = 0.1, 0.4, 0.5
	case est.Cov20:
		est.WeightA, est.WeightB, est.WeightC = 0.3, 0.5, 0.2
	default:
		est.WeightA, est.WeightB, est.WeightC = 0.4, 0.6, 0.0
	}

	components := [3]float64{est.A, est.B, est.C}
	weights := [3]float64{est.WeightA, est.WeightB, est.WeightC}
	var total float64
	valid := 0
	for i, v := range components {
		if !math.IsNaN(v) {
			total += weights[i]
			valid++
		}
	}
	if valid == 0 {
		est.WeightA, est.WeightB, est.WeightC = 0, 0, 0
		return est
	}

	var norm [3]float64
	for i, v := range components {
		if math.IsNaN(v) {
			continue
		}
		if total > 0 {
			norm[i] = weights[i] / total
		} else {
			norm[i] = 1.0 / float64(valid)
		}
	}
	var blended float64
	for i, v := range components {
		if !math.IsNaN(v) {
			blended += v * norm[i]
		}
	}
	est.WeightA, est.WeightB, est.WeightC = norm[0], norm[1], norm[2]
	est.FTP = blended
	return est
}

// estimateFTP is the integer view the analysis flow consumes: the
// blended estimate rounded to whole watts, 0 when the curve supports
// no estimate at all (not enough history).
func estimateFTP(curve []int) int {
	est := estimateFTPDetail(curve)
	if math.IsNaN(est.FTP) || est.FTP <= 0 {
		return 0
	}
	return int(math.Round(est.FTP))
}
