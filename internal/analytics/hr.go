// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"fmt"
	"math"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// FilterHeartRate drops invalid samples from a heart-rate stream:
// null, non-positive, outside the 30-220 bpm plausibility band, or
// jumping more than 50 bpm from the previous valid reading (optical
// sensor spike guard).
func FilterHeartRate(hr []schema.Float) []float64 {
	out := make([]float64, 0, len(hr))
	prev := math.NaN()
	for _, v := range hr {
		f := float64(v)
		if math.IsNaN(f) || f <= 0 || f < 30 || f > 220 {
			continue
		}
		if !math.IsNaN(prev) && math.Abs(f-prev) > 50 {
			continue
		}
		out = append(out, f)
		prev = f
	}
	return out
}

// HeartRateRecoveryRate is the maximum drop observed over any
// 60-second window, as a non-negative integer. NaN if the filtered
// series is shorter than the window.
func HeartRateRecoveryRate(hr []schema.Float) schema.Float {
	valid := FilterHeartRate(hr)
	if len(valid) <= 60 {
		return schema.NaN()
	}
	best := 0.0
	for i := 0; i+60 < len(valid); i++ {
		if drop := valid[i] - valid[i+60]; drop > best {
			best = drop
		}
	}
	return schema.Float(math.Trunc(best))
}

// EfficiencyIndex is normalized power divided by mean valid heart
// rate, two decimals. Only positive power samples enter the NP
// computation; NaN if either input has no valid samples.
func EfficiencyIndex(power, hr []schema.Float) schema.Float {
	validPower := make([]schema.Float, 0, len(power))
	for _, v := range power {
		if !v.IsNaN() && v > 0 {
			validPower = append(validPower, v)
		}
	}
	np := NormalizedPower(validPower)
	valid := FilterHeartRate(hr)
	if np.IsNaN() || len(valid) == 0 {
		return schema.NaN()
	}
	var sum float64
	for _, v := range valid {
		sum += v
	}
	mean := sum / float64(len(valid))
	if mean <= 0 {
		return schema.NaN()
	}
	return schema.Float(round2(float64(np) / mean))
}

// DecouplingRate compares aerobic efficiency between the two halves of
// the ride: (r1-r2)/r1*100 where r = mean power / mean HR per half,
// formatted "X.Y%". An absolute result above 30 is treated as spurious
// and reported as empty. The power and HR series are aligned
// positionally; samples where either side is invalid are skipped.
func DecouplingRate(power, hr []schema.Float) string {
	n := len(power)
	if len(hr) < n {
		n = len(hr)
	}
	if n < 2 {
		return ""
	}

	ratioOf := func(lo, hi int) (float64, bool) {
		var pSum, hSum float64
		var cnt int
		for i := lo; i < hi; i++ {
			p, h := float64(power[i]), float64(hr[i])
			if math.IsNaN(p) || math.IsNaN(h) || h < 30 || h > 220 {
				continue
			}
			pSum += p
			hSum += h
			cnt++
		}
		if cnt == 0 || hSum == 0 {
			return 0, false
		}
		return (pSum / float64(cnt)) / (hSum / float64(cnt)), true
	}

	r1, ok1 := ratioOf(0, n/2)
	r2, ok2 := ratioOf(n/2, n)
	if !ok1 || !ok2 || r1 == 0 {
		return ""
	}
	rate := (r1 - r2) / r1 * 100
	if math.Abs(rate) > 30 {
		return ""
	}
	return fmt.Sprintf("%.1f%%", rate)
}

// HeartRateLag estimates how many seconds heart rate trails power via
// cross-correlation of the mean-centered series. The lag is returned
// as an absolute second count only when the correlation peak reaches
// 0.3 of the product of the two series' norms (0.3*n for standardized
// series); a flatter peak means the two signals do not track each other
// well enough to trust the estimate and NaN is returned.
func HeartRateLag(power, hr []schema.Float) schema.Float {
	n := len(power)
	if len(hr) < n {
		n = len(hr)
	}
	if n < 2 {
		return schema.NaN()
	}

	p := make([]float64, n)
	h := make([]float64, n)
	var pMean, hMean float64
	for i := 0; i < n; i++ {
		pf, hf := float64(power[i]), float64(hr[i])
		if math.IsNaN(pf) {
			pf = 0
		}
		if math.IsNaN(hf) {
			hf = 0
		}
		p[i], h[i] = pf, hf
		pMean += pf
		hMean += hf
	}
	pMean /= float64(n)
	hMean /= float64(n)

	var pVar, hVar float64
	for i := 0; i < n; i++ {
		p[i] -= pMean
		h[i] -= hMean
		pVar += p[i] * p[i]
		hVar += h[i] * h[i]
	}
	if pVar == 0 || hVar == 0 {
		return schema.NaN()
	}
	pNorm := math.Sqrt(pVar)
	hNorm := math.Sqrt(hVar)

	// full cross-correlation: index k in [0, 2n-2] corresponds to
	// lag k-(n-1).
	bestCorr := math.Inf(-1)
	bestK := 0
	for k := 0; k < 2*n-1; k++ {
		lag := k - (n - 1)
		var c float64
		for i := 0; i < n; i++ {
			j := i + lag
			if j < 0 || j >= n {
				continue
			}
			c += p[i] * h[j]
		}
		if c > bestCorr {
			bestCorr = c
			bestK = k
		}
	}

	// the peak must reach 0.3 of the maximum achievable correlation
	if bestCorr/(pNorm*hNorm) < 0.3 {
		return schema.NaN()
	}
	lag := bestK - (n - 1)
	if lag < 0 {
		lag = -lag
	}
	return schema.Float(lag)
}

// AverageHeartRate is the mean of the filtered series, NaN if empty.
func AverageHeartRate(hr []schema.Float) schema.Float {
	valid := FilterHeartRate(hr)
	if len(valid) == 0 {
		return schema.NaN()
	}
	var sum float64
	for _, v := range valid {
		sum += v
	}
	return schema.Float(math.Round(sum / float64(len(valid))))
}

// MaxHeartRate is the highest filtered reading, NaN if empty.
func MaxHeartRate(hr []schema.Float) schema.Float {
	valid := FilterHeartRate(hr)
	if len(valid) == 0 {
		return schema.NaN()
	}
	best := valid[0]
	for _, v := range valid {
		if v > best {
			best = v
		}
	}
	return schema.Float(best)
}
