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

// ZoneBucket is one band of a zone distribution. Max is -1 for the
// open-ended top band.
type ZoneBucket struct {
	Zone                string `json:"zone"`
	Min                 int    `json:"min"`
	Max                 int    `json:"max"`
	TimeSec             int    `json:"time_sec"`
	TimeFormatted       string `json:"time_formatted"`
	PercentageFormatted string `json:"percentage_formatted"`
}

// powerZoneFractions are the 7-band boundaries relative to FTP; the
// last zone is open-ended.
var powerZoneFractions = []float64{0.55, 0.75, 0.90, 1.05, 1.20, 1.50}

// hrMaxFractions are the 5-band boundaries relative to max heart rate.
var hrMaxFractions = []float64{0.60, 0.70, 0.80, 0.90}

// hrThresholdFractions are the 7-band boundaries relative to LTHR.
var hrThresholdFractions = []float64{0.85, 0.90, 0.95, 1.00, 1.02, 1.06}

// bucketize assigns each positive sample of values to exactly one of
// the bands cut at reference*fractions, then formats the result.
// Samples that are null or <= 0 are excluded from the denominator.
func bucketize(values []schema.Float, reference int, fractions []float64) []ZoneBucket {
	nZones := len(fractions) + 1
	counts := make([]int, nZones)
	total := 0

	bounds := make([]float64, len(fractions))
	for i, f := range fractions {
		bounds[i] = f * float64(reference)
	}

	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || f <= 0 {
			continue
		}
		total++
		z := nZones - 1
		for i, b := range bounds {
			if f < b {
				z = i
				break
			}
		}
		counts[z]++
	}

	out := make([]ZoneBucket, nZones)
	for z := 0; z < nZones; z++ {
		min := 0
		if z > 0 {
			min = int(math.Round(bounds[z-1]))
		}
		max := -1
		if z < len(bounds) {
			max = int(math.Round(bounds[z]))
		}
		pct := 0.0
		if total > 0 {
			pct = float64(counts[z]) / float64(total) * 100
		}
		out[z] = ZoneBucket{
			Zone:                fmt.Sprintf("Z%d", z+1),
			Min:                 min,
			Max:                 max,
			TimeSec:             counts[z],
			TimeFormatted:       FormatDuration(counts[z]),
			PercentageFormatted: fmt.Sprintf("%.1f%%", pct),
		}
	}
	return out
}

// PowerZones buckets power samples into the 7 FTP-relative bands. Nil
// if FTP is not positive.
func PowerZones(power []schema.Float, ftp int) []ZoneBucket {
	if ftp <= 0 {
		return nil
	}
	return bucketize(power, ftp, powerZoneFractions)
}

// HeartRateZonesByMax buckets heart-rate samples into 5 bands relative
// to the athlete's maximum heart rate. Nil if maxHR is not positive.
func HeartRateZonesByMax(hr []schema.Float, maxHR int) []ZoneBucket {
	if maxHR <= 0 {
		return nil
	}
	return bucketize(hr, maxHR, hrMaxFractions)
}

// HeartRateZonesByThreshold buckets heart-rate samples into 7 bands
// relative to the lactate threshold heart rate. Nil if LTHR is not
// positive.
func HeartRateZonesByThreshold(hr []schema.Float, lthr int) []ZoneBucket {
	if lthr <= 0 {
		return nil
	}
	return bucketize(hr, lthr, hrThresholdFractions)
}

// zonePercentages extracts the raw per-band fractions (0..100) from a
// bucket list, the numeric input the training-benefit ruleset wants.
func zonePercentages(buckets []ZoneBucket) []float64 {
	total := 0
	for _, b := range buckets {
		total += b.TimeSec
	}
	out := make([]float64, len(buckets))
	if total == 0 {
		return out
	}
	for i, b := range buckets {
		out[i] = float64(b.TimeSec) / float64(total) * 100
	}
	return out
}
