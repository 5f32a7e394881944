// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"math"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// EnrichDerivedStreams fills in the derived columns of a freshly
// ingested SampleTable: power/HR ratio, SPI, torque, VAM, W' balance,
// best-power curve and elapsed time. A column is only computed if its
// inputs are present and the column is still nil — re-running the
// enrichment on an already enriched table is a no-op.
func EnrichDerivedStreams(t *schema.SampleTable, athlete *schema.AthleteProfile) {
	n := t.Len()
	if n == 0 {
		return
	}

	if t.ElapsedTime == nil {
		elapsed := make([]int, n)
		copy(elapsed, t.TimeSec)
		t.ElapsedTime = elapsed
	}

	hasPower := len(t.PowerW) == n
	hasHR := len(t.HeartRateBpm) == n
	hasCadence := len(t.CadenceRpm) == n
	hasAltitude := len(t.AltitudeM) == n

	if t.PowerHrRatio == nil && hasPower && hasHR {
		t.PowerHrRatio = powerHrRatio(t.PowerW, t.HeartRateBpm)
	}
	if t.SPI == nil && hasPower && hasCadence {
		t.SPI = strokePowerIndex(t.PowerW, t.CadenceRpm)
	}
	if t.Torque == nil && hasPower && hasCadence {
		t.Torque = torque(t.PowerW, t.CadenceRpm)
	}
	if t.VAM == nil && hasAltitude {
		t.VAM = verticalAscentRate(t.AltitudeM, t.TimeSec)
	}
	if t.WBalanceKJ == nil && hasPower && athlete != nil {
		t.WBalanceKJ = wPrimeBalance(t.PowerW, athlete.FTPWatts, athlete.WPrimeJoules)
	}
	if t.BestPowerCurve == nil && hasPower {
		t.BestPowerCurve = BestPowerCurve(t.PowerW)
	}
}

func powerHrRatio(power, hr []schema.Float) []schema.Float {
	out := make([]schema.Float, len(power))
	for i := range power {
		p, h := float64(power[i]), float64(hr[i])
		if p > 0 && h > 0 && !math.IsNaN(p) && !math.IsNaN(h) {
			out[i] = schema.Float(round2(p / h))
		}
	}
	return out
}

func strokePowerIndex(power, cadence []schema.Float) []schema.Float {
	out := make([]schema.Float, len(power))
	for i := range power {
		p, c := float64(power[i]), float64(cadence[i])
		if p > 0 && c > 0 && !math.IsNaN(p) && !math.IsNaN(c) {
			out[i] = schema.Float(round2(p / c))
		}
	}
	return out
}

func torque(power, cadence []schema.Float) []schema.Float {
	out := make([]schema.Float, len(power))
	for i := range power {
		p, c := float64(power[i]), float64(cadence[i])
		if p > 0 && c > 0 && !math.IsNaN(p) && !math.IsNaN(c) {
			out[i] = schema.Float(math.Round(p / (c * 2 * math.Pi / 60)))
		}
	}
	return out
}

// verticalAscentRate computes the VAM stream: for each sample, the
// climb rate over a trailing window of at most 50 seconds, scaled by
// the 1.4 correction factor and clamped to [-5000, 5000] m/h. Samples
// whose window collapses to zero time yield 0.
func verticalAscentRate(alt []schema.Float, timeSec []int) []schema.Float {
	n := len(alt)
	out := make([]schema.Float, n)
	j := 0
	for i := 0; i < n; i++ {
		// advance j to the earliest index with t[i]-t[j] <= 50
		for j < i && timeSec[i]-timeSec[j] > 50 {
			j++
		}
		dt := timeSec[i] - timeSec[j]
		if dt <= 0 {
			continue
		}
		a0, a1 := float64(alt[j]), float64(alt[i])
		if math.IsNaN(a0) || math.IsNaN(a1) {
			continue
		}
		vam := (a1 - a0) / (float64(dt) / 3600) * 1.4
		if vam > 5000 {
			vam = 5000
		} else if vam < -5000 {
			vam = -5000
		}
		out[i] = schema.Float(vam)
	}
	return out
}

// wPrimeBalance integrates the simplified Skiba model with CP = FTP,
// tau = 546s: above 1.05*CP the balance depletes by (p-CP) joules per
// second, below 0.95*CP it recharges towards W' with time constant
// tau, clamped to [0, W']. The output stream is in kJ with one
// decimal. A non-positive W' yields an all-zero stream.
func wPrimeBalance(power []schema.Float, ftp, wPrime int) []schema.Float {
	n := len(power)
	out := make([]schema.Float, n)
	if wPrime <= 0 || ftp <= 0 {
		return out
	}

	const tau = 546.0
	cp := float64(ftp)
	wp := float64(wPrime)
	balance := wp
	for i := 0; i < n; i++ {
		p := float64(power[i])
		if math.IsNaN(p) {
			p = 0
		}
		if p > 1.05*cp {
			balance -= p - cp
		} else if p < 0.95*cp {
			balance += (wp - balance) * (1.0 / tau)
		}
		if balance < 0 {
			balance = 0
		} else if balance > wp {
			balance = wp
		}
		out[i] = schema.Float(round1(balance / 1000))
	}
	return out
}
