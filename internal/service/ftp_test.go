// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hyperbolicCurve builds a best-power curve following the two-parameter
// model P(t) = cp + wPrime/t, the shape a real MMP curve approximates.
func hyperbolicCurve(n, cp, wPrime int) []int {
	curve := make([]int, n)
	for t := 1; t <= n; t++ {
		curve[t-1] = int(float64(cp) + float64(wPrime)/float64(t))
	}
	return curve
}

func TestEstimateFTPRecoversCriticalPower(t *testing.T) {
	est := estimateFTPDetail(hyperbolicCurve(3600, 250, 20000))

	// the time-work regression recovers the model's CP
	require.False(t, math.IsNaN(est.B))
	assert.InDelta(t, 250, est.B, 2)

	// FTP_A = 95% of the 20-minute best
	require.False(t, math.IsNaN(est.A))
	assert.InDelta(t, 0.95*(250+20000.0/1200), est.A, 2)

	// full coverage: the long-duration anchor is the 60-minute best
	require.True(t, est.Cov60)
	require.False(t, math.IsNaN(est.C))
	assert.InDelta(t, 250+20000.0/3600, est.C, 2)

	// blended result sits between CP and the short-duration estimates
	ftp := estimateFTP(hyperbolicCurve(3600, 250, 20000))
	assert.Greater(t, ftp, 248)
	assert.Less(t, ftp, 258)
}

func TestEstimateFTPCoverageWeights(t *testing.T) {
	long := estimateFTPDetail(hyperbolicCurve(3600, 250, 20000))
	assert.InDelta(t, 0.1, long.WeightA, 0.001)
	assert.InDelta(t, 0.4, long.WeightB, 0.001)
	assert.InDelta(t, 0.5, long.WeightC, 0.001)

	// 20-40 minutes of coverage: the CP fit dominates
	mid := estimateFTPDetail(hyperbolicCurve(1500, 250, 20000))
	require.True(t, mid.Cov20)
	require.False(t, mid.Cov40)
	assert.InDelta(t, 0.3, mid.WeightA, 0.001)
	assert.InDelta(t, 0.5, mid.WeightB, 0.001)
	assert.InDelta(t, 0.2, mid.WeightC, 0.001)
}

func TestEstimateFTPShortCurveFallsBackToCP(t *testing.T) {
	// a 10-minute curve has no 20-minute window; the estimate is the
	// CP fit alone (the absent components' weight is redistributed)
	curve := make([]int, 600)
	for i := range curve {
		curve[i] = 300
	}
	est := estimateFTPDetail(curve)
	assert.True(t, math.IsNaN(est.A))
	require.False(t, math.IsNaN(est.B))
	assert.InDelta(t, 300, est.B, 1)
	assert.InDelta(t, 1.0, est.WeightB, 0.001)

	assert.Equal(t, 300, estimateFTP(curve))
}

func TestEstimateFTPInsufficientHistory(t *testing.T) {
	assert.Zero(t, estimateFTP(nil))
	assert.Zero(t, estimateFTP(make([]int, 60)), "no grid point to fit")
	assert.Zero(t, estimateFTP(make([]int, 3600)), "all-zero curve")
}

func TestEstimateFTPConfidence(t *testing.T) {
	assert.Equal(t, "reliable", estimateFTPDetail(hyperbolicCurve(1800, 250, 20000)).Confidence)
	assert.Equal(t, "medium", estimateFTPDetail(hyperbolicCurve(1000, 250, 20000)).Confidence)
	assert.Equal(t, "low", estimateFTPDetail(hyperbolicCurve(400, 250, 20000)).Confidence)
	assert.Equal(t, "none", estimateFTPDetail(nil).Confidence)
}
