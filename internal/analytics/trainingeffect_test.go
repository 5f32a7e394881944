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

func TestTrainingStressScore(t *testing.T) {
	// one hour exactly at FTP is 100 TSS by definition
	assert.Equal(t, 100, TrainingStressScore(250, 3600, 250))
	// half the intensity: IF^2 scales it to a quarter
	assert.Equal(t, 25, TrainingStressScore(125, 3600, 250))

	assert.Zero(t, TrainingStressScore(schema.NaN(), 3600, 250))
	assert.Zero(t, TrainingStressScore(250, 0, 250))
	assert.Zero(t, TrainingStressScore(250, 3600, 0))
}

func TestAerobicEffect(t *testing.T) {
	power := constPower(250, 3600)
	effect := AerobicEffect(power, 3600, 250)
	require.False(t, effect.IsNaN())
	// IF 1.0 for one hour: 1.0 + 0.5
	assert.InDelta(t, 1.5, float64(effect), 0.01)

	// capped at 5.0
	long := constPower(250, 3600)
	capped := AerobicEffect(long, 10*3600, 250)
	assert.InDelta(t, 5.0, float64(capped), 0.001)

	assert.True(t, AerobicEffect(power, 3600, 0).IsNaN())
}

func TestAnaerobicEffect(t *testing.T) {
	// steady sub-FTP riding has no anaerobic component beyond the
	// peak-30s term
	power := constPower(200, 600)
	effect := AnaerobicEffect(power, 250)
	require.False(t, effect.IsNaN())
	assert.InDelta(t, 0.1, float64(effect), 0.01)

	assert.True(t, AnaerobicEffect(power, 0).IsNaN())
}

func TestPrimaryTrainingBenefitTooShort(t *testing.T) {
	b := PrimaryTrainingBenefit(BenefitInput{DurationMin: 3})
	assert.Equal(t, "时间过短, 无法判断", b.Primary)
}

func TestPrimaryTrainingBenefitRecovery(t *testing.T) {
	b := PrimaryTrainingBenefit(BenefitInput{
		ZonePercent:     []float64{90, 10, 0, 0, 0, 0, 0},
		ZoneDurationSec: []int{2700, 300, 0, 0, 0, 0, 0},
		DurationMin:     50,
		AerobicEffect:   1.0,
		AnaerobicEffect: 0.1,
		FTP:             250,
		MaxPower:        280,
	})
	assert.Equal(t, "Recovery", b.Primary)
}

func TestPrimaryTrainingBenefitThreshold(t *testing.T) {
	b := PrimaryTrainingBenefit(BenefitInput{
		ZonePercent:     []float64{10, 20, 20, 40, 10, 0, 0},
		ZoneDurationSec: []int{360, 720, 720, 1440, 360, 0, 0},
		DurationMin:     60,
		AerobicEffect:   3.5,
		AnaerobicEffect: 1.5,
		FTP:             250,
		MaxPower:        400,
	})
	assert.Equal(t, "Threshold", b.Primary)
	assert.Empty(t, b.Secondary)
}

func TestPrimaryTrainingBenefitAnaerobicWithSprintSecondary(t *testing.T) {
	b := PrimaryTrainingBenefit(BenefitInput{
		ZonePercent:     []float64{20, 10, 10, 10, 10, 20, 20},
		ZoneDurationSec: []int{240, 120, 120, 120, 120, 240, 240},
		DurationMin:     20,
		AerobicEffect:   1.5,
		AnaerobicEffect: 3.8,
		FTP:             250,
		MaxPower:        550,
	})
	// both interval rules fire; table order makes anaerobic primary
	assert.Equal(t, "Anaerobic Intervals", b.Primary)
	assert.Contains(t, b.Secondary, "Sprint Training")
}

func TestPrimaryTrainingBenefitMixed(t *testing.T) {
	b := PrimaryTrainingBenefit(BenefitInput{
		ZonePercent:     []float64{30, 20, 10, 5, 5, 0, 0},
		ZoneDurationSec: []int{540, 360, 180, 90, 90, 0, 0},
		DurationMin:     20,
		AerobicEffect:   1.8,
		AnaerobicEffect: 1.2,
		FTP:             250,
		MaxPower:        350,
	})
	assert.Equal(t, "Mixed", b.Primary)
}
