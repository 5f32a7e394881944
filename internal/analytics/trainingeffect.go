// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"math"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// TrainingStressScore is IF^2 * hours * 100 with IF = avgPower/ftp.
// Zero if either input is invalid.
func TrainingStressScore(avgPower schema.Float, durationSec, ftp int) int {
	ap := float64(avgPower)
	if math.IsNaN(ap) || ap <= 0 || durationSec <= 0 || ftp <= 0 {
		return 0
	}
	intensity := ap / float64(ftp)
	return int(math.Round(intensity * intensity * (float64(durationSec) / 3600) * 100))
}

// AerobicEffect is min(5.0, IF*hours + 0.5) with IF computed from
// normalized power, one decimal. NaN if NP or FTP are unusable.
func AerobicEffect(power []schema.Float, durationSec, ftp int) schema.Float {
	np := NormalizedPower(power)
	if np.IsNaN() || ftp <= 0 || durationSec <= 0 {
		return schema.NaN()
	}
	intensity := float64(np) / float64(ftp)
	effect := intensity*(float64(durationSec)/3600) + 0.5
	if effect > 5.0 {
		effect = 5.0
	}
	return schema.Float(round1(effect))
}

// AnaerobicEffect combines the peak 30-second power and the anaerobic
// work capacity spent above FTP:
// min(4.0, 0.1*peak30/FTP + 0.05*capacityKJ), one decimal.
func AnaerobicEffect(power []schema.Float, ftp int) schema.Float {
	if ftp <= 0 || len(power) == 0 {
		return schema.NaN()
	}
	peak30 := BestWindowAverage(power, 30)
	if peak30.IsNaN() {
		peak30 = AveragePower(power)
	}
	if peak30.IsNaN() {
		return schema.NaN()
	}

	var capacityJ float64
	for _, v := range powerValues(power) {
		if v > float64(ftp) {
			capacityJ += v - float64(ftp)
		}
	}
	effect := 0.1*float64(peak30)/float64(ftp) + 0.05*(capacityJ/1000)
	if effect > 4.0 {
		effect = 4.0
	}
	return schema.Float(round1(effect))
}

// benefitDurationTooShort is emitted verbatim when the activity is too
// short to judge. Kept as the original product's literal.
const benefitDurationTooShort = "时间过短, 无法判断"

// benefitRule is one row of the ordered primary-training-benefit
// ruleset: a name, a set of boolean conditions, and how many of them
// must hold for the rule to match.
type benefitRule struct {
	name       string
	required   int
	conditions func(in benefitTerms) []bool
}

// BenefitInput carries everything the ruleset looks at.
type BenefitInput struct {
	ZonePercent     []float64 // 7 power-zone percentages, 0..100
	ZoneDurationSec []int     // same-index durations
	DurationMin     float64
	AerobicEffect   float64
	AnaerobicEffect float64
	FTP             int
	MaxPower        float64
}

// benefitTerms extends the raw input with the two derived ratios every
// rule cuts on: aerobic-to-anaerobic effect and max power over FTP.
type benefitTerms struct {
	BenefitInput
	AeToNeRatio    float64
	IntensityRatio float64
}

// TrainingBenefit is the ruleset verdict: one primary label plus the
// remaining matched rules as secondary.
type TrainingBenefit struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary,omitempty"`
}

var benefitRules = []benefitRule{
	{
		name:     "Recovery",
		required: 3,
		conditions: func(in benefitTerms) []bool {
			return []bool{
				in.ZonePercent[0] > 85,
				in.AerobicEffect < 1.5,
				in.AnaerobicEffect < 0.5,
				in.DurationMin < 90,
			}
		},
	},
	{
		name:     "Endurance (LSD)",
		required: 4,
		conditions: func(in benefitTerms) []bool {
			return []bool{
				in.ZonePercent[1] > 60,
				in.AerobicEffect > 2.5,
				in.AnaerobicEffect < 1.0,
				in.DurationMin >= 90,
				in.AeToNeRatio > 3.0,
			}
		},
	},
	{
		name:     "Tempo",
		required: 4,
		conditions: func(in benefitTerms) []bool {
			return []bool{
				in.ZonePercent[2] > 40,
				in.ZonePercent[3] < 30,
				in.AerobicEffect > 2.0,
				in.AnaerobicEffect < 1.5,
				in.AeToNeRatio > 1.5,
			}
		},
	},
	{
		name:     "Threshold",
		required: 4,
		conditions: func(in benefitTerms) []bool {
			return []bool{
				in.ZonePercent[3] > 35,
				in.ZonePercent[4] < 25,
				in.AerobicEffect > 3.0,
				in.AnaerobicEffect > 1.0,
				1.0 < in.AeToNeRatio && in.AeToNeRatio < 2.5,
			}
		},
	},
	{
		name:     "VO2Max Intervals",
		required: 4,
		conditions: func(in benefitTerms) []bool {
			return []bool{
				in.ZonePercent[4] > 25,
				in.ZoneDurationSec[4] > 8*60,
				in.AnaerobicEffect > 2.5,
				in.IntensityRatio > 1.3,
				in.AeToNeRatio < 1.5,
			}
		},
	},
	{
		name:     "Anaerobic Intervals",
		required: 4,
		conditions: func(in benefitTerms) []bool {
			return []bool{
				in.ZonePercent[5] > 15,
				in.AnaerobicEffect > 3.0,
				in.IntensityRatio > 1.5,
				in.AeToNeRatio < 1.0,
				in.ZoneDurationSec[5] > 3*60,
			}
		},
	},
	{
		name:     "Sprint Training",
		required: 4,
		conditions: func(in benefitTerms) []bool {
			return []bool{
				in.ZonePercent[6] > 8,
				in.AnaerobicEffect > 3.5,
				in.IntensityRatio > 1.8,
				in.ZoneDurationSec[6] > 60,
				in.AeToNeRatio < 0.5,
			}
		},
	},
}

// PrimaryTrainingBenefit evaluates the fixed ordered ruleset: the
// first rule whose satisfied-condition count reaches its threshold
// becomes the primary benefit, every later matching rule is reported
// as secondary. Rides under 5 minutes short-circuit; no match yields
// "Mixed".
func PrimaryTrainingBenefit(in BenefitInput) TrainingBenefit {
	if in.DurationMin < 5 {
		return TrainingBenefit{Primary: benefitDurationTooShort}
	}
	if len(in.ZonePercent) < 7 || len(in.ZoneDurationSec) < 7 {
		return TrainingBenefit{Primary: "Mixed"}
	}

	terms := benefitTerms{
		BenefitInput: in,
		AeToNeRatio:  in.AerobicEffect / (in.AnaerobicEffect + 0.001),
	}
	if in.FTP > 0 {
		terms.IntensityRatio = in.MaxPower / float64(in.FTP)
	}

	var matched []string
	for _, rule := range benefitRules {
		satisfied := 0
		for _, ok := range rule.conditions(terms) {
			if ok {
				satisfied++
			}
		}
		if satisfied >= rule.required {
			matched = append(matched, rule.name)
		}
	}
	if len(matched) == 0 {
		return TrainingBenefit{Primary: "Mixed"}
	}
	return TrainingBenefit{Primary: matched[0], Secondary: matched[1:]}
}
