// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rollup recomputes an athlete's training-load state
// (ATL/CTL/TSB) from the persisted per-activity TSS history.
package rollup

import (
	"math"
	"time"

	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/pkg/log"
)

// Result is one recomputed fitness/fatigue/form triple.
type Result struct {
	ATL int `json:"atl"`
	CTL int `json:"ctl"`
	TSB int `json:"tsb"`
}

// Recompute derives the rolling training load for an athlete at a
// reference date: ATL is the 7-day TSS mean, CTL the 42-day mean, TSB
// their difference, all rounded to integers and computed only over
// activities with a positive TSS. The result is persisted on the
// athlete row and as that date's daily-state snapshot.
func Recompute(athleteID int64, ref time.Time) (*Result, error) {
	activities := repository.GetActivityRepository()

	// both windows are closed at ref; one range query serves the two sums
	from := ref.AddDate(0, 0, -42)
	to := ref.Add(time.Second)
	history, err := activities.ActivitiesInRange(athleteID, from, to)
	if err != nil {
		return nil, err
	}

	weekCutoff := ref.AddDate(0, 0, -7)
	var sum7, sum42 int
	for _, a := range history {
		if a.TSS <= 0 {
			continue
		}
		sum42 += a.TSS
		if !a.StartTime.Before(weekCutoff) {
			sum7 += a.TSS
		}
	}

	res := &Result{
		ATL: int(math.Round(float64(sum7) / 7)),
		CTL: int(math.Round(float64(sum42) / 42)),
	}
	res.TSB = res.CTL - res.ATL

	athletes := repository.GetAthleteRepository()
	if err := athletes.UpdateTrainingLoad(athleteID, float64(res.ATL), float64(res.CTL), float64(res.TSB)); err != nil {
		return nil, err
	}

	date := ref.UTC().Format("2006-01-02")
	if err := athletes.UpsertDailyState(athleteID, date, float64(res.CTL), float64(res.ATL), statusFor(res.TSB)); err != nil {
		// the athlete row already carries the fresh values
		log.Warnf("persisting daily state for athlete %d on %s: %v", athleteID, date, err)
	}

	return res, nil
}

// statusFor maps form to the coarse daily status label shown in trend
// views.
func statusFor(tsb int) string {
	switch {
	case tsb > 15:
		return "fresh"
	case tsb < -25:
		return "overreached"
	case tsb < -10:
		return "fatigued"
	default:
		return "neutral"
	}
}
