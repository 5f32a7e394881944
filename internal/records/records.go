// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package records maintains each athlete's personal bests: the top-3
// table per power window, longest ride and max elevation gain in the
// database, and the all-time best-power curve as one JSON document on
// disk.
package records

import (
	"sync"

	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

var (
	serviceOnce     sync.Once
	serviceInstance *Service
)

// Service wraps the wide personal-records row with the top-3 update
// semantics.
type Service struct {
	repo *repository.PowerRecordsRepository
}

// GetService returns the process-wide records service.
func GetService() *Service {
	serviceOnce.Do(func() {
		serviceInstance = &Service{repo: repository.GetPowerRecordsRepository()}
	})
	return serviceInstance
}

// UpdateBestPowers merges one activity's per-window best averages
// into the athlete's top-3 table and returns the promotions it
// caused. Submitting the same values for the same activity again is a
// no-op (ties keep the first-seen entry), which makes re-analysis
// idempotent.
func (s *Service) UpdateBestPowers(athleteID int64, bests map[string]schema.Float, activityID int64) ([]schema.Promotion, error) {
	row, err := s.repo.GetRow(athleteID)
	if err != nil {
		return nil, err
	}

	var promotions []schema.Promotion
	changed := false
	for _, key := range schema.PowerRecordWindows {
		value, ok := bests[key]
		if !ok || value.IsNaN() || value <= 0 {
			continue
		}
		slots := row.PowerRecords[key]
		if hasActivityValue(slots, value, activityID) {
			continue
		}
		newSlots, promo, placed := schema.UpdateTop3(slots, value, activityID)
		if !placed {
			continue
		}
		promo.Key = key
		row.PowerRecords[key] = newSlots
		promotions = append(promotions, promo)
		changed = true
	}

	if changed {
		if err := s.repo.SaveRow(row); err != nil {
			return nil, err
		}
	}
	return promotions, nil
}

// hasActivityValue reports whether a slot already records exactly this
// value for this activity — the signature of a re-run.
func hasActivityValue(slots [3]schema.RecordSlot, value schema.Float, activityID int64) bool {
	for _, s := range slots {
		if s.SourceActivityID == activityID && s.Value == value {
			return true
		}
	}
	return false
}

// UpdateLongestRide merges one ride's distance (meters) into the
// top-3 longest rides.
func (s *Service) UpdateLongestRide(athleteID int64, meters schema.Float, activityID int64) (*schema.Promotion, error) {
	if meters.IsNaN() || meters <= 0 {
		return nil, nil
	}
	row, err := s.repo.GetRow(athleteID)
	if err != nil {
		return nil, err
	}
	if hasActivityValue(row.LongestRide, meters, activityID) {
		return nil, nil
	}
	newSlots, promo, placed := schema.UpdateTop3(row.LongestRide, meters, activityID)
	if !placed {
		return nil, nil
	}
	promo.Key = "longest_ride"
	row.LongestRide = newSlots
	if err := s.repo.SaveRow(row); err != nil {
		return nil, err
	}
	return &promo, nil
}

// UpdateMaxElevationGain merges one ride's climb (meters) into the
// top-3 elevation gains.
func (s *Service) UpdateMaxElevationGain(athleteID int64, meters schema.Float, activityID int64) (*schema.Promotion, error) {
	if meters.IsNaN() || meters <= 0 {
		return nil, nil
	}
	row, err := s.repo.GetRow(athleteID)
	if err != nil {
		return nil, err
	}
	if hasActivityValue(row.MaxElevationGain, meters, activityID) {
		return nil, nil
	}
	newSlots, promo, placed := schema.UpdateTop3(row.MaxElevationGain, meters, activityID)
	if !placed {
		return nil, nil
	}
	promo.Key = "max_elevation_gain"
	row.MaxElevationGain = newSlots
	if err := s.repo.SaveRow(row); err != nil {
		return nil, err
	}
	return &promo, nil
}

// WindowBests extracts the per-window best averages from a best-power
// curve, the input UpdateBestPowers wants.
func WindowBests(curve []int) map[string]schema.Float {
	out := make(map[string]schema.Float, len(schema.PowerRecordWindows))
	for _, key := range schema.PowerRecordWindows {
		sec := schema.WindowSeconds[key]
		if sec <= len(curve) {
			out[key] = schema.Float(curve[sec-1])
		}
	}
	return out
}
