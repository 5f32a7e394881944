// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// intervalsDir is where each activity's last detection result is
// persisted for the intervals endpoints.
const intervalsDir = "data/intervals"

// IntervalsResponse is the persisted (and served) full interval
// document of one activity.
type IntervalsResponse struct {
	ActivityID  int64                    `json:"activity_id"`
	DurationSec int                      `json:"duration_sec"`
	FTPWatts    int                      `json:"ftp"`
	Intervals   []schema.IntervalSummary `json:"intervals"`
	Repeats     []schema.RepeatBlock     `json:"repeats"`
}

func intervalsPath(activityID int64) string {
	return filepath.Join(intervalsDir, fmt.Sprintf("%d.json", activityID))
}

// saveIntervalsFile persists the detection result, best-effort.
func (s *ActivityService) saveIntervalsFile(activityID int64, result *schema.IntervalDetectionResult) {
	if result == nil {
		return
	}
	doc := IntervalsResponse{
		ActivityID:  activityID,
		DurationSec: result.DurationSec,
		FTPWatts:    result.FTPWatts,
		Intervals:   result.Intervals,
		Repeats:     result.Repeats,
	}
	raw, err := json.Marshal(&doc)
	if err != nil {
		log.Errorf("encoding intervals for activity %d: %v", activityID, err)
		return
	}
	if err := os.MkdirAll(intervalsDir, 0o755); err != nil {
		log.Errorf("creating intervals dir: %v", err)
		return
	}
	path := intervalsPath(activityID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		log.Errorf("writing intervals file for activity %d: %v", activityID, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		log.Errorf("renaming intervals file for activity %d: %v", activityID, err)
	}
}

// LoadIntervals reads the persisted detection result of a prior
// analysis; NotFound when the activity was never analyzed.
func (s *ActivityService) LoadIntervals(activityID int64) (*IntervalsResponse, error) {
	raw, err := os.ReadFile(intervalsPath(activityID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.NotFound("no saved intervals for activity %d", activityID)
		}
		return nil, apperror.Internal(err, "reading intervals file")
	}
	var doc IntervalsResponse
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.Internal(err, "decoding intervals file")
	}
	return &doc, nil
}
