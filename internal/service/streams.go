// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package service

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/cc-analytics/activity-engine/internal/analytics"
	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/pkg/resampler"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// validMetricNames is the closed set the per-metric endpoint accepts.
var validMetricNames = map[string]bool{
	"overall": true, "power": true, "heartrate": true, "cadence": true,
	"speed": true, "altitude": true, "temp": true, "training_effect": true,
	"best_power": true, "zones": true,
}

// ValidMetricName reports whether name addresses a composite block.
func ValidMetricName(name string) bool {
	return validMetricNames[name]
}

// GetMetric answers one per-metric request: from the latest cached
// composite document when possible, re-running the full analysis when
// forced or when nothing is cached yet.
func (s *ActivityService) GetMetric(ctx context.Context, activityID int64, name string, force bool, providerToken string) (json.RawMessage, error) {
	if !ValidMetricName(name) {
		return nil, apperror.BadRequest("unknown metric %q", name)
	}

	if !force && s.results.Enabled() {
		raw, err := s.results.GetMetric(activityID, name)
		if err != nil {
			return nil, err
		}
		if raw != nil {
			return raw, nil
		}
	}

	result, err := s.GetAllData(ctx, AnalysisRequest{
		ActivityID:       activityID,
		ProviderToken:    providerToken,
		ForceRecalculate: force,
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	full, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.Internal(err, "encoding composite result")
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(full, &doc); err != nil {
		return nil, apperror.Internal(err, "re-decoding composite result")
	}
	return doc[name], nil
}

// loadEnrichedTable resolves the full-resolution table for the stream
// endpoints, enriched so derived columns are addressable.
func (s *ActivityService) loadEnrichedTable(ctx context.Context, activityID int64) (*schema.SampleTable, error) {
	activity, err := s.activities.GetActivity(activityID)
	if err != nil {
		return nil, err
	}
	table, err := s.streams.GetRaw(ctx, activity)
	if err != nil {
		return nil, err
	}

	athlete, err := s.athletes.GetAthlete(activity.AthleteID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	analytics.EnrichDerivedStreams(table, athlete)
	return table, nil
}

// AvailableStreams lists the stream names with non-trivial data for
// one activity.
func (s *ActivityService) AvailableStreams(ctx context.Context, activityID int64) ([]schema.StreamKey, error) {
	table, err := s.loadEnrichedTable(ctx, activityID)
	if err != nil {
		return nil, err
	}
	avail := table.AvailableStreams()
	out := make([]schema.StreamKey, 0, len(avail))
	for k := range avail {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// StreamPayload is one stream endpoint response.
type StreamPayload struct {
	Type schema.StreamKey `json:"type"`
	Data any              `json:"data"`
}

// GetStream serves one stream column at the requested resolution.
func (s *ActivityService) GetStream(ctx context.Context, activityID int64, key schema.StreamKey, resolution schema.Resolution) (*StreamPayload, error) {
	payloads, err := s.GetMultiStreams(ctx, activityID, []schema.StreamKey{key}, resolution)
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, apperror.NotFound("activity %d has no %s stream", activityID, key)
	}
	return &payloads[0], nil
}

// GetMultiStreams serves several stream columns in one pass over the
// table. Unknown keys are rejected; known keys without data are
// omitted.
func (s *ActivityService) GetMultiStreams(ctx context.Context, activityID int64, keys []schema.StreamKey, resolution schema.Resolution) ([]StreamPayload, error) {
	for _, k := range keys {
		if !validStreamKey(k) {
			return nil, apperror.BadRequest("unknown stream key %q", k)
		}
	}

	table, err := s.loadEnrichedTable(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if resolution == "" {
		resolution = schema.ResolutionHigh
	}
	down := resampler.DownsampleTable(table, resolution)

	out := make([]StreamPayload, 0, len(keys))
	for _, k := range keys {
		if data, ok := analytics.StreamData(down, k); ok {
			out = append(out, StreamPayload{Type: k, Data: data})
		}
	}
	return out, nil
}

var streamKeySet = map[schema.StreamKey]bool{
	schema.StreamTime: true, schema.StreamDistance: true, schema.StreamLatLng: true,
	schema.StreamAltitude: true, schema.StreamVelocitySmooth: true,
	schema.StreamHeartrate: true, schema.StreamCadence: true, schema.StreamWatts: true,
	schema.StreamTemp: true, schema.StreamMoving: true, schema.StreamGradeSmooth: true,
	schema.StreamBestPower: true, schema.StreamTorque: true, schema.StreamSPI: true,
	schema.StreamPowerHrRatio: true, schema.StreamWBalance: true, schema.StreamVAM: true,
}

func validStreamKey(k schema.StreamKey) bool {
	return streamKeySet[k]
}

// ParseStreamKeys validates a comma-splitted key list from the HTTP
// layer.
func ParseStreamKeys(raw []string) ([]schema.StreamKey, error) {
	out := make([]schema.StreamKey, 0, len(raw))
	for _, r := range raw {
		k := schema.StreamKey(r)
		if !validStreamKey(k) {
			return nil, apperror.BadRequest("unknown stream key %q", r)
		}
		out = append(out, k)
	}
	return out, nil
}
