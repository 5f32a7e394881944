// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"context"
	"encoding/json"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/providerclient"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/resampler"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// providerStreamKeys is every stream type requested from the provider
// in one call; absent types simply come back missing.
var providerStreamKeys = []string{
	"time", "distance", "latlng", "altitude", "velocity_smooth",
	"heartrate", "cadence", "watts", "temp", "moving", "grade_smooth",
}

// ProviderIngest adapts the provider's JSON streams into a
// SampleTable. One instance serves one activity fetch; the client
// behind it is shared and rate-limited.
type ProviderIngest struct {
	Client      *providerclient.Client
	AccessToken string

	// filled by LoadSampleTable for reuse by the same request
	Activity *providerclient.ProviderActivity
}

// NewProviderIngest builds an ingest bound to one access token.
func NewProviderIngest(accessToken string) *ProviderIngest {
	return &ProviderIngest{
		Client:      providerclient.GetClient(),
		AccessToken: accessToken,
	}
}

// LoadSampleTable fetches the activity document plus raw streams and
// normalizes them: a low-resolution recording (average inter-sample
// gap above 5s) is zero-order-hold upsampled onto a 1 Hz timeline of
// moving_time+1 points. A moving_time of 0 (aborted activity) skips
// the upsampling silently.
func (pi *ProviderIngest) LoadSampleTable(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, error) {
	if activity.ExternalID == "" {
		return nil, apperror.BadRequest("activity %d has no provider id", activity.ID)
	}

	act, err := pi.Client.GetActivity(ctx, activity.ExternalID, pi.AccessToken)
	if err != nil {
		return nil, err
	}
	pi.Activity = act

	streams, err := pi.Client.GetStreams(ctx, activity.ExternalID, pi.AccessToken, providerStreamKeys)
	if err != nil {
		return nil, err
	}

	timeSec := decodeIntStream(streams["time"])
	if len(timeSec) == 0 {
		// no explicit time stream: assume 1 Hz
		n := longestStream(streams)
		timeSec = make([]int, n)
		for i := range timeSec {
			timeSec[i] = i
		}
	}

	t := &schema.SampleTable{
		TimeSec:      timeSec,
		DistanceM:    decodeFloatStream(streams["distance"], len(timeSec)),
		AltitudeM:    decodeFloatStream(streams["altitude"], len(timeSec)),
		SpeedMps:     decodeFloatStream(streams["velocity_smooth"], len(timeSec)),
		HeartRateBpm: decodeFloatStream(streams["heartrate"], len(timeSec)),
		CadenceRpm:   decodeFloatStream(streams["cadence"], len(timeSec)),
		PowerW:       decodeFloatStream(streams["watts"], len(timeSec)),
		TemperatureC: decodeFloatStream(streams["temp"], len(timeSec)),
	}
	if lat, lng, ok := decodeLatLngStream(streams["latlng"], len(timeSec)); ok {
		t.Latitude = lat
		t.Longitude = lng
	}

	if resampler.IsLowResolution(t.TimeSec) && act.MovingTime > 0 {
		upsampleTable(t, act.MovingTime+1)
	}

	return t, nil
}

// LoadSession translates the provider's activity document totals into
// a SessionSummary.
func (pi *ProviderIngest) LoadSession(ctx context.Context, activity *schema.ActivityRecord) (*schema.SessionSummary, error) {
	act := pi.Activity
	if act == nil {
		var err error
		act, err = pi.Client.GetActivity(ctx, activity.ExternalID, pi.AccessToken)
		if err != nil {
			return nil, err
		}
		pi.Activity = act
	}

	s := &schema.SessionSummary{
		TotalDistanceM:  schema.Float(act.Distance),
		TotalTimerTimeS: schema.Float(act.MovingTime),
		AvgSpeedMps:     schema.NaN(),
		TotalAscentM:    schema.NaN(),
		TotalDescentM:   schema.NaN(),
		AvgHeartRate:    schema.NaN(),
		MaxHeartRate:    schema.NaN(),
		AvgPowerW:       schema.NaN(),
		MaxPowerW:       schema.NaN(),
		AvgCadenceRpm:   schema.NaN(),
		MaxCadenceRpm:   schema.NaN(),
	}
	if act.MovingTime > 0 && act.Distance > 0 {
		s.AvgSpeedMps = schema.Float(act.Distance / float64(act.MovingTime))
	}
	return s, nil
}

// LoadAthlete fetches the provider-side athlete profile for this
// token; its FTP is adopted for one run when the local athlete has
// none set.
func (pi *ProviderIngest) LoadAthlete(ctx context.Context) (*providerclient.ProviderAthlete, error) {
	return pi.Client.GetAthlete(ctx, pi.AccessToken)
}

func longestStream(streams map[string]*providerclient.ProviderStream) int {
	max := 0
	for _, s := range streams {
		if s == nil {
			continue
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(s.Data, &raw); err == nil && len(raw) > max {
			max = len(raw)
		}
	}
	return max
}

func decodeIntStream(s *providerclient.ProviderStream) []int {
	if s == nil || len(s.Data) == 0 {
		return nil
	}
	var vals []json.Number
	if err := json.Unmarshal(s.Data, &vals); err != nil {
		log.Warnf("decoding %s stream: %v", s.Type, err)
		return nil
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		f, err := v.Float64()
		if err != nil {
			continue
		}
		out[i] = int(f)
	}
	return out
}

// decodeFloatStream decodes a numeric stream, mapping JSON null
// (dropout) to NaN, truncated or NaN-padded to n samples so all table
// columns stay aligned.
func decodeFloatStream(s *providerclient.ProviderStream, n int) []schema.Float {
	if s == nil || len(s.Data) == 0 {
		return nil
	}
	var vals []schema.Float
	if err := json.Unmarshal(s.Data, &vals); err != nil {
		log.Warnf("decoding %s stream: %v", s.Type, err)
		return nil
	}
	return fitLength(vals, n)
}

func decodeLatLngStream(s *providerclient.ProviderStream, n int) (lat, lng []schema.Float, ok bool) {
	if s == nil || len(s.Data) == 0 {
		return nil, nil, false
	}
	var pairs [][2]schema.Float
	if err := json.Unmarshal(s.Data, &pairs); err != nil {
		log.Warnf("decoding latlng stream: %v", err)
		return nil, nil, false
	}
	lat = make([]schema.Float, len(pairs))
	lng = make([]schema.Float, len(pairs))
	for i, p := range pairs {
		lat[i] = p[0]
		lng[i] = p[1]
	}
	return fitLength(lat, n), fitLength(lng, n), true
}

// fitLength pads (with NaN) or truncates a column to exactly n
// samples, the table-wide length invariant.
func fitLength(col []schema.Float, n int) []schema.Float {
	if len(col) == n {
		return col
	}
	if len(col) > n {
		return col[:n]
	}
	out := make([]schema.Float, n)
	copy(out, col)
	for i := len(col); i < n; i++ {
		out[i] = schema.NaN()
	}
	return out
}

func upsampleTable(t *schema.SampleTable, targetLen int) {
	timeSec := t.TimeSec

	up := func(col []schema.Float) []schema.Float {
		if col == nil {
			return nil
		}
		return resampler.ZeroOrderHold(col, timeSec, targetLen)
	}
	t.DistanceM = up(t.DistanceM)
	t.AltitudeM = up(t.AltitudeM)
	t.SpeedMps = up(t.SpeedMps)
	t.HeartRateBpm = up(t.HeartRateBpm)
	t.CadenceRpm = up(t.CadenceRpm)
	t.PowerW = up(t.PowerW)
	t.TemperatureC = up(t.TemperatureC)
	t.Latitude = up(t.Latitude)
	t.Longitude = up(t.Longitude)

	uniform := make([]int, targetLen)
	for i := range uniform {
		uniform[i] = i
	}
	t.TimeSec = uniform
}
