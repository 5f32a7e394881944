// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/tormoder/fit"
)

// FitDecoder decodes a FIT activity recording into the engine's
// sample table plus the session totals, when the file carries a
// session message.
type FitDecoder struct{}

// NewFitDecoder returns the default native recording decoder.
func NewFitDecoder() *FitDecoder {
	return &FitDecoder{}
}

// Decode reads a FIT file and builds one table row per record
// message, timestamped relative to the first record. Invalid sentinel
// values (0xFF / 0xFFFF fields, base-time timestamps) become NaN so a
// sensor dropout never reads as a zero measurement.
func (d *FitDecoder) Decode(r io.Reader) (*schema.SampleTable, *schema.SessionSummary, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("decode FIT file: %w", err)
	}

	activity, err := decoded.Activity()
	if err != nil {
		return nil, nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	if len(activity.Records) == 0 {
		return nil, nil, fmt.Errorf("activity file has no record messages")
	}

	records := make([]*fit.RecordMsg, 0, len(activity.Records))
	for _, rec := range activity.Records {
		if rec == nil || !validFitTime(rec.Timestamp) {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("activity file has no timestamped records")
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	start := records[0].Timestamp
	n := len(records)
	table := &schema.SampleTable{
		TimeSec:      make([]int, 0, n),
		DistanceM:    make([]schema.Float, 0, n),
		AltitudeM:    make([]schema.Float, 0, n),
		SpeedMps:     make([]schema.Float, 0, n),
		PowerW:       make([]schema.Float, 0, n),
		HeartRateBpm: make([]schema.Float, 0, n),
		CadenceRpm:   make([]schema.Float, 0, n),
		TemperatureC: make([]schema.Float, 0, n),
		Latitude:     make([]schema.Float, 0, n),
		Longitude:    make([]schema.Float, 0, n),
	}

	lastSec := -1
	for _, rec := range records {
		sec := int(rec.Timestamp.Sub(start) / time.Second)
		if sec <= lastSec {
			// duplicate second: keep the first sample
			continue
		}
		lastSec = sec

		table.TimeSec = append(table.TimeSec, sec)
		table.DistanceM = append(table.DistanceM, scaledOrNaN(rec.GetDistanceScaled()))
		table.AltitudeM = append(table.AltitudeM, recordAltitude(rec))
		table.SpeedMps = append(table.SpeedMps, recordSpeed(rec))
		table.PowerW = append(table.PowerW, uint16OrNaN(rec.Power))
		table.HeartRateBpm = append(table.HeartRateBpm, uint8OrNaN(rec.HeartRate))
		table.CadenceRpm = append(table.CadenceRpm, uint8OrNaN(rec.Cadence))
		table.TemperatureC = append(table.TemperatureC, int8OrNaN(rec.Temperature))
		table.Latitude = append(table.Latitude, schema.Float(rec.PositionLat.Degrees()))
		table.Longitude = append(table.Longitude, schema.Float(rec.PositionLong.Degrees()))
	}

	var session *schema.SessionSummary
	if len(activity.Sessions) > 0 {
		session = sessionSummary(activity.Sessions[0])
	}
	return table, session, nil
}

func sessionSummary(s *fit.SessionMsg) *schema.SessionSummary {
	return &schema.SessionSummary{
		TotalDistanceM:  scaledOrNaN(s.GetTotalDistanceScaled()),
		TotalTimerTimeS: scaledOrNaN(s.GetTotalTimerTimeScaled()),
		AvgSpeedMps:     scaledOrNaN(s.GetAvgSpeedScaled()),
		TotalAscentM:    uint16OrNaN(s.TotalAscent),
		TotalDescentM:   uint16OrNaN(s.TotalDescent),
		AvgHeartRate:    uint8OrNaN(s.AvgHeartRate),
		MaxHeartRate:    uint8OrNaN(s.MaxHeartRate),
		AvgPowerW:       uint16OrNaN(s.AvgPower),
		MaxPowerW:       uint16OrNaN(s.MaxPower),
		AvgCadenceRpm:   uint8OrNaN(s.AvgCadence),
		MaxCadenceRpm:   uint8OrNaN(s.MaxCadence),
	}
}

func validFitTime(t time.Time) bool {
	return !t.IsZero() && !fit.IsBaseTime(t)
}

func recordAltitude(rec *fit.RecordMsg) schema.Float {
	if alt := rec.GetEnhancedAltitudeScaled(); isFinite(alt) {
		return schema.Float(alt)
	}
	if alt := rec.GetAltitudeScaled(); isFinite(alt) {
		return schema.Float(alt)
	}
	return schema.NaN()
}

func recordSpeed(rec *fit.RecordMsg) schema.Float {
	if speed := rec.GetEnhancedSpeedScaled(); isFinite(speed) && speed >= 0 {
		return schema.Float(speed)
	}
	if speed := rec.GetSpeedScaled(); isFinite(speed) && speed >= 0 {
		return schema.Float(speed)
	}
	return schema.NaN()
}

func scaledOrNaN(v float64) schema.Float {
	if !isFinite(v) {
		return schema.NaN()
	}
	return schema.Float(v)
}

func uint8OrNaN(v uint8) schema.Float {
	if v == math.MaxUint8 {
		return schema.NaN()
	}
	return schema.Float(v)
}

func uint16OrNaN(v uint16) schema.Float {
	if v == math.MaxUint16 {
		return schema.NaN()
	}
	return schema.Float(v)
}

func int8OrNaN(v int8) schema.Float {
	if v == math.MaxInt8 {
		return schema.NaN()
	}
	return schema.Float(v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
