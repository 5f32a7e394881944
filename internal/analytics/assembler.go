// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package analytics

import (
	"math"
	"sort"

	"github.com/cc-analytics/activity-engine/pkg/resampler"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// OverallMetrics is the ride-level summary block of the composite
// response. Session totals win over stream re-aggregation when the
// ingest supplied them.
type OverallMetrics struct {
	DurationSec       int          `json:"duration_sec"`
	DurationFormatted string       `json:"duration_formatted"`
	MovingTimeSec     int          `json:"moving_time_sec"`
	DistanceKm        schema.Float `json:"distance_km"`
	AvgSpeedKmh       schema.Float `json:"avg_speed_kmh"`
	AvgPower          schema.Float `json:"avg_power"`
	AvgHeartRate      schema.Float `json:"avg_heart_rate"`
	ElevationGainM    schema.Float `json:"elevation_gain_m"`
}

// PowerMetrics is the power block.
type PowerMetrics struct {
	AvgPower          schema.Float `json:"avg_power"`
	MaxPower          schema.Float `json:"max_power"`
	NormalizedPower   schema.Float `json:"normalized_power"`
	IntensityFactor   schema.Float `json:"intensity_factor"`
	TSS               int          `json:"tss"`
	WorkAboveFtpKj    int          `json:"work_above_ftp_kj"`
	WBalanceDeclineKj schema.Float `json:"w_balance_decline_kj"`
	EfficiencyFactor  schema.Float `json:"efficiency_factor"`
}

// HeartRateMetrics is the heart-rate block.
type HeartRateMetrics struct {
	AvgHeartRate    schema.Float `json:"avg_heart_rate"`
	MaxHeartRate    schema.Float `json:"max_heart_rate"`
	RecoveryRate    schema.Float `json:"recovery_rate"`
	EfficiencyIndex schema.Float `json:"efficiency_index"`
	DecouplingRate  string       `json:"decoupling_rate,omitempty"`
	HeartRateLagSec schema.Float `json:"heart_rate_lag_sec"`
}

// CadenceMetrics is the cadence block; averages skip zero samples
// (coasting).
type CadenceMetrics struct {
	AvgCadence schema.Float `json:"avg_cadence"`
	MaxCadence schema.Float `json:"max_cadence"`
}

// SpeedMetrics is the speed block.
type SpeedMetrics struct {
	AvgSpeedKmh         schema.Float `json:"avg_speed_kmh"`
	MaxSpeedKmh         schema.Float `json:"max_speed_kmh"`
	MovingTimeSec       int          `json:"moving_time_sec"`
	MovingTimeFormatted string       `json:"moving_time_formatted"`
	DistanceKm          schema.Float `json:"distance_km"`
}

// AltitudeMetrics is the altitude block.
type AltitudeMetrics struct {
	ElevationGainM schema.Float `json:"elevation_gain_m"`
	TotalDescentM  schema.Float `json:"total_descent_m"`
	MaxAltitudeM   schema.Float `json:"max_altitude_m"`
	MaxGradePct    schema.Float `json:"max_grade_pct"`
	UphillKm       schema.Float `json:"uphill_km"`
	DownhillKm     schema.Float `json:"downhill_km"`
}

// TempMetrics is the temperature block.
type TempMetrics struct {
	AvgTempC schema.Float `json:"avg_temp_c"`
	MaxTempC schema.Float `json:"max_temp_c"`
	MinTempC schema.Float `json:"min_temp_c"`
}

// TrainingEffectMetrics is the training-effect block.
type TrainingEffectMetrics struct {
	TSS             int             `json:"tss"`
	IntensityFactor schema.Float    `json:"intensity_factor"`
	AerobicEffect   schema.Float    `json:"aerobic_effect"`
	AnaerobicEffect schema.Float    `json:"anaerobic_effect"`
	PrimaryBenefit  TrainingBenefit `json:"primary_benefit"`
}

// ZoneMetrics carries both zone distributions; HeartrateType records
// which reference ("max" or "threshold") the heart-rate bands were cut
// against.
type ZoneMetrics struct {
	Power         []ZoneBucket `json:"power,omitempty"`
	Heartrate     []ZoneBucket `json:"heartrate,omitempty"`
	HeartrateType string       `json:"heartrate_type,omitempty"`
}

// CompositeResult is the full "get all data" response. Its top-level
// JSON keys are the metric names the per-metric endpoints address, so
// a cached composite document can answer them without re-analysis.
type CompositeResult struct {
	ActivityID       int64                           `json:"activity_id"`
	Resolution       schema.Resolution               `json:"resolution"`
	AvailableStreams []schema.StreamKey              `json:"available_streams"`
	Overall          *OverallMetrics                 `json:"overall,omitempty"`
	Power            *PowerMetrics                   `json:"power,omitempty"`
	Heartrate        *HeartRateMetrics               `json:"heartrate,omitempty"`
	Cadence          *CadenceMetrics                 `json:"cadence,omitempty"`
	Speed            *SpeedMetrics                   `json:"speed,omitempty"`
	Altitude         *AltitudeMetrics                `json:"altitude,omitempty"`
	Temp             *TempMetrics                    `json:"temp,omitempty"`
	TrainingEffect   *TrainingEffectMetrics          `json:"training_effect,omitempty"`
	BestPower        []int                           `json:"best_power,omitempty"`
	Zones            *ZoneMetrics                    `json:"zones,omitempty"`
	Intervals        *schema.IntervalDetectionResult `json:"intervals,omitempty"`
	Streams          map[schema.StreamKey]any        `json:"streams,omitempty"`
	Promotions       []schema.Promotion              `json:"promotions,omitempty"`
}

// AssembleInput bundles everything the assembler combines.
type AssembleInput struct {
	ActivityID int64
	Table      *schema.SampleTable
	Session    *schema.SessionSummary
	Athlete    *schema.AthleteProfile
	Resolution schema.Resolution
	Keys       []schema.StreamKey
	Intervals  *schema.IntervalDetectionResult
	Promotions []schema.Promotion
}

// Assemble runs every per-domain computation over the (already
// enriched) sample table and combines the results into the composite
// response. Domains whose input stream is empty come out nil, per the
// null-over-exception convention.
func Assemble(in AssembleInput) *CompositeResult {
	t := in.Table
	avail := t.AvailableStreams()

	out := &CompositeResult{
		ActivityID:       in.ActivityID,
		Resolution:       in.Resolution,
		AvailableStreams: sortedStreamKeys(avail),
		Intervals:        in.Intervals,
		Promotions:       in.Promotions,
	}

	ftp := 0
	maxHR := 0
	lthr := 0
	useThreshold := false
	if in.Athlete != nil {
		ftp = in.Athlete.FTPWatts
		maxHR = in.Athlete.MaxHeartRateBpm
		lthr = in.Athlete.ThresholdHeartRateBpm
		useThreshold = in.Athlete.IsThresholdActive && lthr > 0
	}

	out.Overall = overallMetrics(t, in.Session)

	if avail[schema.StreamWatts] {
		out.Power = powerMetrics(t, in.Session, ftp)
		out.BestPower = t.BestPowerCurve
	}
	if avail[schema.StreamHeartrate] {
		out.Heartrate = heartRateMetrics(t, in.Session)
	}
	if avail[schema.StreamCadence] {
		out.Cadence = cadenceMetrics(t, in.Session)
	}
	if avail[schema.StreamVelocitySmooth] || avail[schema.StreamDistance] {
		out.Speed = speedMetrics(t, in.Session)
	}
	if avail[schema.StreamAltitude] {
		out.Altitude = altitudeMetrics(t, in.Session)
	}
	if avail[schema.StreamTemp] {
		out.Temp = tempMetrics(t)
	}
	if avail[schema.StreamWatts] && ftp > 0 {
		out.TrainingEffect = trainingEffectMetrics(t, ftp)
	}

	zones := &ZoneMetrics{}
	if avail[schema.StreamWatts] && ftp > 0 {
		zones.Power = PowerZones(t.PowerW, ftp)
	}
	if avail[schema.StreamHeartrate] {
		if useThreshold {
			zones.Heartrate = HeartRateZonesByThreshold(t.HeartRateBpm, lthr)
			zones.HeartrateType = "threshold"
		} else if maxHR > 0 {
			zones.Heartrate = HeartRateZonesByMax(t.HeartRateBpm, maxHR)
			zones.HeartrateType = "max"
		}
	}
	if zones.Power != nil || zones.Heartrate != nil {
		out.Zones = zones
	}

	if len(in.Keys) > 0 {
		out.Streams = streamPayload(t, in.Keys, in.Resolution)
	}

	return out
}

func sortedStreamKeys(avail map[schema.StreamKey]bool) []schema.StreamKey {
	out := make([]schema.StreamKey, 0, len(avail))
	for k := range avail {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func overallMetrics(t *schema.SampleTable, session *schema.SessionSummary) *OverallMetrics {
	n := t.Len()
	duration := 0
	if n > 0 {
		duration = t.TimeSec[n-1] + 1
	}

	o := &OverallMetrics{
		DurationSec:       duration,
		DurationFormatted: FormatDuration(duration),
		MovingTimeSec:     MovingTime(t.SpeedMps),
		AvgPower:          AveragePower(t.PowerW),
		AvgHeartRate:      AverageHeartRate(t.HeartRateBpm),
		ElevationGainM:    ElevationGain(t.AltitudeM),
	}

	dist := TotalDistance(t.DistanceM)
	avgSpeed := AverageSpeed(t.SpeedMps)
	if session != nil {
		if !session.TotalDistanceM.IsNaN() && session.TotalDistanceM > 0 {
			dist = session.TotalDistanceM
		}
		if !session.AvgSpeedMps.IsNaN() && session.AvgSpeedMps > 0 {
			avgSpeed = session.AvgSpeedMps
		}
		if !session.TotalTimerTimeS.IsNaN() && session.TotalTimerTimeS > 0 {
			o.MovingTimeSec = int(session.TotalTimerTimeS)
		}
		if !session.TotalAscentM.IsNaN() && session.TotalAscentM > 0 {
			o.ElevationGainM = session.TotalAscentM
		}
		if !session.AvgPowerW.IsNaN() && session.AvgPowerW > 0 {
			o.AvgPower = session.AvgPowerW
		}
		if !session.AvgHeartRate.IsNaN() && session.AvgHeartRate > 0 {
			o.AvgHeartRate = session.AvgHeartRate
		}
	}
	if !dist.IsNaN() {
		o.DistanceKm = schema.Float(round2(float64(dist) / 1000))
	} else {
		o.DistanceKm = schema.NaN()
	}
	if !avgSpeed.IsNaN() {
		o.AvgSpeedKmh = schema.Float(round2(float64(avgSpeed) * 3.6))
	} else {
		o.AvgSpeedKmh = schema.NaN()
	}
	return o
}

func powerMetrics(t *schema.SampleTable, session *schema.SessionSummary, ftp int) *PowerMetrics {
	avg := AveragePower(t.PowerW)
	max := MaxPower(t.PowerW)
	if session != nil {
		if !session.AvgPowerW.IsNaN() && session.AvgPowerW > 0 {
			avg = session.AvgPowerW
		}
		if !session.MaxPowerW.IsNaN() && session.MaxPowerW > 0 {
			max = session.MaxPowerW
		}
	}

	np := NormalizedPower(t.PowerW)
	intensity := schema.NaN()
	if !np.IsNaN() && ftp > 0 {
		intensity = schema.Float(round2(float64(np) / float64(ftp)))
	}

	duration := 0
	if n := t.Len(); n > 0 {
		duration = t.TimeSec[n-1] + 1
	}

	return &PowerMetrics{
		AvgPower:          roundFloat(avg),
		MaxPower:          roundFloat(max),
		NormalizedPower:   np,
		IntensityFactor:   intensity,
		TSS:               TrainingStressScore(avg, duration, ftp),
		WorkAboveFtpKj:    WorkAboveFTP(t.PowerW, ftp),
		WBalanceDeclineKj: WBalanceDecline(t.WBalanceKJ),
		EfficiencyFactor:  EfficiencyIndex(t.PowerW, t.HeartRateBpm),
	}
}

func heartRateMetrics(t *schema.SampleTable, session *schema.SessionSummary) *HeartRateMetrics {
	avg := AverageHeartRate(t.HeartRateBpm)
	max := MaxHeartRate(t.HeartRateBpm)
	if session != nil {
		if !session.AvgHeartRate.IsNaN() && session.AvgHeartRate > 0 {
			avg = session.AvgHeartRate
		}
		if !session.MaxHeartRate.IsNaN() && session.MaxHeartRate > 0 {
			max = session.MaxHeartRate
		}
	}
	return &HeartRateMetrics{
		AvgHeartRate:    avg,
		MaxHeartRate:    max,
		RecoveryRate:    HeartRateRecoveryRate(t.HeartRateBpm),
		EfficiencyIndex: EfficiencyIndex(t.PowerW, t.HeartRateBpm),
		DecouplingRate:  DecouplingRate(t.PowerW, t.HeartRateBpm),
		HeartRateLagSec: HeartRateLag(t.PowerW, t.HeartRateBpm),
	}
}

func cadenceMetrics(t *schema.SampleTable, session *schema.SessionSummary) *CadenceMetrics {
	var sum, max float64
	var n int
	for _, v := range t.CadenceRpm {
		f := float64(v)
		if math.IsNaN(f) || f <= 0 {
			continue
		}
		sum += f
		n++
		if f > max {
			max = f
		}
	}
	m := &CadenceMetrics{AvgCadence: schema.NaN(), MaxCadence: schema.NaN()}
	if n > 0 {
		m.AvgCadence = schema.Float(math.Round(sum / float64(n)))
		m.MaxCadence = schema.Float(max)
	}
	if session != nil {
		if !session.AvgCadenceRpm.IsNaN() && session.AvgCadenceRpm > 0 {
			m.AvgCadence = session.AvgCadenceRpm
		}
		if !session.MaxCadenceRpm.IsNaN() && session.MaxCadenceRpm > 0 {
			m.MaxCadence = session.MaxCadenceRpm
		}
	}
	return m
}

func speedMetrics(t *schema.SampleTable, session *schema.SessionSummary) *SpeedMetrics {
	avg := AverageSpeed(t.SpeedMps)
	max := MaxSpeed(t.SpeedMps)
	moving := MovingTime(t.SpeedMps)
	dist := TotalDistance(t.DistanceM)
	if session != nil {
		if !session.AvgSpeedMps.IsNaN() && session.AvgSpeedMps > 0 {
			avg = session.AvgSpeedMps
		}
		if !session.TotalTimerTimeS.IsNaN() && session.TotalTimerTimeS > 0 {
			moving = int(session.TotalTimerTimeS)
		}
		if !session.TotalDistanceM.IsNaN() && session.TotalDistanceM > 0 {
			dist = session.TotalDistanceM
		}
	}

	m := &SpeedMetrics{
		MovingTimeSec:       moving,
		MovingTimeFormatted: FormatDuration(moving),
		AvgSpeedKmh:         schema.NaN(),
		MaxSpeedKmh:         schema.NaN(),
		DistanceKm:          schema.NaN(),
	}
	if !avg.IsNaN() {
		m.AvgSpeedKmh = schema.Float(round2(float64(avg) * 3.6))
	}
	if !max.IsNaN() {
		m.MaxSpeedKmh = schema.Float(round2(float64(max) * 3.6))
	}
	if !dist.IsNaN() {
		m.DistanceKm = schema.Float(round2(float64(dist) / 1000))
	}
	return m
}

func altitudeMetrics(t *schema.SampleTable, session *schema.SessionSummary) *AltitudeMetrics {
	gain := ElevationGain(t.AltitudeM)
	descent := TotalDescent(t.AltitudeM)
	if session != nil {
		if !session.TotalAscentM.IsNaN() && session.TotalAscentM > 0 {
			gain = session.TotalAscentM
		}
		if !session.TotalDescentM.IsNaN() && session.TotalDescentM > 0 {
			descent = session.TotalDescentM
		}
	}
	uphill, downhill := UphillDownhillDistance(t.AltitudeM, t.DistanceM)
	return &AltitudeMetrics{
		ElevationGainM: gain,
		TotalDescentM:  descent,
		MaxAltitudeM:   MaxAltitude(t.AltitudeM),
		MaxGradePct:    MaxGrade(t.AltitudeM, t.DistanceM),
		UphillKm:       uphill,
		DownhillKm:     downhill,
	}
}

func tempMetrics(t *schema.SampleTable) *TempMetrics {
	m := &TempMetrics{AvgTempC: schema.NaN(), MaxTempC: schema.NaN(), MinTempC: schema.NaN()}
	var sum float64
	var n int
	max := math.Inf(-1)
	min := math.Inf(1)
	for _, v := range t.TemperatureC {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		sum += f
		n++
		if f > max {
			max = f
		}
		if f < min {
			min = f
		}
	}
	if n > 0 {
		m.AvgTempC = schema.Float(round1(sum / float64(n)))
		m.MaxTempC = schema.Float(max)
		m.MinTempC = schema.Float(min)
	}
	return m
}

func trainingEffectMetrics(t *schema.SampleTable, ftp int) *TrainingEffectMetrics {
	duration := 0
	if n := t.Len(); n > 0 {
		duration = t.TimeSec[n-1] + 1
	}
	avg := AveragePower(t.PowerW)
	np := NormalizedPower(t.PowerW)
	intensity := schema.NaN()
	if !np.IsNaN() && ftp > 0 {
		intensity = schema.Float(round2(float64(np) / float64(ftp)))
	}
	aerobic := AerobicEffect(t.PowerW, duration, ftp)
	anaerobic := AnaerobicEffect(t.PowerW, ftp)

	powerZones := PowerZones(t.PowerW, ftp)
	pct := zonePercentages(powerZones)
	durs := make([]int, len(powerZones))
	for i, b := range powerZones {
		durs[i] = b.TimeSec
	}
	maxP := MaxPower(t.PowerW)
	benefit := PrimaryTrainingBenefit(BenefitInput{
		ZonePercent:     pct,
		ZoneDurationSec: durs,
		DurationMin:     float64(duration) / 60,
		AerobicEffect:   float64(aerobic),
		AnaerobicEffect: float64(anaerobic),
		FTP:             ftp,
		MaxPower:        float64(maxP),
	})

	return &TrainingEffectMetrics{
		TSS:             TrainingStressScore(avg, duration, ftp),
		IntensityFactor: intensity,
		AerobicEffect:   aerobic,
		AnaerobicEffect: anaerobic,
		PrimaryBenefit:  benefit,
	}
}

// streamPayload extracts the requested stream columns at the given
// resolution. best_power ignores the resolution and is served at full
// length.
func streamPayload(t *schema.SampleTable, keys []schema.StreamKey, res schema.Resolution) map[schema.StreamKey]any {
	down := resampler.DownsampleTable(t, res)
	out := make(map[schema.StreamKey]any, len(keys))
	for _, k := range keys {
		if data, ok := StreamData(down, k); ok {
			out[k] = data
		}
	}
	return out
}

// StreamData returns the column behind one stream key, or false for a
// key the table has no data for.
func StreamData(t *schema.SampleTable, key schema.StreamKey) (any, bool) {
	switch key {
	case schema.StreamTime:
		if len(t.TimeSec) > 0 {
			return t.TimeSec, true
		}
	case schema.StreamDistance:
		if len(t.DistanceM) > 0 {
			return t.DistanceM, true
		}
	case schema.StreamLatLng:
		if len(t.Latitude) > 0 && len(t.Longitude) > 0 {
			pairs := make([][2]schema.Float, len(t.Latitude))
			for i := range t.Latitude {
				pairs[i] = [2]schema.Float{t.Latitude[i], t.Longitude[i]}
			}
			return pairs, true
		}
	case schema.StreamAltitude:
		if len(t.AltitudeM) > 0 {
			return t.AltitudeM, true
		}
	case schema.StreamVelocitySmooth:
		if len(t.SpeedMps) > 0 {
			return t.SpeedMps, true
		}
	case schema.StreamHeartrate:
		if len(t.HeartRateBpm) > 0 {
			return t.HeartRateBpm, true
		}
	case schema.StreamCadence:
		if len(t.CadenceRpm) > 0 {
			return t.CadenceRpm, true
		}
	case schema.StreamWatts:
		if len(t.PowerW) > 0 {
			return t.PowerW, true
		}
	case schema.StreamTemp:
		if len(t.TemperatureC) > 0 {
			return t.TemperatureC, true
		}
	case schema.StreamBestPower:
		if len(t.BestPowerCurve) > 0 {
			return t.BestPowerCurve, true
		}
	case schema.StreamTorque:
		if len(t.Torque) > 0 {
			return t.Torque, true
		}
	case schema.StreamSPI:
		if len(t.SPI) > 0 {
			return t.SPI, true
		}
	case schema.StreamPowerHrRatio:
		if len(t.PowerHrRatio) > 0 {
			return t.PowerHrRatio, true
		}
	case schema.StreamWBalance:
		if len(t.WBalanceKJ) > 0 {
			return t.WBalanceKJ, true
		}
	case schema.StreamVAM:
		if len(t.VAM) > 0 {
			return t.VAM, true
		}
	}
	return nil, false
}

func roundFloat(v schema.Float) schema.Float {
	if v.IsNaN() {
		return v
	}
	return schema.Float(math.Round(float64(v)))
}
