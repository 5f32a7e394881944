// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package service orchestrates one activity's full analysis: source
// resolution, ingest, enrichment, per-domain metrics, interval
// detection, personal-records merge, TSS persistence, training-load
// rollup and result caching.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cc-analytics/activity-engine/internal/analytics"
	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/cache"
	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/internal/ingest"
	"github.com/cc-analytics/activity-engine/internal/metrics"
	"github.com/cc-analytics/activity-engine/internal/records"
	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/internal/resultcache"
	"github.com/cc-analytics/activity-engine/internal/rollup"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// longRideThresholdSec: provider activities moving longer than this
// default to medium resolution.
const longRideThresholdSec = 10000

// AnalysisRequest is the explicit option set of one "get all data"
// call. Every recognized option is a field; there is no pass-through
// option dict.
type AnalysisRequest struct {
	ActivityID       int64
	ProviderToken    string
	StreamKeys       []schema.StreamKey
	Resolution       schema.Resolution
	ForceRecalculate bool
}

// ActivityService is the stateless orchestrator. Side effects are
// serialized per activity by the repository layer committing or
// rolling back per call.
type ActivityService struct {
	activities *repository.ActivityRepository
	athletes   *repository.AthleteRepository
	records    *records.Service
	curves     *records.CurveStore
	streams    *cache.StreamCache
	results    *resultcache.ResultCache
}

var serviceInstance *ActivityService

// Init wires the service once at startup; the stream cache it is
// handed is the process-wide one whose sweeper cmd/ starts.
func Init(streams *cache.StreamCache) *ActivityService {
	serviceInstance = &ActivityService{
		activities: repository.GetActivityRepository(),
		athletes:   repository.GetAthleteRepository(),
		records:    records.GetService(),
		curves:     records.GetCurveStore(),
		streams:    streams,
		results:    resultcache.GetResultCache(),
	}
	return serviceInstance
}

// GetService returns the wired service; Init must have run.
func GetService() *ActivityService {
	if serviceInstance == nil {
		log.Fatalf("activity service not initialized")
	}
	return serviceInstance
}

// StreamCache exposes the in-process cache for the HTTP layer's
// stats/invalidate endpoints.
func (s *ActivityService) StreamCache() *cache.StreamCache { return s.streams }

// ResultCache exposes the on-disk cache for the HTTP layer's cache
// endpoints.
func (s *ActivityService) ResultCache() *resultcache.ResultCache { return s.results }

// NewStreamLoader builds the table loader the stream cache falls back
// to on a miss: the native binary ingest.
func NewStreamLoader() cache.TableLoader {
	return func(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, *schema.SessionSummary, error) {
		ni := ingest.NewNativeIngest()
		table, err := ni.LoadSampleTable(ctx, activity)
		if err != nil {
			return nil, nil, err
		}
		session, err := ni.LoadSession(ctx, activity)
		if err != nil {
			return nil, nil, err
		}
		return table, session, nil
	}
}

// NewAthleteLoader builds the athlete loader for the stream cache.
func NewAthleteLoader() cache.AthleteLoader {
	return func(ctx context.Context, activity *schema.ActivityRecord) (*schema.AthleteProfile, error) {
		return repository.GetAthleteRepository().GetAthlete(activity.AthleteID)
	}
}

// GetAllData runs the full analysis flow of one activity. A nil
// result with nil error means the activity cannot be analyzed yet
// (no FTP and not enough history to estimate one).
func (s *ActivityService) GetAllData(ctx context.Context, req AnalysisRequest) (*analytics.CompositeResult, error) {
	if req.Resolution == "" {
		req.Resolution = schema.ResolutionHigh
	}

	cacheKey := resultcache.GenerateKey(req.ActivityID, req.Resolution, req.StreamKeys)
	if s.results.Enabled() && !req.ForceRecalculate {
		if raw, err := s.results.Get(req.ActivityID, cacheKey); err == nil && raw != nil {
			var out analytics.CompositeResult
			if err := json.Unmarshal(raw, &out); err == nil {
				return &out, nil
			}
			log.Warnf("corrupt cache document for activity %d, recomputing", req.ActivityID)
		}
	}

	activity, err := s.activities.GetActivity(req.ActivityID)
	if err != nil {
		return nil, err
	}

	// the athlete may be absent for native-only testing
	athlete, err := s.athletes.GetAthlete(activity.AthleteID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}

	started := time.Now()
	var table *schema.SampleTable
	var session *schema.SessionSummary
	source := schema.SourceNative

	if req.ProviderToken != "" {
		source = schema.SourceProvider
		pi := ingest.NewProviderIngest(req.ProviderToken)
		table, err = pi.LoadSampleTable(ctx, activity)
		if err != nil {
			return nil, err
		}
		session, err = pi.LoadSession(ctx, activity)
		if err != nil {
			return nil, err
		}

		if athlete == nil || !athlete.HasValidFTP() {
			// adopt the provider's FTP for this run only
			if pa, aerr := pi.LoadAthlete(ctx); aerr == nil && pa.FTP > 0 {
				if athlete == nil {
					athlete = &schema.AthleteProfile{ID: activity.AthleteID}
				}
				athlete.FTPWatts = pa.FTP
			} else if aerr != nil {
				log.Warnf("fetching provider athlete for activity %d: %v", activity.ID, aerr)
			}
		}

		// long rides default to medium resolution unless the caller
		// asked for something explicit
		if req.Resolution == schema.ResolutionHigh && pi.Activity != nil &&
			pi.Activity.MovingTime > longRideThresholdSec {
			req.Resolution = schema.ResolutionMedium
		}
	} else {
		table, err = s.streams.GetRaw(ctx, activity)
		if err != nil {
			return nil, err
		}
		session, err = s.streams.GetSession(ctx, activity)
		if err != nil {
			return nil, err
		}

		if athlete != nil && !athlete.HasValidFTP() {
			stored, cerr := s.curves.Load(athlete.ID)
			if cerr != nil {
				return nil, cerr
			}
			if stored == nil {
				// not enough history to estimate an FTP
				return nil, nil
			}
			ftp := estimateFTP(stored.BestCurve)
			if ftp <= 0 {
				return nil, nil
			}
			athlete.FTPWatts = ftp
		}
	}

	analytics.EnrichDerivedStreams(table, athlete)

	ftp := 0
	if athlete != nil {
		ftp = athlete.FTPWatts
	}
	intervals := analytics.DetectIntervals(table.PowerW, table.HeartRateBpm, table.TimeSec, ftp)
	metrics.IntervalsDetected.Observe(float64(len(intervals.Intervals)))

	promotions := s.mergePersonalRecords(activity, athlete, table)

	result := analytics.Assemble(analytics.AssembleInput{
		ActivityID: activity.ID,
		Table:      table,
		Session:    session,
		Athlete:    athlete,
		Resolution: req.Resolution,
		Keys:       req.StreamKeys,
		Intervals:  intervals,
		Promotions: promotions,
	})

	s.persistTrainingLoad(activity, result)
	s.saveIntervalsFile(activity.ID, intervals)

	if s.results.Enabled() {
		if err := s.results.Set(activity.ID, cacheKey, result); err != nil {
			// the response is still good; the cache write is best-effort
			log.Errorf("writing result cache for activity %d: %v", activity.ID, err)
		}
	}

	metrics.AnalysisDuration.WithLabelValues(source.String()).Observe(time.Since(started).Seconds())
	return result, nil
}

// mergePersonalRecords folds this activity's bests into the athlete's
// records and best-power curve. Every step is best-effort: a records
// hiccup never fails the analysis.
func (s *ActivityService) mergePersonalRecords(activity *schema.ActivityRecord, athlete *schema.AthleteProfile, table *schema.SampleTable) []schema.Promotion {
	if athlete == nil || len(table.BestPowerCurve) == 0 {
		return nil
	}

	var promotions []schema.Promotion
	promos, err := s.records.UpdateBestPowers(athlete.ID, records.WindowBests(table.BestPowerCurve), activity.ID)
	if err != nil {
		log.Errorf("updating best powers for athlete %d: %v", athlete.ID, err)
	} else {
		promotions = append(promotions, promos...)
	}

	if p, err := s.records.UpdateLongestRide(athlete.ID, analytics.TotalDistance(table.DistanceM), activity.ID); err != nil {
		log.Errorf("updating longest ride for athlete %d: %v", athlete.ID, err)
	} else if p != nil {
		promotions = append(promotions, *p)
	}

	if p, err := s.records.UpdateMaxElevationGain(athlete.ID, analytics.ElevationGain(table.AltitudeM), activity.ID); err != nil {
		log.Errorf("updating max elevation for athlete %d: %v", athlete.ID, err)
	} else if p != nil {
		promotions = append(promotions, *p)
	}

	curveLimit := config.Keys.BestCurveLength
	curve := table.BestPowerCurve
	if curveLimit > 0 && len(curve) > curveLimit {
		curve = curve[:curveLimit]
	}
	if _, err := s.curves.Update(athlete.ID, curve); err != nil {
		log.Errorf("updating best-power curve for athlete %d: %v", athlete.ID, err)
	}

	return promotions
}

// persistTrainingLoad writes this activity's TSS (skipping no-ops)
// and recomputes the athlete's rolling load at the activity's start
// time. Both are best-effort per the ordering contract.
func (s *ActivityService) persistTrainingLoad(activity *schema.ActivityRecord, result *analytics.CompositeResult) {
	if result.TrainingEffect == nil {
		return
	}
	tss := result.TrainingEffect.TSS
	if tss > 0 && tss != activity.TSS {
		if err := s.activities.UpdateTSS(activity.ID, tss); err != nil {
			log.Errorf("persisting TSS for activity %d: %v", activity.ID, err)
			return
		}
		activity.TSS = tss
	}

	if _, err := rollup.Recompute(activity.AthleteID, activity.StartTime); err != nil {
		log.Errorf("recomputing training load for athlete %d: %v", activity.AthleteID, err)
	}
}

// InvalidateActivity drops both cache tiers for one activity.
func (s *ActivityService) InvalidateActivity(activityID int64) error {
	s.streams.Invalidate(activityID)
	return s.results.Invalidate(activityID)
}

// InvalidateAll drops both cache tiers entirely.
func (s *ActivityService) InvalidateAll() error {
	s.streams.InvalidateAll()
	return s.results.InvalidateAll()
}
