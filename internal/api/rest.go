// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/rollup"
	"github.com/cc-analytics/activity-engine/internal/service"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/gorilla/mux"
)

// @title                      Activity Analytics REST API
// @version                    1.0.0
// @description                API for activity analytics: per-activity metrics, streams, intervals, caches and training-load state.

// @contact.name               cc-analytics
// @contact.url                https://github.com/cc-analytics

// @license.name               MIT License
// @license.url                https://opensource.org/licenses/MIT

// @host                       localhost:8080
// @basePath                   /api

// RestApi is the HTTP surface over the activity service.
type RestApi struct {
	Service *service.ActivityService
}

// New builds the API handle over the wired service.
func New() *RestApi {
	return &RestApi{Service: service.GetService()}
}

// MountRoutes registers every endpoint on the router. Specific
// activity sub-paths are registered before the catch-all {metric}
// route so mux resolves them first.
func (api *RestApi) MountRoutes(r *mux.Router) {
	r = r.PathPrefix("/api").Subrouter()
	r.StrictSlash(true)

	r.HandleFunc("/activities/cache/status", api.cacheStatus).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/activities/cache/toggle", api.cacheToggle).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/activities/cache/{id:[0-9]+}", api.invalidateCache).Methods(http.MethodDelete)
	r.HandleFunc("/activities/cache", api.invalidateAllCaches).Methods(http.MethodDelete)

	r.HandleFunc("/activities/{id:[0-9]+}/all", api.getAllData).Methods(http.MethodGet)
	r.HandleFunc("/activities/{id:[0-9]+}/intervals", api.getIntervals).Methods(http.MethodGet)
	r.HandleFunc("/activities/{id:[0-9]+}/intervals/simple", api.getIntervalsSimple).Methods(http.MethodGet)
	r.HandleFunc("/activities/{id:[0-9]+}/available", api.getAvailableStreams).Methods(http.MethodGet)
	r.HandleFunc("/activities/{id:[0-9]+}/streams", api.getStream).Methods(http.MethodGet)
	r.HandleFunc("/activities/{id:[0-9]+}/multi-streams", api.getMultiStreams).Methods(http.MethodPost)
	r.HandleFunc("/activities/{id:[0-9]+}/{metric}", api.getMetric).Methods(http.MethodGet)

	r.HandleFunc("/athletes/{id:[0-9]+}/daily-state/update", api.updateDailyState).Methods(http.MethodPost)
}

// ErrorResponse model
type ErrorResponse struct {
	// Statustext of Errorcode
	Status string `json:"status"`
	Error  string `json:"error"` // Error Message
}

// CacheStatusResponse model
type CacheStatusResponse struct {
	Enabled bool `json:"enabled"`
	Streams any  `json:"streams"`
}

// SimpleInterval model: the reduced per-interval form.
type SimpleInterval struct {
	Start          int                   `json:"start"`
	End            int                   `json:"end"`
	Duration       int                   `json:"duration"`
	Classification schema.Classification `json:"classification"`
	AvgPower       schema.Float          `json:"avg_power"`
	PowerRatio     schema.Float          `json:"power_ratio"`
}

func handleError(err error, rw http.ResponseWriter) {
	statusCode := apperror.StatusCode(err)
	if statusCode == http.StatusInternalServerError {
		// internal detail goes to the log, a generic message on the wire
		log.Errorf("REST ERROR: %s", err.Error())
		writeJSON(rw, statusCode, ErrorResponse{
			Status: http.StatusText(statusCode),
			Error:  "internal server error",
		})
		return
	}
	log.Warnf("REST ERROR: %s", err.Error())
	writeJSON(rw, statusCode, ErrorResponse{
		Status: http.StatusText(statusCode),
		Error:  err.Error(),
	})
}

func writeJSON(rw http.ResponseWriter, statusCode int, payload any) {
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	if err := json.NewEncoder(rw).Encode(payload); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}

func activityID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, apperror.BadRequest("malformed activity id")
	}
	return id, nil
}

func parseResolution(r *http.Request) (schema.Resolution, error) {
	raw := r.URL.Query().Get("resolution")
	switch raw {
	case "":
		return schema.ResolutionHigh, nil
	case string(schema.ResolutionLow), string(schema.ResolutionMedium), string(schema.ResolutionHigh):
		return schema.Resolution(raw), nil
	}
	return "", apperror.BadRequest("unknown resolution %q", raw)
}

// getAllData godoc
// @summary    Full analysis of one activity
// @tags       Activities
// @description Runs (or serves from cache) the complete analytics pass: all metric blocks, intervals and the requested streams.
// @produce    json
// @param      id path int true "Activity ID"
// @param      access_token query string false "Provider access token; switches the source to the provider API"
// @param      keys query string false "Comma-separated stream keys to include"
// @param      resolution query string false "low, medium or high (default high)"
// @success    200 {object} analytics.CompositeResult
// @failure    400 {object} api.ErrorResponse "Bad Request"
// @failure    500 {object} api.ErrorResponse "Internal Server Error"
// @router     /activities/{id}/all [get]
func (api *RestApi) getAllData(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	resolution, err := parseResolution(r)
	if err != nil {
		handleError(err, rw)
		return
	}

	var keys []schema.StreamKey
	if raw := r.URL.Query().Get("keys"); raw != "" {
		keys, err = service.ParseStreamKeys(strings.Split(raw, ","))
		if err != nil {
			handleError(err, rw)
			return
		}
	}

	result, err := api.Service.GetAllData(r.Context(), service.AnalysisRequest{
		ActivityID:    id,
		ProviderToken: r.URL.Query().Get("access_token"),
		StreamKeys:    keys,
		Resolution:    resolution,
	})
	if err != nil {
		handleError(err, rw)
		return
	}
	if result == nil {
		// not enough history to analyze (no FTP, no best curve)
		rw.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(rw, http.StatusOK, result)
}

// getIntervals godoc
// @summary    Saved interval detection result
// @tags       Intervals
// @produce    json
// @param      id path int true "Activity ID"
// @success    200 {object} service.IntervalsResponse
// @failure    404 {object} api.ErrorResponse "no prior analysis saved intervals"
// @router     /activities/{id}/intervals [get]
func (api *RestApi) getIntervals(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	doc, err := api.Service.LoadIntervals(id)
	if err != nil {
		handleError(err, rw)
		return
	}
	writeJSON(rw, http.StatusOK, doc)
}

// getIntervalsSimple godoc
// @summary    Reduced interval list
// @tags       Intervals
// @produce    json
// @param      id path int true "Activity ID"
// @success    200 {array} api.SimpleInterval
// @failure    404 {object} api.ErrorResponse
// @router     /activities/{id}/intervals/simple [get]
func (api *RestApi) getIntervalsSimple(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	doc, err := api.Service.LoadIntervals(id)
	if err != nil {
		handleError(err, rw)
		return
	}

	out := make([]SimpleInterval, 0, len(doc.Intervals))
	for _, iv := range doc.Intervals {
		out = append(out, SimpleInterval{
			Start:          iv.StartSec,
			End:            iv.EndSec,
			Duration:       iv.Duration(),
			Classification: iv.Classification,
			AvgPower:       iv.AvgPower,
			PowerRatio:     iv.PowerRatio,
		})
	}
	writeJSON(rw, http.StatusOK, out)
}

// getAvailableStreams godoc
// @summary    Streams with non-trivial data
// @tags       Streams
// @produce    json
// @param      id path int true "Activity ID"
// @success    200 {array} string
// @router     /activities/{id}/available [get]
func (api *RestApi) getAvailableStreams(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	keys, err := api.Service.AvailableStreams(r.Context(), id)
	if err != nil {
		handleError(err, rw)
		return
	}
	writeJSON(rw, http.StatusOK, keys)
}

// getStream godoc
// @summary    One stream column
// @tags       Streams
// @produce    json
// @param      id path int true "Activity ID"
// @param      key query string true "Stream key"
// @param      resolution query string false "low, medium or high"
// @success    200 {object} service.StreamPayload
// @failure    400 {object} api.ErrorResponse
// @router     /activities/{id}/streams [get]
func (api *RestApi) getStream(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	resolution, err := parseResolution(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		handleError(apperror.BadRequest("missing stream key"), rw)
		return
	}
	keys, err := service.ParseStreamKeys([]string{key})
	if err != nil {
		handleError(err, rw)
		return
	}
	payload, err := api.Service.GetStream(r.Context(), id, keys[0], resolution)
	if err != nil {
		handleError(err, rw)
		return
	}
	writeJSON(rw, http.StatusOK, payload)
}

// MultiStreamsRequest model
type MultiStreamsRequest struct {
	Keys       []string `json:"keys"`
	Resolution string   `json:"resolution"`
}

// getMultiStreams godoc
// @summary    Several stream columns in one request
// @tags       Streams
// @accept     json
// @produce    json
// @param      id path int true "Activity ID"
// @param      request body api.MultiStreamsRequest true "Requested keys and resolution"
// @success    200 {array} service.StreamPayload
// @failure    400 {object} api.ErrorResponse
// @router     /activities/{id}/multi-streams [post]
func (api *RestApi) getMultiStreams(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}

	var req MultiStreamsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handleError(apperror.BadRequest("malformed request body: %v", err), rw)
		return
	}
	keys, err := service.ParseStreamKeys(req.Keys)
	if err != nil {
		handleError(err, rw)
		return
	}
	resolution := schema.Resolution(req.Resolution)
	if resolution == "" {
		resolution = schema.ResolutionHigh
	}

	payloads, err := api.Service.GetMultiStreams(r.Context(), id, keys, resolution)
	if err != nil {
		handleError(err, rw)
		return
	}
	writeJSON(rw, http.StatusOK, payloads)
}

// getMetric godoc
// @summary    One metric block of the composite result
// @tags       Activities
// @description Serves a single top-level block (overall, power, heartrate, cadence, speed, altitude, temp, training_effect, best_power, zones) from the cached composite, re-running the analysis when forced.
// @produce    json
// @param      id path int true "Activity ID"
// @param      metric path string true "Metric name"
// @param      force_recalculate query bool false "Recompute from streams instead of reading the cache"
// @param      key query string false "For zones: power or heartrate"
// @success    200 {object} object
// @failure    400 {object} api.ErrorResponse
// @failure    404 {object} api.ErrorResponse
// @router     /activities/{id}/{metric} [get]
func (api *RestApi) getMetric(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	name := mux.Vars(r)["metric"]
	force := r.URL.Query().Get("force_recalculate") == "true"

	raw, err := api.Service.GetMetric(r.Context(), id, name, force, r.URL.Query().Get("access_token"))
	if err != nil {
		handleError(err, rw)
		return
	}
	if raw == nil {
		handleError(apperror.NotFound("no %s data for activity %d", name, id), rw)
		return
	}

	if name == "zones" {
		if zoneKey := r.URL.Query().Get("key"); zoneKey != "" {
			buckets, err := selectZoneBuckets(raw, zoneKey)
			if err != nil {
				handleError(err, rw)
				return
			}
			writeJSON(rw, http.StatusOK, map[string]any{"distribution_buckets": buckets})
			return
		}
	}

	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	rw.Write(raw)
}

// selectZoneBuckets picks one distribution out of the zones block.
func selectZoneBuckets(raw json.RawMessage, zoneKey string) (json.RawMessage, error) {
	if zoneKey != "power" && zoneKey != "heartrate" {
		return nil, apperror.BadRequest("unknown zone type %q", zoneKey)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.Internal(err, "decoding zones block")
	}
	buckets, ok := doc[zoneKey]
	if !ok || string(buckets) == "null" {
		return nil, apperror.NotFound("no %s zone distribution", zoneKey)
	}
	return buckets, nil
}

// invalidateCache godoc
// @summary    Invalidate one activity's caches
// @tags       Cache
// @produce    json
// @param      id path int true "Activity ID"
// @success    200 {object} object
// @router     /activities/cache/{id} [delete]
func (api *RestApi) invalidateCache(rw http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		handleError(err, rw)
		return
	}
	if err := api.Service.InvalidateActivity(id); err != nil {
		handleError(err, rw)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]string{"status": "invalidated"})
}

// invalidateAllCaches godoc
// @summary    Invalidate every cached result
// @tags       Cache
// @produce    json
// @success    200 {object} object
// @router     /activities/cache [delete]
func (api *RestApi) invalidateAllCaches(rw http.ResponseWriter, r *http.Request) {
	if err := api.Service.InvalidateAll(); err != nil {
		handleError(err, rw)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]string{"status": "invalidated"})
}

// cacheStatus godoc
// @summary    Cache switch and in-process cache counters
// @tags       Cache
// @produce    json
// @success    200 {object} api.CacheStatusResponse
// @router     /activities/cache/status [get]
func (api *RestApi) cacheStatus(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, CacheStatusResponse{
		Enabled: api.Service.ResultCache().Enabled(),
		Streams: api.Service.StreamCache().Stats(),
	})
}

// cacheToggle godoc
// @summary    Flip the global cache switch
// @tags       Cache
// @produce    json
// @success    200 {object} api.CacheStatusResponse
// @router     /activities/cache/toggle [post]
func (api *RestApi) cacheToggle(rw http.ResponseWriter, r *http.Request) {
	rc := api.Service.ResultCache()
	rc.SetEnabled(!rc.Enabled())
	writeJSON(rw, http.StatusOK, CacheStatusResponse{
		Enabled: rc.Enabled(),
		Streams: api.Service.StreamCache().Stats(),
	})
}

// updateDailyState godoc
// @summary    Recompute one athlete's training load for a date
// @tags       Athletes
// @produce    json
// @param      id path int true "Athlete ID"
// @param      date query string false "Reference date, YYYY-MM-DD (default today)"
// @success    200 {object} rollup.Result
// @failure    400 {object} api.ErrorResponse "malformed date"
// @router     /athletes/{id}/daily-state/update [post]
func (api *RestApi) updateDailyState(rw http.ResponseWriter, r *http.Request) {
	athleteID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		handleError(apperror.BadRequest("malformed athlete id"), rw)
		return
	}

	ref := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			handleError(apperror.BadRequest("malformed date %q, want YYYY-MM-DD", raw), rw)
			return
		}
		// the rollup windows close at end of the requested day
		ref = parsed.Add(24*time.Hour - time.Second)
	}

	result, err := rollup.Recompute(athleteID, ref)
	if err != nil {
		handleError(err, rw)
		return
	}
	writeJSON(rw, http.StatusOK, result)
}
