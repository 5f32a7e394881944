// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/jmoiron/sqlx"
)

var (
	activityRepoOnce     sync.Once
	activityRepoInstance *ActivityRepository
)

// ActivityRepository serves tb_activity: one row per ingested ride,
// whether fetched natively (device upload) or from a provider.
type ActivityRepository struct {
	DB *sqlx.DB
}

func GetActivityRepository() *ActivityRepository {
	activityRepoOnce.Do(func() {
		activityRepoInstance = &ActivityRepository{DB: GetConnection().DB}
	})
	return activityRepoInstance
}

func (r *ActivityRepository) GetActivity(id int64) (*schema.ActivityRecord, error) {
	a := &schema.ActivityRecord{}
	var externalID, uploadURL sql.NullString
	var efficiencyFactor sql.NullFloat64
	err := sq.Select("id", "external_id", "athlete_id", "source", "upload_fit_url",
		"tss", "tss_updated", "efficiency_factor", "start_date").
		From("tb_activity").Where(sq.Eq{"id": id}).RunWith(r.DB).
		QueryRow().Scan(&a.ID, &externalID, &a.AthleteID, &a.Source, &uploadURL,
		&a.TSS, &a.TSSUpdated, &efficiencyFactor, &a.StartTime)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("activity %d not found", id)
	}
	if err != nil {
		log.Errorf("GetActivity(%d): %v", id, err)
		return nil, apperror.Internal(err, "querying activity")
	}
	a.ExternalID = externalID.String
	a.UploadURL = uploadURL.String
	if efficiencyFactor.Valid {
		a.EfficiencyFactor = schema.Float(efficiencyFactor.Float64)
	} else {
		a.EfficiencyFactor = schema.NaN()
	}
	return a, nil
}

func (r *ActivityRepository) CreateActivity(a *schema.ActivityRecord) (int64, error) {
	res, err := sq.Insert("tb_activity").
		Columns("external_id", "athlete_id", "source", "upload_fit_url", "tss", "tss_updated",
			"efficiency_factor", "start_date").
		Values(nullableString(a.ExternalID), a.AthleteID, a.Source, nullableString(a.UploadURL),
			a.TSS, a.TSSUpdated, nullableFloat(a.EfficiencyFactor), a.StartTime).
		RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("CreateActivity: %v", err)
		return 0, apperror.Internal(err, "inserting activity")
	}
	return res.LastInsertId()
}

func (r *ActivityRepository) UpdateTSS(activityID int64, tss int) error {
	_, err := sq.Update("tb_activity").Set("tss", tss).Set("tss_updated", true).
		Where(sq.Eq{"id": activityID}).RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("UpdateTSS(%d): %v", activityID, err)
		return apperror.Internal(err, "updating TSS")
	}
	return nil
}

// ActivitiesInRange lists an athlete's activities with start_date in
// [from, to), ordered oldest-first, the shape the rollup (SPEC_FULL
// §4.6) needs.
func (r *ActivityRepository) ActivitiesInRange(athleteID int64, from, to time.Time) ([]*schema.ActivityRecord, error) {
	rows, err := sq.Select("id", "external_id", "athlete_id", "source", "upload_fit_url",
		"tss", "tss_updated", "efficiency_factor", "start_date").
		From("tb_activity").
		Where(sq.And{sq.Eq{"athlete_id": athleteID}, sq.GtOrEq{"start_date": from}, sq.Lt{"start_date": to}}).
		OrderBy("start_date ASC").RunWith(r.DB).Query()
	if err != nil {
		log.Errorf("ActivitiesInRange(%d): %v", athleteID, err)
		return nil, apperror.Internal(err, "querying activities in range")
	}
	defer rows.Close()

	var out []*schema.ActivityRecord
	for rows.Next() {
		a := &schema.ActivityRecord{}
		var externalID, uploadURL sql.NullString
		var efficiencyFactor sql.NullFloat64
		if err := rows.Scan(&a.ID, &externalID, &a.AthleteID, &a.Source, &uploadURL,
			&a.TSS, &a.TSSUpdated, &efficiencyFactor, &a.StartTime); err != nil {
			return nil, apperror.Internal(err, "scanning activity row")
		}
		a.ExternalID = externalID.String
		a.UploadURL = uploadURL.String
		if efficiencyFactor.Valid {
			a.EfficiencyFactor = schema.Float(efficiencyFactor.Float64)
		} else {
			a.EfficiencyFactor = schema.NaN()
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f schema.Float) interface{} {
	if f.IsNaN() {
		return nil
	}
	return float64(f)
}
