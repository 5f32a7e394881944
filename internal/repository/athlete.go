// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/jmoiron/sqlx"
)

var (
	athleteRepoOnce     sync.Once
	athleteRepoInstance *AthleteRepository
)

// AthleteRepository serves tb_athlete: FTP/W'/HR zone inputs and the
// running ATL/CTL/TSB training-load state.
type AthleteRepository struct {
	DB *sqlx.DB
}

func GetAthleteRepository() *AthleteRepository {
	athleteRepoOnce.Do(func() {
		athleteRepoInstance = &AthleteRepository{DB: GetConnection().DB}
	})
	return athleteRepoInstance
}

func (r *AthleteRepository) GetAthlete(id int64) (*schema.AthleteProfile, error) {
	a := &schema.AthleteProfile{}
	err := sq.Select("id", "ftp", "w_balance", "max_heartrate", "threshold_heartrate",
		"is_threshold_active", "weight", "atl", "ctl", "tsb").
		From("tb_athlete").Where(sq.Eq{"id": id}).RunWith(r.DB).
		QueryRow().Scan(&a.ID, &a.FTPWatts, &a.WPrimeJoules, &a.MaxHeartRateBpm,
		&a.ThresholdHeartRateBpm, &a.IsThresholdActive, &a.WeightKg, &a.ATL, &a.CTL, &a.TSB)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("athlete %d not found", id)
	}
	if err != nil {
		log.Errorf("GetAthlete(%d): %v", id, err)
		return nil, apperror.Internal(err, "querying athlete")
	}
	return a, nil
}

func (r *AthleteRepository) CreateAthlete(a *schema.AthleteProfile) (int64, error) {
	res, err := sq.Insert("tb_athlete").
		Columns("ftp", "w_balance", "max_heartrate", "threshold_heartrate",
			"is_threshold_active", "weight", "atl", "ctl", "tsb").
		Values(a.FTPWatts, a.WPrimeJoules, a.MaxHeartRateBpm, a.ThresholdHeartRateBpm,
			a.IsThresholdActive, a.WeightKg, a.ATL, a.CTL, a.TSB).
		RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("CreateAthlete: %v", err)
		return 0, apperror.Internal(err, "inserting athlete")
	}
	return res.LastInsertId()
}

// UpdateTrainingLoad persists a freshly computed ATL/CTL/TSB triple,
// the output of the rollup (SPEC_FULL §4.6).
func (r *AthleteRepository) UpdateTrainingLoad(athleteID int64, atl, ctl, tsb float64) error {
	_, err := sq.Update("tb_athlete").
		Set("atl", atl).Set("ctl", ctl).Set("tsb", tsb).
		Where(sq.Eq{"id": athleteID}).RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("UpdateTrainingLoad(%d): %v", athleteID, err)
		return apperror.Internal(err, "updating training load")
	}
	return nil
}

func (r *AthleteRepository) UpdateFTP(athleteID int64, ftpWatts int) error {
	_, err := sq.Update("tb_athlete").Set("ftp", ftpWatts).
		Where(sq.Eq{"id": athleteID}).RunWith(r.DB).Exec()
	if err != nil {
		log.Errorf("UpdateFTP(%d): %v", athleteID, err)
		return apperror.Internal(err, "updating FTP")
	}
	return nil
}

// UpsertDailyState records one day's fitness/fatigue snapshot and its
// status label, replacing any earlier snapshot for that date.
func (r *AthleteRepository) UpsertDailyState(athleteID int64, date string, fitness, fatigue float64, status string) error {
	_, err := r.DB.Exec(`
		INSERT INTO tb_athlete_daily_state (athlete_id, date, fitness, fatigue, daily_status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id, date) DO UPDATE SET
			fitness = excluded.fitness,
			fatigue = excluded.fatigue,
			daily_status = excluded.daily_status`,
		athleteID, date, fitness, fatigue, status)
	if err != nil {
		log.Errorf("UpsertDailyState(%d, %s): %v", athleteID, date, err)
		return apperror.Internal(err, "upserting daily state")
	}
	return nil
}

// LatestDailyState returns the most recent fitness/fatigue snapshot
// prior to (or on) the given date. The rollup does not read it: it
// recomputes the load from the activities' TSS each time.
func (r *AthleteRepository) LatestDailyState(athleteID int64, onOrBefore string) (fitness, fatigue float64, found bool, err error) {
	row := sq.Select("fitness", "fatigue").From("tb_athlete_daily_state").
		Where(sq.And{sq.Eq{"athlete_id": athleteID}, sq.LtOrEq{"date": onOrBefore}}).
		OrderBy("date DESC").Limit(1).RunWith(r.DB).QueryRow()
	if scanErr := row.Scan(&fitness, &fatigue); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return 0, 0, false, nil
		}
		return 0, 0, false, apperror.Internal(scanErr, "querying latest daily state")
	}
	return fitness, fatigue, true, nil
}
