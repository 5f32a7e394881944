// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
	"github.com/jmoiron/sqlx"
)

var (
	powerRecordsRepoOnce     sync.Once
	powerRecordsRepoInstance *PowerRecordsRepository
)

// PowerRecordsRepository serves tb_athlete_power_records, one wide row
// per athlete holding a top-3 table for every interval key plus
// longest-ride and max-elevation-gain buckets (SPEC_FULL §4.9).
type PowerRecordsRepository struct {
	DB *sqlx.DB
}

func GetPowerRecordsRepository() *PowerRecordsRepository {
	powerRecordsRepoOnce.Do(func() {
		powerRecordsRepoInstance = &PowerRecordsRepository{DB: GetConnection().DB}
	})
	return powerRecordsRepoInstance
}

// bucketColumns returns the three (value, activity_id) column name
// pairs for a bucket prefix like "power_5m" or "longest_ride".
func bucketColumns(prefix string) [3][2]string {
	var cols [3][2]string
	for rank := 0; rank < 3; rank++ {
		cols[rank] = [2]string{
			fmt.Sprintf("%s_%d", prefix, rank+1),
			fmt.Sprintf("%s_%d_activity_id", prefix, rank+1),
		}
	}
	return cols
}

func powerColumnPrefix(windowKey string) string {
	return "power_" + windowKey
}

func allColumns() []string {
	cols := []string{"athlete_id"}
	for _, w := range schema.PowerRecordWindows {
		for _, pair := range bucketColumns(powerColumnPrefix(w)) {
			cols = append(cols, pair[0], pair[1])
		}
	}
	for _, pair := range bucketColumns("longest_ride") {
		cols = append(cols, pair[0], pair[1])
	}
	for _, pair := range bucketColumns("max_elevation") {
		cols = append(cols, pair[0], pair[1])
	}
	return cols
}

// GetRow loads an athlete's personal-records row, returning a
// zero-valued row (not an error) if none exists yet — the first
// activity for a new athlete is always the one that creates it.
func (r *PowerRecordsRepository) GetRow(athleteID int64) (*schema.PersonalRecordsRow, error) {
	cols := allColumns()
	row := sq.Select(cols...).From("tb_athlete_power_records").
		Where(sq.Eq{"athlete_id": athleteID}).RunWith(r.DB).QueryRow()

	nPairs := (len(cols) - 1) / 2
	values := make([]sql.NullFloat64, nPairs)
	ids := make([]sql.NullInt64, nPairs)

	dest := make([]interface{}, len(cols))
	var gotAthleteID int64
	dest[0] = &gotAthleteID
	for p := 0; p < nPairs; p++ {
		dest[1+2*p] = &values[p]
		dest[2+2*p] = &ids[p]
	}

	if err := row.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return schema.NewPersonalRecordsRow(athleteID), nil
		}
		log.Errorf("GetRow(%d): %v", athleteID, err)
		return nil, apperror.Internal(err, "querying power records row")
	}

	out := schema.NewPersonalRecordsRow(athleteID)
	p := 0
	for _, w := range schema.PowerRecordWindows {
		var slots [3]schema.RecordSlot
		for rank := 0; rank < 3; rank++ {
			slots[rank] = slotFrom(values[p], ids[p])
			p++
		}
		out.PowerRecords[w] = slots
	}
	for rank := 0; rank < 3; rank++ {
		out.LongestRide[rank] = slotFrom(values[p], ids[p])
		p++
	}
	for rank := 0; rank < 3; rank++ {
		out.MaxElevationGain[rank] = slotFrom(values[p], ids[p])
		p++
	}
	return out, nil
}

func slotFrom(v sql.NullFloat64, id sql.NullInt64) schema.RecordSlot {
	if !v.Valid {
		return schema.RecordSlot{}
	}
	return schema.RecordSlot{Value: schema.Float(v.Float64), SourceActivityID: id.Int64}
}

// SaveRow upserts the whole wide row in one statement.
func (r *PowerRecordsRepository) SaveRow(row *schema.PersonalRecordsRow) error {
	cols := allColumns()
	placeholders := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	args[0] = row.AthleteID
	placeholders[0] = "?"

	idx := 1
	appendSlots := func(slots [3]schema.RecordSlot) {
		for rank := 0; rank < 3; rank++ {
			placeholders[idx] = "?"
			placeholders[idx+1] = "?"
			args[idx] = nullableFloat(slots[rank].Value)
			if slots[rank].SourceActivityID == 0 {
				args[idx+1] = nil
			} else {
				args[idx+1] = slots[rank].SourceActivityID
			}
			idx += 2
		}
	}
	for _, w := range schema.PowerRecordWindows {
		appendSlots(row.PowerRecords[w])
	}
	appendSlots(row.LongestRide)
	appendSlots(row.MaxElevationGain)

	updates := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	query := fmt.Sprintf(
		"INSERT INTO tb_athlete_power_records (%s) VALUES (%s) ON CONFLICT(athlete_id) DO UPDATE SET %s",
		joinColumns(cols), joinColumns(placeholders), joinColumns(updates))

	if _, err := r.DB.Exec(query, args...); err != nil {
		log.Errorf("SaveRow(%d): %v", row.AthleteID, err)
		return apperror.Internal(err, "upserting power records row")
	}
	return nil
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
