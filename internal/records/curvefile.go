// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

var (
	curveStoreOnce     sync.Once
	curveStoreInstance *CurveStore
)

// CurveStore persists one best-power-curve JSON document per athlete
// under <best-curve-dir>/<athlete_id>.json. Writes go through a temp
// file plus rename; Update holds the store's mutex across its
// read-merge-write, so concurrent updates never lose a merge.
type CurveStore struct {
	dir string
	mu  sync.Mutex
}

// GetCurveStore returns the process-wide store, creating its
// directory on first use.
func GetCurveStore() *CurveStore {
	curveStoreOnce.Do(func() {
		dir := config.Keys.BestCurveDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Errorf("creating best-curve dir %s: %v", dir, err)
		}
		curveStoreInstance = &CurveStore{dir: dir}
	})
	return curveStoreInstance
}

func (cs *CurveStore) path(athleteID int64) string {
	return filepath.Join(cs.dir, fmt.Sprintf("%d.json", athleteID))
}

// Load reads an athlete's stored curve. A missing file is not an
// error: a nil curve means no history yet.
func (cs *CurveStore) Load(athleteID int64) (*schema.BestPowerCurve, error) {
	raw, err := os.ReadFile(cs.path(athleteID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperror.Internal(err, "reading best-curve file")
	}
	var curve schema.BestPowerCurve
	if err := json.Unmarshal(raw, &curve); err != nil {
		return nil, apperror.Internal(err, "decoding best-curve file")
	}
	return &curve, nil
}

// Update merges an activity's curve into the stored one (element-wise
// max, extended to the longer length) and persists the result
// atomically. Returns the merged curve.
func (cs *CurveStore) Update(athleteID int64, incoming []int) ([]int, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	stored, err := cs.Load(athleteID)
	if err != nil {
		return nil, err
	}

	var storedCurve []int
	if stored != nil {
		storedCurve = stored.BestCurve
	}
	merged := schema.MergeBestCurve(storedCurve, incoming)

	doc := schema.BestPowerCurve{
		AthleteID: athleteID,
		UpdatedAt: time.Now().UTC(),
		BestCurve: merged,
	}
	raw, err := json.Marshal(&doc)
	if err != nil {
		return nil, apperror.Internal(err, "encoding best-curve file")
	}

	path := cs.path(athleteID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return nil, apperror.Internal(err, "writing best-curve file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, apperror.Internal(err, "renaming best-curve file")
	}
	return merged, nil
}
