// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package cache

import (
	"time"

	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/go-co-op/gocron/v2"
)

// sweepInterval is the fixed wake interval of the background sweeper.
const sweepInterval = 5 * time.Minute

// StartSweeper schedules the periodic expiry-then-trim pass on the
// given scheduler. It shares the cache's own mutex with foreground
// accesses; the scheduler is started and stopped by the caller.
func (c *StreamCache) StartSweeper(s gocron.Scheduler) error {
	_, err := s.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() {
			c.Sweep()
			c.logStats()
		}),
		gocron.WithName("stream-cache-sweeper"),
	)
	if err != nil {
		log.Errorf("scheduling stream cache sweeper: %v", err)
		return err
	}
	return nil
}
