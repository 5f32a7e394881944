// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"context"
	"time"

	"github.com/cc-analytics/activity-engine/pkg/log"
)

type sqlTimingKey struct{}

// Hooks satisfies the sqlhooks.Hooks interface, logging every query's
// text/args and elapsed time at debug level.
type Hooks struct{}

func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("SQL query %s %q", query, args)
	return context.WithValue(ctx, sqlTimingKey{}, time.Now()), nil
}

func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin := ctx.Value(sqlTimingKey{}).(time.Time)
	log.Debugf("Took: %s", time.Since(begin))
	return ctx, nil
}
