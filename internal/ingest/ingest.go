// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingest normalizes the two heterogeneous activity sources —
// the provider's JSON streams and the native binary recording — into
// the one uniform SampleTable representation everything downstream
// computes on.
package ingest

import (
	"context"

	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// SourceIngest is the single capability an activity source exposes:
// produce the sample table, and optionally a pre-aggregated session
// summary. The two implementations form a closed variant set
// (Provider, Native).
type SourceIngest interface {
	LoadSampleTable(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, error)
	LoadSession(ctx context.Context, activity *schema.ActivityRecord) (*schema.SessionSummary, error)
}
