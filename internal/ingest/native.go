// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package ingest

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/cc-analytics/activity-engine/pkg/schema"
)

// RecordingDecoder turns one native binary recording into the sample
// table and, when the recording carries a session message, the
// pre-aggregated summary. The decoder itself is an external
// collaborator; the engine only consumes this interface.
type RecordingDecoder interface {
	Decode(r io.Reader) (*schema.SampleTable, *schema.SessionSummary, error)
}

var (
	decoderMu sync.RWMutex
	decoder   RecordingDecoder
)

// RegisterDecoder installs the process-wide recording decoder. Called
// once at startup before any native ingest runs.
func RegisterDecoder(d RecordingDecoder) {
	decoderMu.Lock()
	defer decoderMu.Unlock()
	decoder = d
}

func getDecoder() (RecordingDecoder, error) {
	decoderMu.RLock()
	defer decoderMu.RUnlock()
	if decoder == nil {
		return nil, apperror.Internal(nil, "no recording decoder registered")
	}
	return decoder, nil
}

// NativeIngest decodes a locally uploaded binary recording, fetched
// from the activity's upload URL (or read straight from disk for a
// file:// or plain path).
type NativeIngest struct {
	httpClient *http.Client

	mu      sync.Mutex
	table   *schema.SampleTable
	session *schema.SessionSummary
	loaded  bool
}

// NewNativeIngest builds an ingest with the configured fetch timeout.
func NewNativeIngest() *NativeIngest {
	timeout := time.Duration(config.Keys.NativeFetchTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NativeIngest{httpClient: &http.Client{Timeout: timeout}}
}

// load fetches and decodes the recording once; table and session are
// both produced by the same decode pass.
func (ni *NativeIngest) load(ctx context.Context, activity *schema.ActivityRecord) error {
	ni.mu.Lock()
	defer ni.mu.Unlock()
	if ni.loaded {
		return nil
	}

	if activity.UploadURL == "" {
		return apperror.NotFound("activity %d has no uploaded recording", activity.ID)
	}

	dec, err := getDecoder()
	if err != nil {
		return err
	}

	r, closeFn, err := ni.open(ctx, activity.UploadURL)
	if err != nil {
		return err
	}
	defer closeFn()

	table, session, err := dec.Decode(r)
	if err != nil {
		log.Errorf("decoding recording for activity %d: %v", activity.ID, err)
		return apperror.Internal(err, "decoding recording")
	}

	ni.table = table
	ni.session = session
	ni.loaded = true
	return nil
}

func (ni *NativeIngest) open(ctx context.Context, uploadURL string) (io.Reader, func(), error) {
	if strings.HasPrefix(uploadURL, "http://") || strings.HasPrefix(uploadURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uploadURL, nil)
		if err != nil {
			return nil, nil, apperror.Internal(err, "building recording fetch request")
		}
		resp, err := ni.httpClient.Do(req)
		if err != nil {
			return nil, nil, apperror.Internal(err, "fetching recording")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, nil, apperror.Internal(nil, "recording fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, func() { resp.Body.Close() }, nil
	}

	path := strings.TrimPrefix(uploadURL, "file://")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperror.NotFound("recording file %s not found", path)
		}
		return nil, nil, apperror.Internal(err, "opening recording file")
	}
	return f, func() { f.Close() }, nil
}

// LoadSampleTable decodes (once) and returns the sample table.
func (ni *NativeIngest) LoadSampleTable(ctx context.Context, activity *schema.ActivityRecord) (*schema.SampleTable, error) {
	if err := ni.load(ctx, activity); err != nil {
		return nil, err
	}
	return ni.table, nil
}

// LoadSession decodes (once) and returns the session summary, which
// may be nil when the recording carries none.
func (ni *NativeIngest) LoadSession(ctx context.Context, activity *schema.ActivityRecord) (*schema.SessionSummary, error) {
	if err := ni.load(ctx, activity); err != nil {
		return nil, err
	}
	return ni.session, nil
}
