// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package providerclient talks to the external activity provider's
// HTTP API: activity detail, raw streams and athlete profile, plus the
// OAuth token refresh backed by tb_oauth_token.
package providerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"golang.org/x/time/rate"
)

// ProviderActivity is the subset of the provider's activity document
// the engine consumes.
type ProviderActivity struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Distance    float64   `json:"distance"`
	MovingTime  int       `json:"moving_time"`
	ElapsedTime int       `json:"elapsed_time"`
	StartDate   time.Time `json:"start_date"`
	Type        string    `json:"type"`
}

// ProviderAthlete is the provider-side athlete profile; its FTP is
// adopted for a single run when the local athlete has none.
type ProviderAthlete struct {
	ID     int64   `json:"id"`
	FTP    int     `json:"ftp"`
	Weight float64 `json:"weight"`
}

// ProviderStream is one raw stream: data points plus the original
// length before the provider's own downsampling.
type ProviderStream struct {
	Type         string          `json:"type"`
	Data         json.RawMessage `json:"data"`
	SeriesType   string          `json:"series_type"`
	OriginalSize int             `json:"original_size"`
	Resolution   string          `json:"resolution"`
}

var (
	clientOnce     sync.Once
	clientInstance *Client
)

// Client is the rate-limited provider API client. One instance per
// process; every outbound call carries the configured timeout.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// GetClient returns the process-wide provider client, constructed on
// first use from config.Keys.
func GetClient() *Client {
	clientOnce.Do(func() {
		timeout := time.Duration(config.Keys.ProviderTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		clientInstance = &Client{
			baseURL: strings.TrimRight(config.Keys.ProviderBaseURL, "/"),
			http:    &http.Client{Timeout: timeout},
			// providers meter bursts; outbound calls are capped at 8
			// per second with a burst of 16
			limiter: rate.NewLimiter(rate.Limit(8), 16),
		}
	})
	return clientInstance
}

func (c *Client) get(ctx context.Context, path, accessToken string, query url.Values, out any) error {
	if c.baseURL == "" {
		return apperror.Internal(nil, "provider base URL not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.Internal(err, "waiting for provider rate limit")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperror.Internal(err, "building provider request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Internal(err, "provider request %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Errorf("provider %s returned %d: %s", path, resp.StatusCode, string(body))
		return apperror.Internal(nil, "provider returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Internal(err, "decoding provider response for %s", path)
	}
	return nil
}

// GetActivity fetches one activity document by its provider-side id.
func (c *Client) GetActivity(ctx context.Context, externalID, accessToken string) (*ProviderActivity, error) {
	var out ProviderActivity
	if err := c.get(ctx, "/activities/"+externalID, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStreams fetches the requested stream types for one activity,
// keyed by type.
func (c *Client) GetStreams(ctx context.Context, externalID, accessToken string, keys []string) (map[string]*ProviderStream, error) {
	q := url.Values{}
	q.Set("keys", strings.Join(keys, ","))
	q.Set("key_by_type", "true")

	out := map[string]*ProviderStream{}
	if err := c.get(ctx, fmt.Sprintf("/activities/%s/streams", externalID), accessToken, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAthlete fetches the token owner's athlete profile.
func (c *Client) GetAthlete(ctx context.Context, accessToken string) (*ProviderAthlete, error) {
	var out ProviderAthlete
	if err := c.get(ctx, "/athlete", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
