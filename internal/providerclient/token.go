// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package providerclient

import (
	"context"
	"time"

	"github.com/cc-analytics/activity-engine/internal/apperror"
	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"golang.org/x/oauth2"
)

// tokenMaxAge is how long a stored access token is trusted before a
// refresh is forced through the provider's OAuth endpoint.
const tokenMaxAge = 6 * time.Hour

// oauthEndpoint builds the provider's token endpoint from the
// configured base URL.
func oauthEndpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		TokenURL: config.Keys.ProviderBaseURL + "/oauth/token",
	}
}

// AccessTokenForDevice returns a usable access token for a device,
// refreshing through OAuth when the stored one is older than six
// hours and persisting the renewed pair back to tb_oauth_token.
func AccessTokenForDevice(ctx context.Context, deviceID string) (string, error) {
	repo := repository.GetOAuthTokenRepository()
	stored, err := repo.Get(deviceID)
	if err != nil {
		return "", err
	}

	if time.Since(stored.UpdateTime) <= tokenMaxAge {
		return stored.AccessToken, nil
	}

	conf := &oauth2.Config{
		ClientID:     config.Keys.ProviderClientID,
		ClientSecret: config.Keys.ProviderClientSecret,
		Endpoint:     oauthEndpoint(),
	}

	src := conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		// expired on purpose so the source refreshes immediately
		Expiry: time.Now().Add(-time.Minute),
	})

	fresh, err := src.Token()
	if err != nil {
		log.Errorf("refreshing provider token for device %s: %v", deviceID, err)
		return "", apperror.Internal(err, "refreshing provider token")
	}

	refreshToken := fresh.RefreshToken
	if refreshToken == "" {
		refreshToken = stored.RefreshToken
	}
	if err := repo.Upsert(&repository.StoredToken{
		DeviceID:     deviceID,
		AccessToken:  fresh.AccessToken,
		RefreshToken: refreshToken,
		UpdateTime:   time.Now().UTC(),
	}); err != nil {
		// the fresh token still works for this run
		log.Warnf("persisting refreshed token for device %s: %v", deviceID, err)
	}

	return fresh.AccessToken, nil
}
