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
	"github.com/jmoiron/sqlx"
)

var (
	oauthTokenRepoOnce     sync.Once
	oauthTokenRepoInstance *OAuthTokenRepository
)

// StoredToken is one device's cached provider OAuth token pair.
type StoredToken struct {
	DeviceID     string    `db:"device_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	UpdateTime   time.Time `db:"update_time"`
}

// OAuthTokenRepository serves tb_oauth_token, the refresh-token cache
// backing internal/providerclient's automatic token renewal.
type OAuthTokenRepository struct {
	DB *sqlx.DB
}

func GetOAuthTokenRepository() *OAuthTokenRepository {
	oauthTokenRepoOnce.Do(func() {
		oauthTokenRepoInstance = &OAuthTokenRepository{DB: GetConnection().DB}
	})
	return oauthTokenRepoInstance
}

func (r *OAuthTokenRepository) Get(deviceID string) (*StoredToken, error) {
	t := &StoredToken{}
	err := sq.Select("device_id", "access_token", "refresh_token", "update_time").
		From("tb_oauth_token").Where(sq.Eq{"device_id": deviceID}).RunWith(r.DB).
		QueryRow().Scan(&t.DeviceID, &t.AccessToken, &t.RefreshToken, &t.UpdateTime)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("no stored token for device %q", deviceID)
	}
	if err != nil {
		log.Errorf("Get(%s): %v", deviceID, err)
		return nil, apperror.Internal(err, "querying oauth token")
	}
	return t, nil
}

func (r *OAuthTokenRepository) Upsert(t *StoredToken) error {
	_, err := r.DB.Exec(`
		INSERT INTO tb_oauth_token (device_id, access_token, refresh_token, update_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			update_time = excluded.update_time`,
		t.DeviceID, t.AccessToken, t.RefreshToken, t.UpdateTime)
	if err != nil {
		log.Errorf("Upsert(%s): %v", t.DeviceID, err)
		return apperror.Internal(err, "upserting oauth token")
	}
	return nil
}
