// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"os"

	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/pkg/log"
)

const envString = `
# Database password for a MySQL-style DSN composed from parts.
# Leave unset when the sqlite3 default is used.
# DB_HOST="localhost"
# DB_USER="activity"
# DB_PASSWORD="changeme"
# DB_NAME="activity"

# Provider API credentials for the OAuth token refresh.
# PROVIDER_CLIENT_ID=""
# PROVIDER_CLIENT_SECRET=""
`

const configString = `
{
    "addr": "127.0.0.1:8080",
    "cache-enabled": true,
    "cache-dir": "./var/result-cache",
    "cache-max-entries": 100,
    "stream-cache-ttl": "1h",
    "best-curve-dir": "./var/best_power",
    "best-curve-length": 7200,
    "db-driver": "sqlite3",
    "db": "./var/activity.db",
    "provider-timeout-seconds": 10,
    "log-level": "warn"
}
`

func initEnv() {
	if _, err := os.Stat("config.json"); err == nil {
		log.Fatal("config.json already exists!")
	}
	if err := os.WriteFile("config.json", []byte(configString), 0o666); err != nil {
		log.Fatalf("Writing config.json failed: %s", err.Error())
	}
	if err := os.WriteFile(".env", []byte(envString), 0o666); err != nil {
		log.Fatalf("Writing .env failed: %s", err.Error())
	}
	if err := os.Mkdir("var", 0o777); err != nil {
		log.Fatalf("Mkdir var failed: %s", err.Error())
	}

	repository.MigrateDB("sqlite3", "./var/activity.db")
}
