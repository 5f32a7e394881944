// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

// configSchema validates config.json before it is decoded into Keys.
// Most keys here can also be set by an environment variable (see
// applyEnvOverrides), which takes precedence over the file; addr,
// db-driver and dev have no environment override.
var configSchema = `
	{
  "type": "object",
  "properties": {
    "addr": {
      "description": "Address where the http server will listen on (e.g. 'localhost:8080').",
      "type": "string"
    },
    "cache-enabled": {
      "description": "Global switch for the two-tier cache substrate.",
      "type": "boolean"
    },
    "cache-dir": {
      "description": "Directory the on-disk result cache writes JSON payloads to.",
      "type": "string"
    },
    "cache-max-entries": {
      "description": "Max entries the in-process stream cache keeps before evicting the LRU tail.",
      "type": "integer"
    },
    "stream-cache-ttl": {
      "description": "TTL, parsable by time.ParseDuration, for in-process parsed-stream cache entries.",
      "type": "string"
    },
    "best-curve-dir": {
      "description": "Directory per-athlete best-power-curve JSON documents are written to.",
      "type": "string"
    },
    "best-curve-length": {
      "description": "Length (seconds) of the best-power curve arrays this instance maintains.",
      "type": "integer"
    },
    "db-driver": {
      "description": "Database driver; only sqlite3 is supported.",
      "type": "string"
    },
    "db": {
      "description": "DSN or file path for the database connection.",
      "type": "string"
    },
    "provider-base-url": {
      "description": "Base URL of the external activity provider's API.",
      "type": "string"
    },
    "provider-timeout-seconds": {
      "description": "Timeout, in seconds, for each outbound provider HTTP call.",
      "type": "integer"
    },
    "log-level": {
      "description": "debug, info, notice, warn, err or crit.",
      "type": "string"
    },
    "dev": {
      "description": "Enable development-only components such as the Swagger UI.",
      "type": "boolean"
    }
  }
	}`
