// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/joho/godotenv"
)

// ProgramConfig is the process-wide configuration. Keys holds the
// live, resolved values: defaults overridden by config.json overridden
// by environment variables (the env-then-file-then-default rule of §6,
// applied individually per key rather than all-or-nothing).
type ProgramConfig struct {
	Addr string `json:"addr"`

	CacheEnabled    bool   `json:"cache-enabled"`
	CacheDir        string `json:"cache-dir"`
	CacheMaxEntries int    `json:"cache-max-entries"`
	StreamCacheTTL  string `json:"stream-cache-ttl"`

	BestCurveDir    string `json:"best-curve-dir"`
	BestCurveLength int    `json:"best-curve-length"`

	DBDriver string `json:"db-driver"`
	DB       string `json:"db"`

	ProviderBaseURL        string `json:"provider-base-url"`
	ProviderClientID       string `json:"-"`
	ProviderClientSecret   string `json:"-"`
	ProviderTimeoutSeconds int    `json:"provider-timeout-seconds"`
	NativeFetchTimeoutSecs int    `json:"native-fetch-timeout-seconds"`

	LogLevel string `json:"log-level"`
	LogDate  bool   `json:"-"`
	Dev      bool   `json:"dev"`
}

var Keys = ProgramConfig{
	Addr:                   ":8080",
	CacheEnabled:           true,
	CacheDir:               "./var/result-cache",
	CacheMaxEntries:        100,
	StreamCacheTTL:         "1h",
	BestCurveDir:           "./var/best_power",
	BestCurveLength:        7200,
	DBDriver:               "sqlite3",
	DB:                     "./var/activity.db",
	ProviderBaseURL:        "",
	ProviderTimeoutSeconds: 10,
	NativeFetchTimeoutSecs: 30,
	LogLevel:               "warn",
}

// Init loads .env (if present), then flagConfigFile (if present and
// valid against configSchema), then lets environment variables
// override individual keys. A missing .env or config file is not
// fatal; a malformed config file is, while a .env that fails to load
// is only logged.
func Init(flagConfigFile string) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("error loading .env: %v", err)
	}

	if flagConfigFile != "" {
		raw, err := os.ReadFile(flagConfigFile)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Fatalf("reading config file: %v", err)
			}
		} else {
			if err := Validate(configSchema, raw); err != nil {
				log.Fatalf("validate config: %v", err)
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&Keys); err != nil {
				log.Fatalf("decode config file: %v", err)
			}
		}
	}

	applyEnvOverrides()
}

func applyEnvOverrides() {
	if v, ok := os.LookupEnv("CACHE_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			Keys.CacheEnabled = b
		}
	} else if Keys.CacheDir != "" {
		if data, err := os.ReadFile(cacheConfigPath()); err == nil {
			if b, ok := parseCacheConfigFile(data); ok {
				Keys.CacheEnabled = b
			}
		}
	}
	if v, ok := os.LookupEnv("CACHE_DIR"); ok {
		Keys.CacheDir = v
	}
	if v, ok := os.LookupEnv("CACHE_MAX_ENTRIES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			Keys.CacheMaxEntries = n
		}
	}
	if v, ok := os.LookupEnv("STREAM_CACHE_TTL"); ok {
		Keys.StreamCacheTTL = v
	}
	if v, ok := os.LookupEnv("BEST_CURVE_DIR"); ok {
		Keys.BestCurveDir = v
	}
	if v, ok := os.LookupEnv("BEST_CURVE_LENGTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			Keys.BestCurveLength = n
		}
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		Keys.LogLevel = v
	}
	if v, ok := os.LookupEnv("STRAVA_TIMEOUT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			Keys.ProviderTimeoutSeconds = n
		}
	}
	if v, ok := os.LookupEnv("PROVIDER_BASE_URL"); ok {
		Keys.ProviderBaseURL = v
	}
	if v, ok := os.LookupEnv("PROVIDER_CLIENT_ID"); ok {
		Keys.ProviderClientID = v
	}
	if v, ok := os.LookupEnv("PROVIDER_CLIENT_SECRET"); ok {
		Keys.ProviderClientSecret = v
	}
	if dsn, ok := DatabaseURLFromEnv(); ok {
		Keys.DB = dsn
	}
}

// cacheConfigPath is the `.cache_config` file the cache-toggle
// endpoints (§6) persist their last choice to, so that a restart keeps
// whatever an operator last set via POST /activities/cache/toggle.
func cacheConfigPath() string {
	return ".cache_config"
}

func parseCacheConfigFile(data []byte) (bool, bool) {
	s := string(bytes.TrimSpace(data))
	const prefix = "enabled="
	if !bytes.HasPrefix([]byte(s), []byte(prefix)) {
		return false, false
	}
	b, err := strconv.ParseBool(s[len(prefix):])
	if err != nil {
		return false, false
	}
	return b, true
}

// WriteCacheConfigFile persists the cache-enabled flag to
// .cache_config, mirroring what CACHE_ENABLED would set on next boot.
func WriteCacheConfigFile(enabled bool) error {
	return os.WriteFile(cacheConfigPath(), []byte("enabled="+strconv.FormatBool(enabled)+"\n"), 0o644)
}

// StreamCacheTTLDuration parses Keys.StreamCacheTTL, falling back to
// one hour (the spec default) if unset or malformed.
func StreamCacheTTLDuration() time.Duration {
	if Keys.StreamCacheTTL == "" {
		return time.Hour
	}
	d, err := time.ParseDuration(Keys.StreamCacheTTL)
	if err != nil {
		return time.Hour
	}
	return d
}
