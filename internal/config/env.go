// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"fmt"
	"net/url"
	"os"
)

// DatabaseURLFromEnv resolves the database DSN per §6: DATABASE_URL if
// set, else composed from DB_{HOST,USER,PASSWORD,NAME} with the
// password URL-encoded. Returns ok=false if neither is present.
func DatabaseURLFromEnv() (string, bool) {
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && v != "" {
		return v, true
	}

	host, hasHost := os.LookupEnv("DB_HOST")
	user, hasUser := os.LookupEnv("DB_USER")
	name, hasName := os.LookupEnv("DB_NAME")
	if !hasHost || !hasUser || !hasName {
		return "", false
	}
	password := os.Getenv("DB_PASSWORD")

	return fmt.Sprintf("%s:%s@tcp(%s)/%s", user, url.QueryEscape(password), host, name), true
}
