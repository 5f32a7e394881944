// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package repository

import (
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Version is the database schema version this build supports.
const Version uint = 1

//go:embed migrations/*
var migrationFiles embed.FS

func checkDBVersion(backend string, db *sql.DB) {
	if backend != "sqlite3" {
		log.Fatalf("unsupported database driver: %s", backend)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		log.Fatal(err)
	}
	d, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite3", driver)
	if err != nil {
		log.Fatal(err)
	}

	v, _, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			log.Warn("Uninitialized database, run with -migrate-db first!")
			return
		}
		log.Fatal(err)
	}

	if v < Version {
		log.Warnf("Unsupported database version %d, need %d. Run with -migrate-db.", v, Version)
		os.Exit(0)
	}

	if v > Version {
		log.Warnf("Unsupported database version %d, need %d. Refer to the docs on downgrading with an external migrate tool.", v, Version)
		os.Exit(0)
	}
}

// MigrateDB runs every pending migration against the given DSN.
func MigrateDB(backend string, db string) {
	if backend != "sqlite3" {
		log.Fatalf("unsupported database driver: %s", backend)
	}

	d, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, fmt.Sprintf("sqlite3://%s?_foreign_keys=on", db))
	if err != nil {
		log.Fatal(err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal(err)
	}

	m.Close()
}

// RevertDB rolls back one migration step.
func RevertDB(backend string, db string) {
	if backend != "sqlite3" {
		log.Fatalf("unsupported database driver: %s", backend)
	}

	d, err := iofs.New(migrationFiles, "migrations/sqlite3")
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, fmt.Sprintf("sqlite3://%s?_foreign_keys=on", db))
	if err != nil {
		log.Fatal(err)
	}

	if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
		log.Fatal(err)
	}

	m.Close()
}
