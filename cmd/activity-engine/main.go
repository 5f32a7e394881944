// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/cc-analytics/activity-engine/internal/cache"
	"github.com/cc-analytics/activity-engine/internal/config"
	"github.com/cc-analytics/activity-engine/internal/ingest"
	"github.com/cc-analytics/activity-engine/internal/repository"
	"github.com/cc-analytics/activity-engine/internal/resultcache"
	"github.com/cc-analytics/activity-engine/internal/service"
	"github.com/cc-analytics/activity-engine/pkg/log"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/gops/agent"
)

const logoString = `
   _        _   _       _ _                             _
  /_\   ___| |_(_)_   _(_) |_ _   _    ___ _ __   __ _(_)_ __   ___
 //_\\ / __| __| \ \ / / | __| | | |  / _ \ '_ \ / _` + "`" + ` | | '_ \ / _ \
/  _  \ (__| |_| |\ V /| | |_| |_| | |  __/ | | | (_| | | | | |  __/
\_/ \_/\___|\__|_| \_/ |_|\__|\__, |  \___|_| |_|\__, |_|_| |_|\___|
                              |___/              |___/
`

var (
	date    string
	commit  string
	version string
)

func main() {
	cliInit()

	if flagVersion {
		fmt.Print(logoString)
		fmt.Printf("Version:\t%s\n", version)
		fmt.Printf("Git hash:\t%s\n", commit)
		fmt.Printf("Build time:\t%s\n", date)
		fmt.Printf("SQL db version:\t%d\n", repository.Version)
		os.Exit(0)
	}

	// Apply config flags for pkg/log
	log.SetLogLevel(flagLogLevel)
	log.SetLogDateTime(flagLogDateTime)

	// See https://github.com/google/gops (Runtime overhead is almost zero)
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if flagInit {
		initEnv()
		fmt.Print("Successfully setup environment!\n")
		fmt.Print("Please review config.json and .env and start with:\n")
		fmt.Print("./activity-engine -server -dev\n")
		os.Exit(0)
	}

	config.Init(flagConfigFile)
	if config.Keys.LogLevel != "" && flagLogLevel == "warn" {
		log.SetLogLevel(config.Keys.LogLevel)
	}

	if flagMigrateDB {
		repository.MigrateDB(config.Keys.DBDriver, config.Keys.DB)
		os.Exit(0)
	}
	if flagRevertDB {
		repository.RevertDB(config.Keys.DBDriver, config.Keys.DB)
		os.Exit(0)
	}

	repository.Connect(config.Keys.DBDriver, config.Keys.DB)

	// Native binary recordings are decoded by the FIT decoder.
	ingest.RegisterDecoder(ingest.NewFitDecoder())

	// Wire the caching substrate and the orchestrating service. The
	// stream cache's loader chain bottoms out in the native ingest.
	streams := cache.NewStreamCache(
		config.StreamCacheTTLDuration(),
		config.Keys.CacheMaxEntries,
		service.NewStreamLoader(),
		service.NewAthleteLoader(),
	)
	service.Init(streams)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("creating scheduler: %v", err)
	}
	if err := streams.StartSweeper(scheduler); err != nil {
		log.Fatalf("starting cache sweeper: %v", err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(resultcache.GetResultCache().CleanupExpired),
		gocron.WithName("result-cache-cleanup"),
	); err != nil {
		log.Fatalf("starting result cache cleanup: %v", err)
	}
	scheduler.Start()

	if !flagServer {
		log.Print("No errors, init is done and there is nothing to do. Exiting...")
		if err := scheduler.Shutdown(); err != nil {
			log.Warnf("shutting down scheduler: %v", err)
		}
		os.Exit(0)
	}

	serverInit()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		serverStart()
	}()

	wg.Add(1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer wg.Done()
		<-sigs
		runtime.SetBlockProfileRate(5000)
		runtime.SetMutexProfileFraction(5)

		serverShutdown()
		if err := scheduler.Shutdown(); err != nil {
			log.Warnf("shutting down scheduler: %v", err)
		}
	}()

	wg.Wait()
	log.Print("Graceful shutdown completed!")
}
