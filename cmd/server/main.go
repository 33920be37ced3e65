/*
 * Copyright 2025 Bitshield Networks.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bitshield/school-network-monitor/pkg/config"
	"github.com/Bitshield/school-network-monitor/pkg/core/api"
	"github.com/Bitshield/school-network-monitor/pkg/db"
	"github.com/Bitshield/school-network-monitor/pkg/discovery"
	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
	"github.com/Bitshield/school-network-monitor/pkg/monitor"
	"github.com/Bitshield/school-network-monitor/pkg/probe"
	"github.com/Bitshield/school-network-monitor/pkg/snmp"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/netmon/server.json", "Path to server config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logg, err := loadConfig(ctx, *configPath)
	if err != nil {
		return err
	}

	store, err := db.New(ctx, &cfg.Database, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	probeTimeout := time.Duration(cfg.Monitoring.ProbeTimeout)

	// The on-demand ping endpoint can probe over ICMP, TCP, or SNMP; the
	// sweep targets carry no protocol and land on ICMP.
	dispatcher := probe.NewDispatcher(
		probe.NewICMPPinger(probeTimeout, cfg.Monitoring.PingCount, logg),
		probe.NewTCPProber(probeTimeout, logg),
		probe.NewSNMPProber(probeTimeout, logg),
	)

	devicePinger := probe.NewRetrier(
		dispatcher,
		cfg.Monitoring.RetryMaxAttempts,
		time.Duration(cfg.Monitoring.RetryInitialWait),
	)
	linkPinger := probe.NewICMPPinger(probeTimeout, cfg.Monitoring.LinkPingCount, logg)

	deviceSweep := probe.NewSweeper(devicePinger, cfg.Monitoring.Concurrency, logg)
	linkSweep := probe.NewSweeper(linkPinger, cfg.Monitoring.Concurrency, logg)

	discoveryConcurrency := cfg.Discovery.Concurrency
	if discoveryConcurrency == 0 {
		discoveryConcurrency = cfg.Monitoring.Concurrency
	}

	discoverySweep := probe.NewSweeper(
		probe.NewICMPPinger(time.Duration(cfg.Discovery.Timeout), 1, logg),
		discoveryConcurrency,
		logg,
	)

	hub := api.NewHub(logg)

	mon := monitor.New(store, deviceSweep, linkSweep, hub, cfg.Monitoring, logg)
	disc := discovery.New(store, discoverySweep, hub, cfg.Discovery.MaxHosts, logg)

	serverOpts := []func(*api.APIServer){
		api.WithAPIKey(cfg.APIKey),
		api.WithProber(devicePinger),
		api.WithLinkProber(linkPinger),
		api.WithHub(hub),
		api.WithCycleRunner(mon),
		api.WithDiscoverer(disc),
	}

	var snmpClient *snmp.Client

	if cfg.SNMP.Enabled {
		snmpClient = snmp.NewClient(cfg.SNMP, logg)
		serverOpts = append(serverOpts, api.WithInterfaceFetcher(snmpClient))
	}

	server := api.NewAPIServer(store, cfg.CORS, logg, serverOpts...)

	runner := monitor.NewRunner(mon, time.Duration(cfg.Monitoring.Interval), logg)
	go runner.Start(ctx)

	var collector *snmp.Collector

	if cfg.SNMP.Enabled {
		collector = snmp.NewCollector(store, snmpClient, server.Hub(), cfg.SNMP, logg)
		go collector.Start(ctx)
	}

	err = server.Start(ctx, cfg.ListenAddr)

	// Let the background loops drain before the pool closes.
	<-runner.Done()

	if collector != nil {
		<-collector.Done()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func loadConfig(ctx context.Context, path string) (*models.CoreServiceConfig, logger.Logger, error) {
	var cfg models.CoreServiceConfig

	bootstrapLog := logger.NewTestLogger()

	loader := config.NewConfig(bootstrapLog).WithOverrides(
		config.EnvOverride{Name: "NETMON_LISTEN_ADDR", Apply: func(v string) { cfg.ListenAddr = v }},
		config.EnvOverride{Name: "NETMON_API_KEY", Apply: func(v string) { cfg.APIKey = v }},
		config.EnvOverride{Name: "NETMON_DB_HOST", Apply: func(v string) { cfg.Database.Host = v }},
		config.EnvOverride{Name: "NETMON_DB_PASSWORD", Apply: func(v string) { cfg.Database.Password = v }},
	)

	if err := loader.LoadAndValidate(ctx, path, &cfg); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logg, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return &cfg, logg, nil
}
