package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/netbridge/iptv-migrator/internal/api"
	"github.com/netbridge/iptv-migrator/internal/catalog"
	"github.com/netbridge/iptv-migrator/internal/config"
	"github.com/netbridge/iptv-migrator/internal/migration"
	"github.com/netbridge/iptv-migrator/internal/models"
	"github.com/netbridge/iptv-migrator/internal/store"
	"github.com/netbridge/iptv-migrator/internal/vendors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("migrator %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		}
	}

	cfg := config.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "migrator",
	})

	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.Fatal("opening database", "path", cfg.Database, "err", err)
	}
	defer db.Close()

	netplay := vendors.NewNetplay(cfg.Netplay.BaseURL, cfg.Netplay.Username, cfg.Netplay.Password, cfg.Netplay.RateLimit)
	maxplayer := vendors.NewMaxplayer(cfg.Maxplayer.BaseURL, cfg.Maxplayer.Email, cfg.Maxplayer.Password, cfg.ServerDomains, cfg.Maxplayer.RateLimit)

	plans := catalog.New(netplay)

	server := &api.Server{
		Store:     db,
		Jobs:      models.NewJobStore(),
		Netplay:   netplay,
		Maxplayer: maxplayer,
		Catalog:   plans,
		Orch: &migration.Orchestrator{
			Primary:   netplay,
			Secondary: maxplayer,
			Catalog:   plans,
			Log:       logger,
		},
		Log: logger,
	}

	logger.Info("starting", "version", version, "listen", cfg.Listen,
		"netplay", cfg.Netplay.BaseURL, "maxplayer", cfg.Maxplayer.BaseURL)

	if err := http.ListenAndServe(cfg.Listen, api.NewRouter(server)); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}
