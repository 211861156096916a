// main is the entry point of the masterstat CLI.
// It initializes the configuration and logger, queries the configured
// QuakeWorld masters concurrently, and renders the discovered server list.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/internal/config"
	"github.com/woozymasta/masterstat/internal/geoip"
	"github.com/woozymasta/masterstat/internal/logger"
	"github.com/woozymasta/masterstat/internal/models"
	"github.com/woozymasta/masterstat/internal/output"
	"github.com/woozymasta/masterstat/internal/storage"
	"github.com/woozymasta/masterstat/pkg/masterstat"
	"golang.org/x/time/rate"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)

	// GeoIP
	var geoProvider *geoip.Provider
	if cfg.GeoIP.Path != "" {
		if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		var err error
		geoProvider, err = geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
			geoProvider = nil
		} else {
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	// History database
	var store *storage.Repository
	if cfg.Storage.Path != "" {
		var err error
		store, err = storage.New(cfg.Storage.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize history database")
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing history database")
			}
		}()

		if cfg.Storage.Prune > 0 {
			pruned, err := store.PruneStale(time.Now().Add(-cfg.Storage.Prune))
			if err != nil {
				log.Error().Err(err).Msg("Failed to prune stale servers")
			} else if pruned > 0 {
				log.Info().Int64("deleted", pruned).Msg("Pruned stale servers from history")
			}
		}
	}

	masters := cfg.Masters()

	if cfg.Query.Watch > 0 {
		return watch(cfg, masters, geoProvider, store)
	}

	if !runOnce(cfg, masters, geoProvider, store) {
		return 1
	}

	return 0
}

// watch re-queries the masters forever, paced by the watch interval, until
// SIGINT or SIGTERM.
func watch(cfg *config.Config, masters []string, geo *geoip.Provider, store *storage.Repository) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("interval", cfg.Query.Watch).Msg("Watching master servers...")

	limiter := rate.NewLimiter(rate.Every(cfg.Query.Watch), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			log.Info().Msg("Watch stopped")
			return 0
		}

		runOnce(cfg, masters, geo, store)
	}
}

// runOnce performs one fan-out over the masters and renders the report.
// It returns false when no master could be queried or the report could not
// be written.
func runOnce(cfg *config.Config, masters []string, geo *geoip.Provider, store *storage.Repository) bool {
	started := time.Now()
	log.Info().Int("masters", len(masters)).Msg("Querying master servers...")

	result := masterstat.QueryMultiple(masters, cfg.Query.Timeout)

	for _, success := range result.Successes {
		log.Debug().
			Str("master", success.MasterAddress).
			Int("servers", len(success.ServerAddresses)).
			Msg("Master query succeeded")
	}
	for _, failure := range result.Failures {
		log.Warn().
			Err(failure.Err).
			Str("master", failure.MasterAddress).
			Msg("Master query failed")
	}

	var lookup output.CountryLookup
	if geo != nil {
		lookup = geo.Country
	}
	report := output.Build(result, lookup)

	log.Info().
		Int("servers", len(report.Servers)).
		Int("masters_ok", len(result.Successes)).
		Int("masters_failed", len(result.Failures)).
		Str("fingerprint", report.Fingerprint).
		Dur("elapsed", time.Since(started)).
		Msg("Query finished")

	if store != nil {
		persist(store, report, started)
	}

	if err := writeReport(cfg.Output, report); err != nil {
		log.Error().Err(err).Msg("Failed to write report")
		return false
	}

	return len(result.Successes) > 0
}

// persist records the run and every discovered server in the history
// database, and logs whether the server list changed since the previous run.
func persist(store *storage.Repository, report *output.Report, started time.Time) {
	lastHash, err := store.LastRunHash()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read previous run")
	} else if lastHash != "" {
		if lastHash == report.Fingerprint {
			log.Debug().Msg("Server list unchanged since previous run")
		} else {
			log.Info().Msg("Server list changed since previous run")
		}
	}

	now := time.Now()
	for _, server := range report.Servers {
		ip, portStr, err := net.SplitHostPort(server.Address)
		if err != nil {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			continue
		}

		record := models.Server{
			IP:          ip,
			Port:        port,
			CountryCode: server.Country,
			FirstSeen:   now,
			LastSeen:    now,
		}
		if err := store.UpsertServer(record); err != nil {
			log.Warn().Err(err).Str("server", server.Address).Msg("Failed to record server")
		}
	}

	failed := 0
	for _, master := range report.Masters {
		if master.Error != "" {
			failed++
		}
	}

	run := models.Run{
		StartedAt:     started,
		MastersTotal:  len(report.Masters),
		MastersFailed: failed,
		ServersTotal:  len(report.Servers),
		ListHash:      report.Fingerprint,
	}
	if err := store.RecordRun(run); err != nil {
		log.Error().Err(err).Msg("Failed to record run")
	}
}

// writeReport renders the report to stdout or to the configured file.
func writeReport(cfg config.Output, report *output.Report) error {
	if cfg.Path == "" {
		return report.Write(os.Stdout, cfg.Format)
	}

	file, err := os.Create(cfg.Path)
	if err != nil {
		return err
	}

	if err := report.Write(file, cfg.Format); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}
