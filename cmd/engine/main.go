package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diagramquest/engine/internal/api"
	"github.com/diagramquest/engine/internal/blueprint"
	"github.com/diagramquest/engine/internal/config"
	"github.com/diagramquest/engine/internal/events"
	"github.com/diagramquest/engine/internal/game"
	"github.com/diagramquest/engine/internal/mqtt"
	"github.com/diagramquest/engine/internal/storage"
	"github.com/diagramquest/engine/internal/storage/postgres"
	"github.com/diagramquest/engine/internal/storage/sqlite"
	"github.com/diagramquest/engine/internal/version"
)

const (
	restoreQueryLimit = 5000
	snapshotInterval  = 30 * time.Second
)

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func openJournal(cfg *config.EngineConfig) storage.Journal {
	switch cfg.Storage.Backend {
	case "postgres":
		j, err := postgres.New(cfg.Game.ID)
		if err != nil {
			log.Warn().Err(err).Msg("postgres journal unavailable, running without persistence")
			return nil
		}
		return j
	case "sqlite":
		dsn := cfg.Storage.DSN
		if dsn == "" {
			dsn = "data/journal.db"
		}
		j, err := sqlite.Open(dsn, cfg.Game.ID)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite journal unavailable, running without persistence")
			return nil
		}
		return j
	case "", "none":
		return nil
	default:
		log.Warn().Str("backend", cfg.Storage.Backend).Msg("unknown storage backend, running without persistence")
		return nil
	}
}

func main() {
	_ = godotenv.Load()
	setupLogging()

	configPath := flag.String("config", "engine.yaml", "path to engine.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}

	bp, err := blueprint.Load(cfg.Game.Blueprint)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Game.Blueprint).Msg("failed to load blueprint")
	}

	journal := openJournal(cfg)
	if journal != nil {
		events.SetJournal(journal)
		api.SetJournalConnected(true)
		defer journal.Close()
	}

	api.InitAuth()
	api.InitMetrics()

	sess, err := game.RestoreFromJournal(bp, journal, restoreQueryLimit)
	if err != nil {
		log.Warn().Err(err).Msg("journal restore failed, starting fresh")
		sess = nil
	}
	if sess == nil {
		sess = game.NewSession(bp)
		sess.SetHistoryLimit(cfg.HistoryLimit())
		events.SetSessionID(sess.ID)
		if err := sess.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start session")
		}
	} else {
		sess.SetHistoryLimit(cfg.HistoryLimit())
		events.SetSessionID(sess.ID)
		log.Info().Str("session_id", sess.ID).Str("scene_id", sess.SceneID()).Msg("session restored from journal")
	}

	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "engine starting", map[string]interface{}{
		"game":     bp.GameID,
		"hostname": hostname,
		"pid":      os.Getpid(),
		"version":  version.Version,
	})

	srv := api.NewServer(bp, sess, cfg.Game.Name)
	srv.Start(cfg.APIPort())

	// Scene timers run on a coarse tick; blueprints declare limits in
	// whole seconds.
	sceneTicker := time.NewTicker(time.Second)
	defer sceneTicker.Stop()
	go func() {
		for range sceneTicker.C {
			srv.Tick()
		}
	}()

	if journal != nil {
		snapTicker := time.NewTicker(snapshotInterval)
		defer snapTicker.Stop()
		go func() {
			for range snapTicker.C {
				if err := srv.SaveSnapshot(); err != nil {
					log.Warn().Err(err).Msg("periodic snapshot failed")
				}
			}
		}()
	}

	var telemetry *mqtt.Telemetry
	if t, err := mqtt.Start(mqtt.BrokerURL(cfg.Telemetry.BrokerURL), bp.GameID, srv); err != nil {
		log.Warn().Err(err).Msg("telemetry unavailable, continuing without broker")
	} else {
		telemetry = t
		api.SetTelemetryConnected(true)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	events.Emit("info", "system.shutdown", "engine stopping", map[string]interface{}{
		"game": bp.GameID,
	})
	if err := srv.SaveSnapshot(); err != nil {
		log.Warn().Err(err).Msg("shutdown snapshot failed")
	}
	if telemetry != nil {
		telemetry.Stop()
	}
}
