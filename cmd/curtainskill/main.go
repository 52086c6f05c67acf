// Curtain Skill - voice-assistant skill for curtain and blind control.
//
// The skill listens for classified intents on the assistant's MQTT bus,
// resolves the curtains in the requested rooms from the global device
// registry, publishes device commands and answers the requesting client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/curtain-skill/migrations"

	"github.com/nerrad567/curtain-skill/internal/api"
	"github.com/nerrad567/curtain-skill/internal/audit"
	"github.com/nerrad567/curtain-skill/internal/curtain"
	"github.com/nerrad567/curtain-skill/internal/device"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/config"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/database"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/influxdb"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/logging"
	"github.com/nerrad567/curtain-skill/internal/infrastructure/mqtt"
	"github.com/nerrad567/curtain-skill/internal/skill"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 {
		var err error
		handled := true
		switch os.Args[1] {
		case "token":
			err = runToken(os.Args[2:], os.Stdout)
		case "migrate":
			err = runMigrate(ctx, os.Args[2:], os.Stdout)
		default:
			handled = false
		}
		if handled {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting curtain skill",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", db.Path())

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	deviceRepo := device.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	if cfg.Database.SeedFile != "" {
		seeded, seedErr := seedRegistry(ctx, deviceRepo, cfg.Database.SeedFile)
		if seedErr != nil {
			return seedErr
		}
		log.Info("device registry seeded", "path", cfg.Database.SeedFile, "devices", seeded)
		if auditErr := auditRepo.Create(ctx, &audit.Entry{
			Action:  audit.ActionRegistrySeed,
			Source:  audit.SourceStartup,
			Details: map[string]any{"path": cfg.Database.SeedFile, "devices": seeded},
		}); auditErr != nil {
			log.Error("recording seed audit entry failed", "error", auditErr)
		}
	}

	registry := device.NewRegistry(deviceRepo)
	registry.SetLogger(log)
	if refreshErr := registry.Refresh(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}

	topics := mqtt.Topics{Base: cfg.Skill.BaseTopic}
	resolveTopics(&cfg.Skill, topics)
	mqttClient, err := mqtt.Connect(cfg.MQTT, topics.SkillStatus(cfg.Skill.ClientID))
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Dispatch telemetry is optional
	var influxClient *influxdb.Client
	var recorder curtain.Recorder
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	templates, err := curtain.LoadTemplatesDir(cfg.Skill.TemplatesDir)
	if err != nil {
		return fmt.Errorf("loading response templates: %w", err)
	}

	tasks := skill.NewTaskGroup(log)
	curtainSkill, err := curtain.New(curtain.Config{
		Lister:    registry,
		Publisher: mqttClient,
		Templates: templates,
		Tasks:     tasks,
		Recorder:  recorder,
		Logger:    log,
	})
	if err != nil {
		return fmt.Errorf("creating curtain skill: %w", err)
	}

	runtime, err := skill.NewRuntime(skill.Config{
		IntentTopic:       cfg.Skill.IntentTopic,
		DeviceUpdateTopic: cfg.Skill.DeviceUpdateTopic,
		MinConfidence:     cfg.Skill.MinConfidence,
		Intents:           curtain.SupportedIntents(),
	}, mqttClient, registry, curtainSkill, tasks)
	if err != nil {
		return fmt.Errorf("creating skill runtime: %w", err)
	}
	runtime.SetLogger(log)

	if err := runtime.Start(ctx); err != nil {
		return fmt.Errorf("starting skill runtime: %w", err)
	}
	defer func() {
		runtime.Stop()
		stats := runtime.Stats()
		log.Info("skill runtime summary",
			"received", stats.Received,
			"accepted", stats.Accepted,
			"filtered", stats.Filtered,
			"malformed", stats.Malformed,
			"refreshes", stats.Refreshes,
		)
	}()

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Registry: registry,
			Runtime:  runtime,
			MQTT:     mqttClient,
			Database: db,
			Audit:    auditRepo,
			Version:  version,

			IntentTopic: cfg.Skill.IntentTopic,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		if cfg.API.JWTSecret == "" {
			log.Warn("api.jwt_secret not set, admin routes are disabled")
		}
	} else {
		log.Info("ops API disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("curtain skill ready",
		"client_id", cfg.Skill.ClientID,
		"devices", len(registry.Snapshot().Devices),
	)

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order: API server (if enabled), runtime
	// stop, InfluxDB (if enabled), MQTT, database.
	return nil
}

// getConfigPath returns the configuration file path.
// CURTAINSKILL_CONFIG wins over PRIVATE_ASSISTANT_CONFIG_PATH; otherwise
// the default path is used.
func getConfigPath() string {
	for _, env := range []string{"CURTAINSKILL_CONFIG", "PRIVATE_ASSISTANT_CONFIG_PATH"} {
		if path := os.Getenv(env); path != "" {
			return path
		}
	}
	return defaultConfigPath
}

// resolveTopics fills unset skill topics from the assistant topic tree.
func resolveTopics(skillCfg *config.SkillConfig, topics mqtt.Topics) {
	if skillCfg.IntentTopic == "" {
		skillCfg.IntentTopic = topics.IntentResult()
	}
	if skillCfg.DeviceUpdateTopic == "" {
		skillCfg.DeviceUpdateTopic = topics.GlobalDeviceUpdate()
	}
}

// seedRegistry imports the devices listed in a YAML seed file and returns
// how many it upserted.
func seedRegistry(ctx context.Context, repo device.Repository, path string) (int, error) {
	devices, err := device.LoadSeedFile(path)
	if err != nil {
		return 0, fmt.Errorf("loading seed file: %w", err)
	}
	if err := device.Seed(ctx, repo, devices); err != nil {
		return 0, fmt.Errorf("seeding device registry: %w", err)
	}
	return len(devices), nil
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient and apiServer are nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	var errs []error
	if err := db.HealthCheck(ctx); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		errs = append(errs, fmt.Errorf("mqtt: %w", err))
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("influxdb: %w", err))
		}
	}
	if apiServer != nil {
		if err := apiServer.HealthCheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api: %w", err))
		}
	}
	return errors.Join(errs...)
}
