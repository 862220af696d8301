package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/api"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/auth"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/credentials"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/executor"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/homeassistant"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/config"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/database"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/influxdb"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/mqtt"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/telemetry"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/pipeline"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/migrations"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and command pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), getConfigPath(*configPath))
		},
	}
}

// run is the actual application logic, separated from main for testability.
// It blocks until ctx is cancelled, then tears everything down in reverse.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Jarvis Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, version, log)
	if err != nil {
		return fmt.Errorf("initialising telemetry: %w", err)
	}
	defer func() {
		if shutdownErr := shutdownTracing(context.Background()); shutdownErr != nil {
			log.Error("error shutting down tracing", "error", shutdownErr)
		}
	}()

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
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	checks := map[string]api.HealthChecker{"database": db}
	findings := audit.NewSQLiteRepository(db.DB)

	auditLog := audit.NewLogger(audit.Options{
		Threshold: audit.Severity(strings.ToUpper(cfg.Audit.EscalationThreshold)),
		QueueSize: cfg.Audit.QueueSize,
		Logger:    log,
		Findings:  []audit.FindingSink{findings},
	})

	mqttClient, err := connectMQTT(cfg.MQTT, log)
	if err != nil {
		return err
	}
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		publisher := mqtt.NewAuditPublisher(mqttClient, log)
		auditLog.AddStream(publisher)
		auditLog.AddFindingSink(publisher)
		checks["mqtt"] = mqttClient
	}

	influxClient, err := connectInfluxDB(cfg, log)
	if err != nil {
		return err
	}
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		auditLog.AddMetricsSink(influxClient)
		checks["influxdb"] = influxClient
	}

	store, err := newSecretStore(ctx, cfg.Secrets)
	if err != nil {
		return err
	}
	provider := credentials.NewProvider(store, cfg.Secrets.SecretID,
		credentials.WithRecorder(auditLog),
		credentials.WithLogger(log),
	)

	ex := executor.New(homeassistant.New(cfg.DeviceControlTimeout()), executor.Options{
		MediaPlayer:               cfg.DeviceControl.MediaPlayer,
		WeatherEntity:             cfg.DeviceControl.WeatherEntity,
		DefaultIntentTemperature:  cfg.DeviceControl.DefaultTemperature,
		DefaultCommandTemperature: cfg.DeviceControl.DefaultCommandTemperature,
		DefaultBrightness:         cfg.DeviceControl.DefaultBrightness,
		Recorder:                  auditLog,
		Logger:                    log,
	})
	validator := command.NewValidator(cfg.Pipeline.MaxCommandsPerSession, auditLog)
	p := pipeline.New(validator, ex, provider, pipeline.Options{
		MaxInputLength: cfg.Pipeline.MaxInputLength,
		MaxBatchSize:   cfg.Pipeline.MaxBatchSize,
		Recorder:       auditLog,
		Logger:         log,
	})

	verifier, err := auth.NewVerifier(cfg.Security.APIKey, cfg.Security.APIKeyHash)
	if err != nil {
		return fmt.Errorf("configuring API key: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Pipeline:    p,
		Verifier:    verifier,
		Recorder:    auditLog,
		Findings:    findings,
		Credentials: provider,
		Stats:       auditLog,
		Checks:      checks,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	auditLog.AddStream(server.Hub())

	// The dispatcher outlives the API server so late events still reach
	// the sinks; it drains once ctx is done and before the sinks close.
	auditCtx, stopAudit := context.WithCancel(context.WithoutCancel(ctx))
	auditLog.Start(auditCtx)
	defer func() {
		stopAudit()
		auditLog.Wait()
		log.Info("audit dispatcher drained")
	}()

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if fs, ok := store.(*credentials.FileStore); ok && cfg.Secrets.File.Watch {
		g.Go(func() error {
			log.Info("watching secrets file", "path", fs.Path())
			return fs.Watch(gctx, provider.Invalidate)
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := g.Wait(); err != nil {
		log.Error("background task failed", "error", err)
	}

	log.Info("Jarvis Core stopped")
	return nil
}

// connectMQTT connects the event bus. A disabled broker returns nil.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	if !cfg.Enabled {
		log.Info("MQTT disabled")
		return nil, nil
	}

	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)

	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	return client, nil
}

// connectInfluxDB connects the metrics sink. A disabled sink returns nil.
func connectInfluxDB(cfg *config.Config, log *logging.Logger) (*influxdb.Client, error) {
	if !cfg.InfluxDB.Enabled {
		log.Info("InfluxDB disabled")
		return nil, nil
	}

	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Audit.MetricNamespace)
	if err != nil {
		return nil, fmt.Errorf("connecting to InfluxDB: %w", err)
	}
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	return client, nil
}

// newSecretStore builds the credential backend named in the config.
func newSecretStore(ctx context.Context, cfg config.SecretsConfig) (credentials.Store, error) {
	switch cfg.Backend {
	case "aws":
		store, err := credentials.NewAWSStore(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("creating AWS secret store: %w", err)
		}
		return store, nil
	case "file":
		return credentials.NewFileStore(cfg.File.Path), nil
	default:
		return nil, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}
