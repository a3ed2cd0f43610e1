// Brewlink - BLE espresso machine controller
//
// This is the main entry point for the Brewlink daemon. Brewlink talks
// to an S1 espresso machine over Bluetooth Low Energy and exposes:
//   - A REST API for power, schedule and clock control
//   - MQTT telemetry and power-state events
//   - InfluxDB boiler temperature history
//
// The machine has no power-state characteristic, so power is inferred
// from the boiler temperature trend, and power commands work by
// temporarily rewriting the machine's weekly schedule.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/brewlink/internal/api"
	"github.com/nerrad567/brewlink/internal/backup"
	"github.com/nerrad567/brewlink/internal/bridges/s1"
	"github.com/nerrad567/brewlink/internal/infrastructure/config"
	"github.com/nerrad567/brewlink/internal/infrastructure/database"
	"github.com/nerrad567/brewlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/brewlink/internal/infrastructure/logging"
	"github.com/nerrad567/brewlink/internal/infrastructure/mqtt"
	"github.com/nerrad567/brewlink/internal/telemetry"
	"github.com/nerrad567/brewlink/internal/thermal"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Brewlink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
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

	// Backup store owns its schema
	store := backup.NewStore(db.DB)
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("creating backup schema: %w", err)
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the link: real adapter or in-process simulator
	link := buildLink(cfg, log)

	// Connection worker owns the link
	worker, err := s1.NewConnectionWorker(s1.WorkerOptions{
		Link:      link,
		Logger:    log,
		OpTimeout: cfg.GetOpTimeout(),
		QueueSize: cfg.Link.QueueSize,
	})
	if err != nil {
		return fmt.Errorf("creating connection worker: %w", err)
	}
	defer func() {
		log.Info("stopping connection worker")
		worker.Stop()
	}()

	// The simulator accepts any address; config validation only requires
	// one for a real adapter.
	address := cfg.Machine.Address
	if address == "" {
		address = "F0:0D:CA:FE:00:01"
	}

	// Machine controller
	machine, err := s1.NewMachine(s1.MachineOptions{
		Bus:         worker,
		Address:     address,
		Logger:      log,
		SettleDelay: cfg.GetSettleDelay(),
		Backups:     store,
	})
	if err != nil {
		return fmt.Errorf("creating machine controller: %w", err)
	}

	if err := machine.EnsureConnected(ctx); err != nil {
		// The API can retry via POST /connect; don't abort startup.
		log.Warn("initial connection failed", "error", err)
	} else {
		log.Info("machine connected", "address", address)
	}

	// Telemetry monitor (optional)
	var monitor *telemetry.Monitor
	if cfg.Telemetry.Enabled {
		estimator := thermal.NewEstimator(thermal.EstimatorOptions{
			TargetTemp: cfg.Machine.TargetTemp,
		})

		opts := telemetry.MonitorOptions{
			Poller:     worker,
			Estimator:  estimator,
			Logger:     log,
			BoilerName: "brew",
			Interval:   cfg.GetPollInterval(),
		}
		if mqttClient != nil {
			opts.Publisher = mqttClient
		}
		if influxClient != nil {
			opts.Samples = influxClient
		}

		monitor, err = telemetry.NewMonitor(opts)
		if err != nil {
			return fmt.Errorf("creating telemetry monitor: %w", err)
		}
		if err := monitor.Start(ctx); err != nil {
			log.Warn("telemetry monitor failed to start", "error", err)
			monitor = nil
		} else {
			defer func() {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer stopCancel()
				if stopErr := monitor.Stop(stopCtx); stopErr != nil {
					log.Error("error stopping monitor", "error", stopErr)
				}
			}()
		}
	} else {
		log.Info("telemetry disabled")
	}

	// REST API
	apiDeps := api.Deps{
		Config:      cfg.API,
		Logger:      log,
		Machine:     machine,
		Worker:      worker,
		Monitor:     monitor,
		Store:       store,
		MachineName: cfg.Machine.Name,
		Version:     version,
	}
	if influxClient != nil {
		apiDeps.History = influxClient
	}

	server, err := api.New(apiDeps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, monitor, worker, InfluxDB, MQTT, database.

	log.Info("Brewlink stopped")
	return nil
}

// buildLink selects the BLE transport from config.
func buildLink(cfg *config.Config, log *logging.Logger) s1.Link {
	if cfg.Link.Mode == "simulator" {
		log.Info("using simulated link")
		return s1.NewFakeLink()
	}
	log.Info("using BLE link", "address", cfg.Machine.Address)
	return s1.NewBLELink()
}

// getConfigPath returns the configuration file path.
// Uses BREWLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BREWLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
