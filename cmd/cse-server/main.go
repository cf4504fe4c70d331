package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Anirudh9794/container-service-extension/internal/api"
	"github.com/Anirudh9794/container-service-extension/internal/config"
	"github.com/Anirudh9794/container-service-extension/internal/logger"
	"github.com/Anirudh9794/container-service-extension/internal/migrations"
	"github.com/Anirudh9794/container-service-extension/internal/orchestrator"
	"github.com/Anirudh9794/container-service-extension/internal/provider"
	"github.com/Anirudh9794/container-service-extension/internal/storage"
	"github.com/Anirudh9794/container-service-extension/internal/store"
	"github.com/Anirudh9794/container-service-extension/internal/websocket"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cse-server",
	Short: "Container Service Extension - cluster lifecycle orchestration server",
	Long: `cse-server accepts cluster create/delete requests, drives asynchronous
provisioning workflows against the underlying infrastructure provider, and
exposes cluster, node, and task state over a REST API.`,
	RunE: runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "log format (json, text)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cse-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration commands",
	Long:  `Database migration commands for managing database schema changes`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run pending migrations",
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback the last migration",
	RunE:  runMigrateDown,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runMigrateStatus,
}

var migrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset database (DANGEROUS)",
	Long:  `Drop all tables and reapply all migrations. WARNING: This destroys all data!`,
	RunE:  runMigrateReset,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateResetCmd)

	migrateResetCmd.Flags().Bool("confirm", false, "Confirm destructive reset operation")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := storage.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	prov, err := provider.New(cfg.Provider)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure provider: %w", err)
	}

	clusters := store.NewClusterRegistry(db, log)
	tasks := store.NewTaskStore(db, log)
	events := websocket.NewHub(log)
	defer events.Close()

	executor := orchestrator.NewExecutor(clusters, tasks, prov, events, orchestrator.ExecutorConfig{
		CallTimeout:       cfg.CallTimeout(),
		ReadRetryMax:      cfg.Orchestrator.ReadRetryMax,
		RollbackOnFailure: cfg.Orchestrator.RollbackOnFailure,
	}, log)

	pool := orchestrator.NewWorkerPool("provisioning", cfg.Orchestrator.Workers, cfg.Orchestrator.QueueDepth, log)
	pool.Start()

	coordinator := orchestrator.NewCoordinator(clusters, tasks, executor, pool, log)

	server := api.New(&cfg.API, log, db, coordinator, events)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to stop API server cleanly")
	}
	if err := pool.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Worker pool did not drain cleanly")
	}

	return nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	db, log, err := openForMigration()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db.DB(), log)
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Println("Migrations applied successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	db, log, err := openForMigration()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db.DB(), log)
	if err := migrator.Down(); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	fmt.Println("Last migration rolled back")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	db, log, err := openForMigration()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db.DB(), log)
	statuses, err := migrator.Status()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied " + s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Printf("%-16s %-10s %s\n", s.ID, state, s.Description)
	}
	return nil
}

func runMigrateReset(cmd *cobra.Command, args []string) error {
	confirm, _ := cmd.Flags().GetBool("confirm")
	if !confirm {
		return fmt.Errorf("reset is destructive; re-run with --confirm to proceed")
	}

	db, log, err := openForMigration()
	if err != nil {
		return err
	}
	defer db.Close()

	migrator := migrations.NewMigrator(db.DB(), log)
	if err := migrator.Reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Println("Database reset complete")
	return nil
}

func setup() (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

func openForMigration() (*storage.Database, logger.Interface, error) {
	cfg, log, err := setup()
	if err != nil {
		return nil, nil, err
	}

	db, err := storage.NewWithoutMigration(&cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, log, nil
}
