package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/orderbot/core/buildinfo"
	corecmd "github.com/m3rciful/orderbot/core/cmd"
	coreconfig "github.com/m3rciful/orderbot/core/config"
	coredatabase "github.com/m3rciful/orderbot/core/database"
	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/internal/orderbot"
)

const defaultConfigPath = "config.yaml"

var (
	configPath     string
	migrateDownArg int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "orderbot",
	Short:        "Telegram order desk bot",
	SilenceUsage: true,
	RunE:         runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot until interrupted",
	RunE:  runBot,
}

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Replay the configured commands as the admin and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return corecmd.RunCron(runnerOptions())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres migrations, or roll back with --down",
	RunE:  runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "orderbot %s (%s) %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config (default $CONFIG_PATH or config.yaml)")
	migrateCmd.Flags().IntVar(&migrateDownArg, "down", 0, "roll back this many migrations instead of applying")
	rootCmd.AddCommand(runCmd, cronCmd, migrateCmd, versionCmd)
}

func runnerOptions() corecmd.Options {
	return corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return orderbot.LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (any, error) {
			return orderbot.Bootstrap(ctx, cfg.(*orderbot.Config))
		},
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	return corecmd.Run(runnerOptions())
}

func runMigrate(cmd *cobra.Command, args []string) error {
	path, err := corecmd.ResolveConfigPath(runnerOptions())
	if err != nil {
		return err
	}
	cfg, err := orderbot.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := coreconfig.Validate(cfg.Database); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if migrateDownArg > 0 {
		return coredatabase.RollbackMigrations(ctx, cfg.Database, migrateDownArg)
	}
	return coredatabase.RunMigrations(ctx, cfg.Database)
}
