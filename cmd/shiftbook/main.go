package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/config"
)

var version = "dev"

// appState is shared by every command of one invocation.
type appState struct {
	v       *viper.Viper
	cfg     *config.Config
	cfgFile string
	envFile string
	dbPath  string
}

func newRootCmd() *cobra.Command {
	st := &appState{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "shiftbook",
		Short: "Shift ledger for a small restaurant",
		Long: `shiftbook pulls POS receipts into a local ledger grouped by business shift,
imports supplier expenses from CSV and OFX files, guesses vendor and category
for each expense, and reconciles the cash drawer at the end of a shift.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: st.initConfig,
	}

	rootCmd.PersistentFlags().StringVar(&st.cfgFile, "config", "", "config file (default: $HOME/.config/shiftbook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&st.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&st.dbPath, "db", "", "database path (overrides database.path)")

	_ = st.v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = st.v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(syncCmd(st))
	rootCmd.AddCommand(importCmd(st))
	rootCmd.AddCommand(expenseCmd(st))
	rootCmd.AddCommand(reconcileCmd(st))
	rootCmd.AddCommand(vendorsCmd(st))
	rootCmd.AddCommand(categoriesCmd(st))
	rootCmd.AddCommand(shiftCmd(st))
	rootCmd.AddCommand(migrateCmd(st))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.UserMessage)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func (st *appState) initConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadEnvFiles(st.envFile); err != nil {
		return err
	}

	config.SetDefaults(st.v)
	config.BindEnv(st.v)

	if st.cfgFile != "" {
		st.v.SetConfigFile(st.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		st.v.AddConfigPath(filepath.Join(home, ".config", "shiftbook"))
		st.v.AddConfigPath(".")
		st.v.SetConfigName("config")
		st.v.SetConfigType("yaml")
	}

	if err := st.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if st.dbPath != "" {
		st.v.Set("database.path", st.dbPath)
	}

	cfg, err := config.Load(st.v)
	if err != nil {
		return err
	}
	st.cfg = cfg

	level, err := common.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.Debug("configuration loaded", "config_file", st.v.ConfigFileUsed(), "database", cfg.Database.Path)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shiftbook %s\n", version)
		},
	}
}
