package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"forum-reactor/config"
	"forum-reactor/internal/browser"
	"forum-reactor/internal/core"
	"forum-reactor/internal/logging"
	"forum-reactor/internal/repository"
	"forum-reactor/internal/stealth"
	"forum-reactor/internal/workflows"
)

var (
	configPath string
	envFile    string

	cfg    *core.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "forum-reactor",
	Short:         "Reacts to forum posts linked in a Discord channel",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, envFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(runCmd, selfTestCmd, reactCmd, inspectCmd, historyCmd)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if logger != nil {
			logger.Info("Shutdown signal received, gracefully shutting down...")
		}
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error("Command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// app holds the components shared by the browser-driving commands
type app struct {
	repo     *repository.SQLiteRepository
	launcher *browser.Launcher
	engine   *workflows.Engine
	runner   *workflows.Runner
}

func newApp() (*app, error) {
	logger.Info("Initializing components...")

	stealthEngine := stealth.NewStealth(&cfg.Stealth)

	// The browser itself starts on the first attempt
	launcher := browser.NewLauncher(&cfg.Browser, stealthEngine, logger)

	repo, err := repository.NewSQLiteRepository(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	logger.Info("Repository initialized", zap.String("db_path", cfg.Database.Path))

	cookies := browser.NewFileCookieStore(cfg.Session.CookiesPath)
	engine := workflows.NewEngine(cfg, launcher, cookies, logger)

	logger.Info("Engine initialized",
		zap.String("cookies", cookies.Path()),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Int("cooldown_ms", cfg.Engine.CooldownMS),
		zap.Bool("skip_already_reacted", cfg.Engine.SkipAlreadyReacted),
	)

	return &app{
		repo:     repo,
		launcher: launcher,
		engine:   engine,
		runner:   workflows.NewRunner(engine, repo, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.launcher.Close(); err != nil {
		logger.Error("Failed to close browser", zap.Error(err))
	}
	if err := a.repo.Close(); err != nil {
		logger.Error("Failed to close repository", zap.Error(err))
	}
}
