package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ukane-philemon/studentmarks/internal/config"
	"github.com/ukane-philemon/studentmarks/internal/db/flatfile"
	"github.com/ukane-philemon/studentmarks/internal/db/mongodb"
	"github.com/ukane-philemon/studentmarks/internal/engine"
	"github.com/ukane-philemon/studentmarks/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by every command.
type app struct {
	v      *viper.Viper
	dev    bool
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newAppCmd(&app{v: config.New()})
}

// newAppCmd builds the command tree around a. A logger already set on a is
// kept.
func newAppCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "studentmarks",
		Short: "Student record manager",
		Long: `studentmarks keeps coursework and exam marks for a small set of students,
derives their overall percentage and grade, and persists them to a flat text
file or MongoDB.

Configuration is read from $HOME/.config/studentmarks/config.toml (or the file
named by STUDENTMARKS_CONFIG) and STUDENTMARKS_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&a.dev, "dev", false, "Use the development database")
	flags.String("backend", config.BackendFile, "Storage backend (file or mongodb)")
	flags.String("file", "", "Student marks file for the file backend")
	a.v.BindPFlag("log.verbose", flags.Lookup("verbose"))
	a.v.BindPFlag("storage.backend", flags.Lookup("backend"))
	a.v.BindPFlag("storage.file", flags.Lookup("file"))

	rootCmd.AddCommand(
		a.serveCmd(),
		a.listCmd(),
		a.showCmd(),
		a.topCmd(),
		a.hashPasswordCmd(),
	)

	return rootCmd
}

// init loads the configuration and builds the logger.
func (a *app) init() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}

	if a.dev {
		cfg.Storage.MongoDatabase = "dev_" + cfg.Storage.MongoDatabase
	}
	a.cfg = cfg

	if a.logger != nil {
		return nil
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.Log.Verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	a.logger, err = zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// openRepository loads the student records from the configured backend. The
// returned shutdown func releases the backend.
func (a *app) openRepository(ctx context.Context) (*engine.Engine, func(context.Context) error, error) {
	var (
		persister store.Persister
		shutdown  = func(context.Context) error { return nil }
	)

	switch a.cfg.Storage.Backend {
	case config.BackendMongoDB:
		mdb, err := mongodb.New(ctx, a.cfg.Storage.MongoDatabase, a.cfg.Storage.MongoURL, a.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("mongodb.New error: %w", err)
		}
		persister, shutdown = mdb, mdb.Shutdown
	default:
		persister = flatfile.New(a.cfg.Storage.File, a.logger)
	}

	repo := engine.New(store.New(persister, a.logger), a.logger)
	if err := repo.Load(); err != nil {
		shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to load student records: %w", err)
	}

	return repo, shutdown, nil
}
