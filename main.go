package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loggerName prefixes every diagnostic line
const loggerName = "D365 Form Tester"

// app carries what every command needs once flags are parsed
type app struct {
	cfg    config
	logger *zap.Logger
	store  *fileStore

	// connect opens the browser, replaced in tests
	connect func(ctx context.Context) (browserConn, error)
}

// browserConn is a connected browser that can also report navigations
type browserConn interface {
	tabBrowser
	navigationSource
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, &app{}, os.Args[1:])
	stop()

	if err != nil {
		os.Exit(1)
	}
}

// execute runs the command named by args and flushes the logger, also when
// the command failed
func execute(ctx context.Context, a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if a.logger != nil {
		_ = a.logger.Sync()
	}

	return err
}

// newRootCmd builds the command tree around a
func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:          appName,
		Short:        "Keep the Dynamics 365 Marketing no-cache marker in sync with your preference",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath, debug || os.Getenv("D365NC_DEBUG") != "")
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", filepath.Join(configDir(), "config.yaml"), "Path to YAML config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newInstallCmd(a),
		newStatusCmd(a),
		newNoCacheCmd(a),
		newEnableCmd(a, true),
		newEnableCmd(a, false),
		newHighlightCmd(a),
		newWatchCmd(a),
		newRewriteCmd(a),
	)

	return root
}

// init loads config and builds the logger and preference store
func (a *app) init(configPath string, debug bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Debug = cfg.Debug || debug

	if err := cfg.validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := newLogger(cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
	}

	if a.store == nil {
		store, err := newFileStore(cfg.PrefsPath, a.defaults())
		if err != nil {
			return err
		}
		a.store = store
	}

	if a.connect == nil {
		a.connect = func(ctx context.Context) (browserConn, error) {
			tabs, err := newChromeTabs(ctx, a.cfg.DebuggerURL, a.cfg.TabTimeout, a.logger.Named("chrome"))
			if err != nil {
				return nil, err
			}
			return tabs, nil
		}
	}

	return nil
}

func (a *app) defaults() prefs {
	return defaultPrefs(a.cfg.NoCacheDefault)
}

// newLogger builds a production zap logger writing to stderr
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.Named(loggerName), nil
}
