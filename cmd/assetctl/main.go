package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/assettrack/internal/config"
	"github.com/fastygo/assettrack/internal/services/lifecycle"
	"github.com/fastygo/assettrack/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "assetctl",
	Short:         "Session and organization tooling for the asset-tracking backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logger.Level = level
		}

		zapLogger, err := logger.New(logger.Config{
			Level:    cfg.Logger.Level,
			Encoding: cfg.Logger.Encoding,
			Output:   cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("logger error: %w", err)
		}

		holder, ok := cmd.Context().Value(appKey{}).(*appHolder)
		if !ok {
			return fmt.Errorf("command context carries no app holder")
		}
		a, err := newApp(cmd.Context(), cfg, zapLogger)
		if err != nil {
			return err
		}
		holder.app = a
		return nil
	},
}

type appKey struct{}

// appHolder is placed in the root context before execution so the pre-run
// hook can publish the wired app to subcommands and main can close it.
type appHolder struct {
	app *app
}

func withAppHolder(ctx context.Context) (context.Context, *appHolder) {
	holder := &appHolder{}
	return context.WithValue(ctx, appKey{}, holder), holder
}

// appFrom returns the app wired for cmd by the root pre-run hook.
func appFrom(cmd *cobra.Command) *app {
	holder, ok := cmd.Context().Value(appKey{}).(*appHolder)
	if !ok {
		return nil
	}
	return holder.app
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := lifecycle.New(0, zap.NewNop()).Listen(cancel)
	defer stop()

	ctx, holder := withAppHolder(ctx)
	err := rootCmd.ExecuteContext(ctx)
	if a := holder.app; a != nil {
		if closeErr := a.Close(); closeErr != nil {
			a.logger.Error("shutdown error", zap.Error(closeErr))
		}
		_ = a.logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
