// Package cli is the toolixctl operator command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"toolix-activation/internal/application"
	"toolix-activation/internal/config"
	"toolix-activation/internal/infra/logging"
)

var (
	cfgFile string
	devMode bool

	app    *application.Container
	logger *zerolog.Logger
)

// skipAppAnnotation marks commands that run without opening stores.
const skipAppAnnotation = "toolix/no-app"

var rootCmd = &cobra.Command{
	Use:   "toolixctl",
	Short: "Operate the Toolix activation engine",
	Long: `toolixctl issues and validates activation codes, manages promo tokens
and inspects account entitlements against the configured stores.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile, devMode)
		if err != nil {
			return err
		}
		l := logging.NewWithWriter(cfg.Log, cfg.Runtime.Dev, os.Stderr).With().
			Str("command", cmd.CommandPath()).
			Str("correlation_id", uuid.NewString()).
			Logger()
		logger = &l
		if cmd.Annotations[skipAppAnnotation] != "" {
			return nil
		}
		app, err = application.New(cmd.Context(), cfg, logger)
		return err
	},
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func run(ctx context.Context, args []string, out io.Writer) error {
	start := time.Now()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	err := rootCmd.ExecuteContext(ctx)
	if app != nil {
		app.Close()
		app = nil
	}
	if logger != nil {
		logger.Debug().Dur("duration", time.Since(start)).Msg("command end")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "console logs")
}
