package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/studiowebux/jobbench/internal/cli"
	"github.com/studiowebux/jobbench/internal/config"
	"github.com/studiowebux/jobbench/internal/logging"
	"github.com/studiowebux/jobbench/internal/mock"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
)

var (
	runFlags    *cli.RunFlags
	defaultsErr error

	flagTargetAddr   string
	flagTargetConfig string
	flagTargetDebug  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jobbench",
	Short: "HTTP load generator driven by a templated job file",
	Long: `jobbench fires a templated HTTP request at an endpoint N times under bounded
concurrency and reports latency distribution and success counts.

Placeholders of the form <name:SeqNum> and <name:UUID> in the job's url,
header values and body are expanded per request.

Examples:
  jobbench run -n 1000 -c 50                # job.toml, 50 concurrent workers
  jobbench run -j orders.yaml -n 200 -g 10  # 10ms histogram buckets
  jobbench run -n 5000 -c 100 -r 500        # cap at 500 requests/second
  jobbench run -n 100 -i 9000               # start sequences at 9000`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a load test",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if defaultsErr != nil {
			return defaultsErr
		}

		logger := logging.New(runFlags.Debug)
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := runFlags.Options()
		opts.Logger = logger
		opts.Stdout = cmd.OutOrStdout()
		opts.Stderr = cmd.ErrOrStderr()

		_, err := cli.Run(ctx, opts)
		return err
	},
}

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Serve canned JSON responses to benchmark against locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(flagTargetDebug)
		defer logger.Sync()

		cfg := mock.DefaultConfig()
		if flagTargetConfig != "" {
			loaded, err := mock.LoadConfig(flagTargetConfig)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr = flagTargetAddr
		}

		server, err := mock.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		addr, err := server.Start(cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to start target: %w", err)
		}
		logger.Info("target listening", zap.String("addr", addr), zap.Int("routes", len(cfg.Routes)))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logger.Info("target stopping", zap.Uint64("hits", server.Hits()), zap.Uint64("misses", server.Misses()))
		return server.Stop(context.Background())
	},
}

func init() {
	defaults, err := config.Load()
	if err != nil {
		defaultsErr = err
	}

	runFlags = cli.BindRunFlags(runCmd.Flags(), defaults)

	targetCmd.Flags().StringVar(&flagTargetAddr, "addr", mock.DefaultAddr, "Listen address")
	targetCmd.Flags().StringVar(&flagTargetConfig, "config", "", "Route file (.toml, .yaml, .json)")
	targetCmd.Flags().BoolVarP(&flagTargetDebug, "debug", "d", false, "Log unmatched requests")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(targetCmd)
}
