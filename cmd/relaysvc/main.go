package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/spf13/cobra"

	"github.com/mkrupp/blobrelay/internal/infra/config"
	"github.com/mkrupp/blobrelay/internal/infra/logging"
	"github.com/mkrupp/blobrelay/internal/infra/transport/http"
	"github.com/mkrupp/blobrelay/internal/repo/blob"
	"github.com/mkrupp/blobrelay/internal/svc/relaysvc"
)

const (
	appName = "blobrelay"
	svcName = "relaysvc"
)

type Config struct {
	config.EnvConfig

	Log    logging.LoggerConfig            `envPrefix:"LOG_"`
	HTTP   relaysvc.HTTPTransportConfig    `envPrefix:"HTTP_"`
	Walrus blob.WalrusBlobRepositoryConfig `envPrefix:"WALRUS_"`

	// DebugAgent starts a gops agent for inspecting the running process.
	DebugAgent bool `env:"DEBUG_AGENT" default:"false"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintln(os.Stderr, "parse config:", err)
		os.Exit(2)
	}

	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command line. Flag defaults come from the
// environment, so a flag only overrides what the environment set.
func newRootCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:          svcName,
		Short:        "Relay blobs between HTTP clients and a Walrus storage network",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loggerName := strings.ToLower(strings.Join([]string{appName, svcName}, "."))
			logging.Configure(cmd.Context(), cfg.Log, loggerName)

			return run(cmd.Context(), *cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.HTTP.ServerAddr, "listen-address", cfg.HTTP.ServerAddr, "address to listen on")
	flags.StringVar(&cfg.Walrus.PublisherURL, "publisher-url", cfg.Walrus.PublisherURL, "base URL of the Walrus publisher")
	flags.StringVar(&cfg.Walrus.AggregatorURL, "aggregator-url", cfg.Walrus.AggregatorURL, "base URL of the Walrus aggregator")
	flags.DurationVar(&cfg.Walrus.CallTimeout, "call-timeout", cfg.Walrus.CallTimeout, "timeout of a single call to the storage network (0 disables)")
	flags.UintVar(&cfg.Walrus.Epochs, "epochs", cfg.Walrus.Epochs, "number of epochs to store uploaded blobs for")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "minimum log level (debug, info, warn, error)")
	flags.BoolVar(&cfg.DebugAgent, "debug-agent", cfg.DebugAgent, "start a gops diagnostics agent")

	return cmd
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.relaysvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DebugAgent {
		if err := agent.Listen(agent.Options{ShutdownCleanup: false}); err != nil { //nolint:exhaustruct
			log.WarnContext(ctx, "could not start gops agent", "err", err)
		} else {
			defer agent.Close()
		}
	}

	repo, err := blob.NewWalrusBlobRepository(cfg.Walrus, nil)
	if err != nil {
		return fmt.Errorf("new walrus repository: %w", err)
	}

	relaySvc := relaysvc.NewBlobRelayService(repo)
	httpTransport := relaysvc.NewHTTPTransport(relaySvc, cfg.HTTP)

	log.InfoContext(ctx, "starting", logging.Group("config",
		"namespace", cfg.Namespace(),
		"addr", cfg.HTTP.ServerAddr,
		"publisher", cfg.Walrus.PublisherURL,
		"aggregator", cfg.Walrus.AggregatorURL,
	))

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
