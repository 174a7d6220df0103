package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/speedrun-hq/liberator/pkg/chainclient"
	"github.com/speedrun-hq/liberator/pkg/config"
	"github.com/speedrun-hq/liberator/pkg/health"
	"github.com/speedrun-hq/liberator/pkg/logger"
	"github.com/speedrun-hq/liberator/pkg/migrator"
	"github.com/speedrun-hq/liberator/pkg/report"
	"github.com/speedrun-hq/liberator/pkg/wallet"
)

const (
	rootUse   = "liberator"
	rootShort = "Move every SPL token and the native SOL balance of a wallet to a destination"

	migrateUse     = "migrate"
	migrateShort   = "Run one migration"
	migrateLong    = "migrate discovers every non-zero token balance of the source wallet, transfers each one to the configured destination, then sweeps the remaining SOL."
	reportFlag     = "report"
	formatFlag     = "format"
	yesFlag        = "yes"
	confirmMessage = "Transfer every asset of %s to %s on %s?"

	planUse   = "plan"
	planShort = "List the assets a migration would move without sending anything"

	serveUse   = "serve"
	serveShort = "Serve health, status, metrics and a migration trigger over HTTP"
)

var errDeclined = errors.New("migration declined")

// app holds the wired components shared by the commands
type app struct {
	cfg      *config.Config
	logger   logger.Logger
	client   *chainclient.Client
	signer   *wallet.Signer
	migrator *migrator.Migrator
}

func newApp(ctx context.Context) (*app, error) {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewStdLogger(cfg.LoggerConfig.Coloring, cfg.LoggerConfig.Level)

	client, err := chainclient.New(ctx, cfg.RPCURL, cfg.RPC, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client: %w", err)
	}

	signer, err := wallet.Load(cfg.Wallet, client, log)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to load source wallet: %w", err)
	}

	m := migrator.New(client, signer, migrator.Config{
		Destination:   cfg.DestinationWallet,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}, log)

	return &app{cfg: cfg, logger: log, client: client, signer: signer, migrator: m}, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-signalCh:
			log.Println("Received termination signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signalCh)
	}()

	return ctx, cancel
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          rootUse,
		Short:        rootShort,
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCommand(), newPlanCommand(), newServeCommand())
	return root
}

func newMigrateCommand() *cobra.Command {
	var (
		reportPath string
		formatName string
		assumeYes  bool
	)

	cmd := &cobra.Command{
		Use:   migrateUse,
		Short: migrateShort,
		Long:  migrateLong,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.client.Close()

			if !assumeYes {
				if err := confirm(a); err != nil {
					return err
				}
			}

			snapshot, runErr := a.migrator.Start(ctx)
			r := report.Build(snapshot, a.cfg.Cluster, a.signer.PublicKey().String(), a.cfg.DestinationWallet)

			if len(r.Results) > 0 {
				if err := report.RenderResults(cmd.OutOrStdout(), r); err != nil {
					return err
				}
			}
			if reportPath != "" {
				if err := report.WriteFile(reportPath, r, format); err != nil {
					return err
				}
				a.logger.Info("Report written to %s", reportPath)
			}

			switch {
			case errors.Is(runErr, migrator.ErrNothingToMigrate):
				a.logger.Notice("%s", migrator.UserMessage(runErr))
				return nil
			case runErr != nil:
				return errors.New(migrator.UserMessage(runErr))
			case r.Failures > 0:
				return fmt.Errorf("%d of %d assets were not migrated", r.Failures, len(r.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, reportFlag, "", "write the run report to this file")
	cmd.Flags().StringVar(&formatName, formatFlag, string(report.FormatJSON), "report format: json or yaml")
	cmd.Flags().BoolVarP(&assumeYes, yesFlag, "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks the operator before any funds move
func confirm(a *app) error {
	var response bool
	prompt := &survey.Confirm{
		Message: fmt.Sprintf(confirmMessage, a.signer.PublicKey(), a.cfg.DestinationWallet, a.cfg.Cluster),
	}
	if err := survey.AskOne(prompt, &response); err != nil {
		return err
	}
	if !response {
		return errDeclined
	}
	return nil
}

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   planUse,
		Short: planShort,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.client.Close()

			worklist, err := a.migrator.Plan(ctx)
			if errors.Is(err, migrator.ErrNothingToMigrate) {
				a.logger.Notice("%s", migrator.UserMessage(err))
				return nil
			}
			if err != nil {
				return errors.New(migrator.UserMessage(err))
			}

			a.logger.Info("%d assets would be migrated to %s", len(worklist), a.cfg.DestinationWallet)
			return report.RenderWorklist(cmd.OutOrStdout(), worklist)
		},
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   serveUse,
		Short: serveShort,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.client.Close()

			server := health.NewServer(
				a.cfg.MetricsPort,
				a.cfg.MetricsAPIKey,
				a.migrator,
				a.client.Breaker(),
				a.cfg.Cluster,
				a.cfg.DestinationWallet,
				a.logger,
			)
			return server.Start(ctx)
		},
	}
}
