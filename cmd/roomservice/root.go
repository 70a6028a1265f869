package main

import (
	"context"
	"fmt"

	"roomservice/internal/config"
	"roomservice/internal/logging"
	"roomservice/internal/monitoring"
	"roomservice/internal/roomservice"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand needs once the root command has run
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "roomservice",
		Short:         "Hotel room service order assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "configs/config.yaml", "Path to configuration file")

	root.AddCommand(
		newServeCmd(a),
		newChatCmd(a),
		newClassifyCmd(a),
		newEvalCmd(a),
	)
	return root
}

// openService builds the service with a fresh metrics registry
func (a *app) openService(ctx context.Context) (*roomservice.Service, error) {
	service, err := roomservice.Open(ctx, a.cfg, a.logger, monitoring.NewMetrics())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize room service: %w", err)
	}
	return service, nil
}
