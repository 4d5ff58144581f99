package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agntcy/identity-service/internal/config"
	"github.com/agntcy/identity-service/internal/logging"
	"github.com/agntcy/identity-service/pkg/agentcard"
	"github.com/agntcy/identity-service/pkg/authority"
	"github.com/agntcy/identity-service/pkg/badge"
	"github.com/agntcy/identity-service/pkg/gate"
	"github.com/agntcy/identity-service/pkg/gateway"
)

var gatewayConfigPath string

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run the identity gateway",
}

var gatewayStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gated reverse proxy",
	Long: `Start the gated reverse proxy.

Every inbound request must carry a bearer access token; the gateway asks
the badge authority for a verdict and proxies allowed requests to the
upstream service. Configuration comes from config.yaml and IDENTITY_*
environment variables.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadFrom(gatewayConfigPath)
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.Logger.Level, cfg.Logger.Format)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if cfg.Gateway.TargetURL == "" {
			return fmt.Errorf("gateway.target_url is required")
		}

		var opts []authority.Option
		if cfg.Authority.APIKey != "" {
			opts = append(opts, authority.WithAPIKey(cfg.Authority.APIKey))
		}
		opts = append(opts,
			authority.WithCallTimeout(cfg.Authority.CallTimeout),
			authority.WithLogger(logger),
		)
		client, err := authority.NewClient(cfg.Authority.URL, opts...)
		if err != nil {
			return err
		}

		verifier := badge.NewTokenSource(client, badge.WithTokenLogger(logger))

		gateCfg := gate.Config{
			PublicPaths: append([]string{}, cfg.Gateway.PublicPaths...),
			ToolName:    cfg.Gateway.ToolName,
			Logger:      logger,
		}

		var g *gate.Gate
		if cfg.Gateway.CardPath != "" {
			card, err := loadCard(cfg.Gateway.CardPath)
			if err != nil {
				return err
			}
			g, err = gate.NewFromCard(verifier, card, gateCfg)
			if err != nil {
				return err
			}
		} else {
			// No card declared: the gateway itself mandates bearer JWT.
			gateCfg.SecuritySchemes = map[string]agentcard.SecurityScheme{
				"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			}
			g, err = gate.New(verifier, gateCfg)
			if err != nil {
				return err
			}
		}

		srv, err := gateway.NewServer(g, gateway.ServerConfig{
			ListenAddr:  cfg.Gateway.ListenAddr,
			TargetURL:   cfg.Gateway.TargetURL,
			ReadTimeout: cfg.Gateway.ReadTimeout,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			logger.Error("gateway exited", zap.Error(err))
			return err
		}
		return nil
	},
}

func loadCard(path string) (*agentcard.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading agent card %s: %w", path, err)
	}
	card, err := agentcard.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing agent card %s: %w", path, err)
	}
	return card, nil
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
	gatewayCmd.AddCommand(gatewayStartCmd)

	gatewayStartCmd.Flags().StringVar(&gatewayConfigPath, "config", "", "Path to config.yaml (defaults to ./config.yaml or ./configs/config.yaml)")
}
