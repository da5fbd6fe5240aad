package fetch

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pnodedash/config"
	"pnodedash/services"
)

func New() *cobra.Command {
	var rpcURL string
	var timeoutMS int

	cmd := &cobra.Command{
		Use:          "fetch",
		Short:        "Fetch pNodes once and print them as JSON",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			config.SetupLogger(cfg.Log)

			if cmd.Flags().Changed("url") {
				cfg.PRPC.URL = rpcURL
			}
			if cmd.Flags().Changed("timeout-ms") {
				cfg.PRPC.TimeoutMS = timeoutMS
			}

			prpc := services.NewPRPCClient(cfg)
			dashboard := services.NewDashboardService(cfg, prpc, services.NewDataAggregator(nil))

			nodes, err := dashboard.FetchNodes(cmd.Context())
			if err != nil {
				return err
			}
			log.Debug().Int("count", len(nodes)).Msg("Fetched nodes")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(nodes); err != nil {
				return errors.Wrap(err, "failed to write nodes")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rpcURL, "url", "", "pNode RPC endpoint (overrides PNODE_RPC_URL)")
	cmd.Flags().IntVar(&timeoutMS, "timeout-ms", config.DefaultPRPCTimeoutMS, "Upstream timeout in milliseconds")

	return cmd
}
