package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hmwatts/tracebench/internal/observability"
	"github.com/hmwatts/tracebench/internal/server"
	"github.com/hmwatts/tracebench/internal/store"
)

// newServeCmd creates the `serve` command: the ingestion endpoint the
// recording extension posts finished demonstrations to.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the trace ingestion server",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("server.address", cmd.Flags().Lookup("address")); err != nil {
				return err
			}
			if err := viper.BindPFlag("server.database_path", cmd.Flags().Lookup("database")); err != nil {
				return err
			}
			return viper.BindPFlag("server.mirror_dir", cmd.Flags().Lookup("mirror-dir"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			if err := viper.UnmarshalKey("server", &appCfg.Server); err != nil {
				return err
			}

			st, err := store.Open(appCfg.Server.DatabasePath, logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logger.Warn("failed to close store", zap.Error(cerr))
				}
			}()

			srv := server.New(appCfg.Server, st, logger)
			return srv.Run(cmd.Context())
		},
	}

	serveCmd.Flags().String("address", "", "listen address")
	serveCmd.Flags().String("database", "", "SQLite database path")
	serveCmd.Flags().String("mirror-dir", "", "directory for JSON payload mirrors")
	return serveCmd
}
