package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/mediaintel-cli/internal/insight"
	"github.com/KaramelBytes/mediaintel-cli/internal/server"
	"github.com/KaramelBytes/mediaintel-cli/internal/session"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload, filter, chart and insight API over HTTP",
	Example: `  mediaintel serve
  mediaintel serve --addr :9090 --origin http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if !debug {
			logLevel.SetLevel(zap.InfoLevel)
			gin.SetMode(gin.ReleaseMode)
		}
		gen, err := c.Generator()
		if err != nil {
			return err
		}
		scfg := server.Config{
			Addr:           c.ServerAddr,
			AllowedOrigins: c.AllowedOrigins,
			MaxUploadMB:    c.MaxUploadMB,
		}
		if serveAddr != "" {
			scfg.Addr = serveAddr
		}
		if len(serveOrigins) > 0 {
			scfg.AllowedOrigins = serveOrigins
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("starting server",
			zap.String("provider", gen.Provider),
			zap.String("model", gen.Model))
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving on %s (provider=%s, model=%s)\n", scfg.Addr, gen.Provider, gen.Model)
		srv := server.New(scfg, session.New(logger), insight.NewService(gen, logger), logger)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server_addr)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origins (overrides allowed_origins)")
}
