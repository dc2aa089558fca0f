package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keyword-volume-go/internal/handler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search, trend, view and export endpoints over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, true)
		if err != nil {
			return err
		}

		app := handler.NewApp(handler.NewController(handler.ControllerConfig{
			Keywords: rt.clients.KeywordsAPI(),
			Trend:    rt.clients.TrendAPI(),
			Metrics:  rt.metrics,
			Limiters: rt.clients.Limiters,
			Logger:   rt.log,
		}))

		ctx, cancel := signalContext()
		defer cancel()

		addr := fmt.Sprintf("%s:%d", rt.cfg.Server.Host, rt.cfg.Server.Port)
		rt.log.WithField("addr", addr).Info("HTTP server listening")
		if err := handler.Serve(ctx, app, addr, rt.cfg.Server.ShutdownTimeout); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		rt.log.Info("HTTP server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8080, "listen port")
	_ = v.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	rootCmd.AddCommand(serveCmd)
}
