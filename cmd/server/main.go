package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"keyword-volume-go/internal/config"
	"keyword-volume-go/internal/handler"
	"keyword-volume-go/internal/service"
	"keyword-volume-go/pkg/logger"
	"keyword-volume-go/pkg/metrics"
)

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", "", "Configuration file path (env overrides: KEYWORD_*)")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func (app *Application) Run() error {
	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return err
	}
	if app.debug {
		cfg.Logger.Level = "debug"
	}

	log := logger.New(cfg.Logger)
	logger.SetLogger(log)

	m := metrics.New()
	clients, err := service.NewClients(cfg, m, log)
	if err != nil {
		return err
	}

	server := handler.NewApp(handler.NewController(handler.ControllerConfig{
		Keywords: clients.KeywordsAPI(),
		Trend:    clients.TrendAPI(),
		Metrics:  m,
		Limiters: clients.Limiters,
		Logger:   log,
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithFields(map[string]interface{}{
		"addr":   addr,
		"config": app.configPath,
		"debug":  app.debug,
	}).Info("Starting keyword-volume server")

	if err := handler.Serve(ctx, server, addr, cfg.Server.ShutdownTimeout); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
