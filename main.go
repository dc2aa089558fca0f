package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"keyword-volume-go/internal/config"
	"keyword-volume-go/internal/service"
	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/logger"
	"keyword-volume-go/pkg/metrics"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "keyword-volume",
	Short: "Naver keyword search volume and trend lookup",
	Long: `keyword-volume looks up monthly PC and mobile search volumes of related
keywords through the Naver search ad keyword tool, and the one year monthly
search trend through Naver DataLab.

Credentials come from a yaml config file or KEYWORD_* environment variables,
for example KEYWORD_SEARCHAD_API_KEY, KEYWORD_SEARCHAD_SECRET_KEY,
KEYWORD_SEARCHAD_CUSTOMER_ID, KEYWORD_DATALAB_CLIENT_ID and
KEYWORD_DATALAB_CLIENT_SECRET.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml)")
	flags.Bool("debug", false, "enable debug logging (env: KEYWORD_LOGGER_LEVEL=debug)")
	flags.Duration("timeout", api.DefaultTimeout, "upstream call timeout")
	flags.Int("max-in-flight", 4, "concurrent calls allowed per upstream")

	_ = v.BindPFlag("http.timeout", flags.Lookup("timeout"))
	_ = v.BindPFlag("http.max_in_flight", flags.Lookup("max-in-flight"))
}

// deps is what every command needs once configuration is loaded.
type deps struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	clients *service.Clients
}

// setup loads configuration, installs the global logger and, when withClients is set,
// builds the upstream clients.
func setup(cmd *cobra.Command, withClients bool) (*deps, error) {
	cfg, err := config.NewManagerWithViper(v).Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logger.Level = "debug"
	}
	log := logger.New(cfg.Logger)
	logger.SetLogger(log)

	rt := &deps{cfg: cfg, log: log, metrics: metrics.New()}
	if withClients {
		rt.clients, err = service.NewClients(cfg, rt.metrics, log)
		if err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "keyword-volume: unexpected panic: %v\n", r)
			os.Exit(2)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
