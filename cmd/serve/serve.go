package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pnodedash/config"
	"pnodedash/handlers"
	"pnodedash/metrics"
	"pnodedash/middleware"
	"pnodedash/services"
	"pnodedash/utils"
)

func New() *cobra.Command {
	var port int
	var host string
	var rpcURL string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.LoadConfig()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load config")
			}
			config.SetupLogger(cfg.Log)

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("url") {
				cfg.PRPC.URL = rpcURL
			}

			if err := run(cfg); err != nil {
				log.Fatal().Err(err).Msg("Server stopped")
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Address to bind")
	cmd.Flags().StringVar(&rpcURL, "url", "", "pNode RPC endpoint (overrides PNODE_RPC_URL)")

	return cmd
}

func run(cfg *config.Config) error {
	log.Info().
		Str("address", cfg.ServerAddress()).
		Bool("fallback", cfg.Fallback.Enabled).
		Bool("metrics", cfg.Metrics.Enabled).
		Dur("prpc_timeout", cfg.PRPCTimeoutDuration()).
		Msg("Configuration loaded")

	geo, err := utils.NewGeoResolver(cfg.GeoIP.DBPath)
	if err != nil {
		log.Warn().Err(err).Msg("GeoIP disabled")
	}
	defer geo.Close()

	prpc := services.NewPRPCClient(cfg)
	aggregator := services.NewDataAggregator(geo)
	dashboard := services.NewDashboardService(cfg, prpc, aggregator)

	e := newServer(cfg, handlers.NewHandler(cfg, dashboard, prpc))

	go func() {
		log.Info().Msgf("Server running on http://%s", cfg.ServerAddress())
		if err := e.Start(cfg.ServerAddress()); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Graceful shutdown initiated")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return err
	}
	log.Info().Msg("Server exited cleanly")
	return nil
}

func newServer(cfg *config.Config, h *handlers.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.LoggerMiddleware())
	e.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Str("path", c.Path()).Msg("Recovered from panic")
					c.Error(fmt.Errorf("internal server error"))
				}
			}()
			return next(c)
		}
	})

	h.Register(e)
	if cfg.Metrics.Enabled {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	return e
}
