package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/denitracker/internal/config"
	"github.com/nimasrn/denitracker/internal/handlers"
	xhttp "github.com/nimasrn/denitracker/pkg/http"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/nimasrn/denitracker/pkg/prom"
	"github.com/spf13/cobra"
)

var corsOrigin string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local API, the connectivity monitor and the sync worker",
	Long: `Run the device daemon:
  - the local HTTP API the UI talks to
  - the connectivity monitor, which triggers a sync when the server comes back
  - the background sync worker
  - the metrics endpoint, when METRICS_ADDR is set`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		ctx := cmd.Context()

		if cfg.MetricsAddr != "" {
			host, _ := os.Hostname()
			if err := prom.Create(host, cfg.AppEnv, cfg.PromNamespace); err != nil {
				return err
			}
			go prom.ListenAndServer(cfg.MetricsAddr, cfg.MetricsURI)
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		s := xhttp.NewServer(xhttp.DefaultServerOption)
		s.Use(xhttp.RecoverMiddleware)
		s.Use(xhttp.RequestLoggerMiddleware)
		if corsOrigin != "" {
			s.Use(xhttp.CORSMiddleware(corsOrigin))
		}
		s.Use(xhttp.TimeoutMiddleware(s.RequestTimeout()))
		s.Router = xhttp.CreateDefaultRouter()
		handlers.Register(s.Router, a)

		a.Start(ctx)

		errCh := make(chan error, 1)
		go func() {
			errCh <- s.ListenAndServe(cfg.HttpListenAddr)
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case <-sig:
			logger.Info("Shutting down")
			s.Shutdown()
			return nil
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&corsOrigin, "cors-origin", "", "allow browser calls from this origin")
	rootCmd.AddCommand(serveCmd)
}
