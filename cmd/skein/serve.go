package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/skein"
	httpAdapter "github.com/aretw0/skein/pkg/adapters/http"
	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/observability"
	"github.com/aretw0/skein/pkg/worker"
)

// meteredEngine feeds run events through the Prometheus counters before
// they reach the HTTP stream.
type meteredEngine struct {
	engine  *skein.Engine
	metrics *observability.Metrics
}

func (m meteredEngine) Run(ctx context.Context, history []*domain.Message, events worker.Events) ([]*domain.Message, error) {
	return m.engine.Run(ctx, history, m.metrics.Wrap(events))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP conversation server",
	Long: `Starts the engine in server mode, exposing sessions over a JSON API.
Submitting a message streams the run's notifications and messages back
as server-sent events. Prometheus counters are served on /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")

		eng, err := newEngine(cmd, nil, false)
		if err != nil {
			fmt.Printf("Error initializing skein: %v\n", err)
			os.Exit(1)
		}

		manager, cleanup := newSessionManager(cmd)
		defer cleanup()

		metrics := observability.NewMetrics()
		api := httpAdapter.NewHandler(
			meteredEngine{engine: eng, metrics: metrics},
			manager,
			httpAdapter.WithLogger(newLogger(cmd)),
		)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/", api)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: mux,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Skein Server on %s\n", srv.Addr)
			fmt.Printf("Serving script: %s\n", eng.Name)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			// Error when starting HTTP server.
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Skein Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
