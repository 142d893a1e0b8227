package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-foodshare/config"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveNoConsumer bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the API server",
	Long: `Starts the API server. Usage:

	foodshare serve

With NOTIFY_DRIVER=rabbitmq the server also consumes the notification queue
unless --no-consumer is given.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		defer a.Close(context.Background())

		if a.rabbit != nil && !serveNoConsumer {
			go func() {
				if err := a.rabbit.Consume(ctx, a.mailer); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("Notification consumer stopped: %v", err)
				}
			}()
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
			Handler:      a.handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Server is running on port %d", cfg.ServerPort)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveNoConsumer, "no-consumer", false, "do not consume the RabbitMQ notification queue in this process")
}
