package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-foodshare/config"
	"go-foodshare/notify"
	"go-foodshare/utils"

	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Delivers queued notification emails from RabbitMQ",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.Notify.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is required")
		}

		mailer, err := utils.NewMailer(cfg.Email)
		if err != nil {
			return err
		}
		r, err := notify.NewRabbitMQ(cfg.Notify.RabbitMQURL, cfg.Notify.Queue)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer r.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf("Consuming notifications from %s", cfg.Notify.Queue)
		if err := r.Consume(ctx, mailer); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
