package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"go-foodshare/config"
	"go-foodshare/controllers"
	"go-foodshare/notify"
	"go-foodshare/payment"
	"go-foodshare/routes"
	"go-foodshare/storage"
	"go-foodshare/store"
	"go-foodshare/utils"
	"go-foodshare/workflow"
)

// app holds every long-lived dependency of the server.
type app struct {
	store   store.Store
	mailer  utils.Mailer
	outbox  notify.Outbox
	rabbit  *notify.RabbitMQ
	handler http.Handler
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	if cfg.Driver == "memory" {
		log.Println("Using in-memory store; data is lost on restart.")
		return store.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	m, err := store.ConnectMongo(ctx, cfg.URI, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = m.Close(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return m, nil
}

// openOutbox returns the outbox and, for the rabbitmq driver, the broker
// connection so the caller can run a consumer.
func openOutbox(cfg config.NotifyConfig, mailer utils.Mailer) (notify.Outbox, *notify.RabbitMQ, error) {
	switch cfg.Driver {
	case "rabbitmq":
		r, err := notify.NewRabbitMQ(cfg.RabbitMQURL, cfg.Queue)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case "queue", "":
		return notify.NewQueue(mailer, cfg.Workers, cfg.BufferSize), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown NOTIFY_DRIVER %q", cfg.Driver)
	}
}

func openStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Storage.Driver {
	case "minio":
		m, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		backend = m
	case "local", "":
		backend = storage.NewLocalDisk(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	files := storage.NewStorage(backend)
	if err := files.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("prepare upload storage: %w", err)
	}
	return files, nil
}

// openPayment returns nil clients when no server key is configured; the
// checkout endpoint then reports payments as unavailable.
func openPayment(cfg config.PaymentConfig) (payment.Checkout, payment.Verifier, error) {
	if cfg.MidtransServerKey == "" {
		log.Println("MIDTRANS_SERVER_KEY is not set; checkout is disabled.")
		return nil, nil, nil
	}
	m, err := payment.NewMidtrans(cfg.MidtransServerKey, cfg.Production)
	if err != nil {
		return nil, nil, err
	}
	return m, m, nil
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a := &app{store: s}

	a.mailer, err = utils.NewMailer(cfg.Email)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.outbox, a.rabbit, err = openOutbox(cfg.Notify, a.mailer)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	files, err := openStorage(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	checkout, verifier, err := openPayment(cfg.Payment)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	if cfg.Payment.VerifyRecords && verifier == nil {
		a.Close(ctx)
		return nil, fmt.Errorf("PAYMENT_VERIFY_RECORDS requires MIDTRANS_SERVER_KEY")
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret)
	engine := workflow.NewEngine(s, a.outbox)

	a.handler = routes.NewRouter(routes.Controllers{
		User:        controllers.NewUserController(s, tokens, a.outbox, cfg.PublicURL),
		Donation:    controllers.NewDonationController(s, files),
		Application: controllers.NewApplicationController(s),
		Delivery:    controllers.NewDeliveryController(s),
		Payment:     controllers.NewPaymentController(s, checkout, verifier, cfg.PublicURL, cfg.Payment.VerifyRecords),
		Review:      controllers.NewReviewController(engine),
	}, s, tokens, append([]string{cfg.PublicURL}, cfg.CORSOrigins...))

	return a, nil
}

// Close drains pending notifications before closing the store.
func (a *app) Close(ctx context.Context) {
	if a.outbox != nil {
		if err := a.outbox.Close(); err != nil {
			log.Printf("Error closing notification outbox: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			log.Printf("Error closing store: %v", err)
		}
	}
}
