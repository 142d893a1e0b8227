package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	JWTSecret  string
	// PublicURL is where the frontend lives; used for checkout return and reset links.
	PublicURL string
	UploadDir string
	// CORSOrigins are extra browser origins allowed besides PublicURL.
	CORSOrigins []string

	Store   StoreConfig
	Email   EmailConfig
	Notify  NotifyConfig
	Storage StorageConfig
	Payment PaymentConfig
}

type StoreConfig struct {
	Driver   string // "mongo" or "memory"
	URI      string
	Database string
	Timeout  time.Duration
}

type EmailConfig struct {
	Provider      string // "postmark", "sendgrid" or "log"
	Sender        string
	PostmarkToken string
	SendGridKey   string
}

type NotifyConfig struct {
	Driver      string // "queue" or "rabbitmq"
	Workers     int
	BufferSize  int
	RabbitMQURL string
	Queue       string
}

type StorageConfig struct {
	Driver string // "local" or "minio"
	Minio  MinioConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type PaymentConfig struct {
	MidtransServerKey string
	Production        bool
	// VerifyRecords makes /api/record-donation check the provider before logging.
	VerifyRecords bool
}

// LoadConfig reads the environment, loading a .env file first if one exists.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	return Config{
		ServerPort:  getEnvInt("PORT", 8000),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:5173"), "/"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		CORSOrigins: getEnvList("CORS_ORIGINS"),
		Store: StoreConfig{
			Driver:   getEnv("STORE_DRIVER", "mongo"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "FYP"),
			Timeout:  time.Duration(getEnvInt("MONGODB_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Email: EmailConfig{
			Provider:      getEnv("EMAIL_PROVIDER", "log"),
			Sender:        getEnv("EMAIL_SENDER", "no-reply@foodshare.local"),
			PostmarkToken: getEnv("POSTMARK_API_TOKEN", ""),
			SendGridKey:   getEnv("SENDGRID_API_KEY", ""),
		},
		Notify: NotifyConfig{
			Driver:      getEnv("NOTIFY_DRIVER", "queue"),
			Workers:     getEnvInt("NOTIFY_WORKERS", 2),
			BufferSize:  getEnvInt("NOTIFY_BUFFER", 100),
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Queue:       getEnv("NOTIFY_QUEUE", "notifications"),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "local"),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "foodshare-uploads"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Payment: PaymentConfig{
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
			Production:        getEnvBool("MIDTRANS_PRODUCTION", false),
			VerifyRecords:     getEnvBool("PAYMENT_VERIFY_RECORDS", false),
		},
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.Store.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
