// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"itinerary-service/pkg/retry"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StorePostgres  = "postgres"
)

// Schedulers
const (
	SchedulerInProcess = "inprocess"
	SchedulerNATS      = "nats"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Store
	StoreBackend       string
	JobCollection      string
	FirestoreProjectID string
	FirestoreDatabase  string
	FirestoreEndpoint  string

	// Service account
	ServiceAccountJSON string
	ServiceAccountFile string
	TokenScope         string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// PostgreSQL
	PostgresDSN string

	// Gemini
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32

	// Scheduler
	Scheduler   string
	NATSURL     string
	NATSStream  string
	NATSSubject string
	NATSWorkers int

	// Retry
	Retry retry.Config

	// Behaviour
	GenerationTimeout  time.Duration
	ExposeErrorDetails bool
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		AppVersion:      getEnv("APP_VERSION", "1.0.0"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnv("PORT", "8080"),
		ReadTimeout:     time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout:    time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT", 30)) * time.Second,

		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreFirestore)),
		JobCollection:      getEnv("JOB_COLLECTION", "itineraries"),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreDatabase:  getEnv("FIRESTORE_DATABASE", "(default)"),
		FirestoreEndpoint:  getEnv("FIRESTORE_ENDPOINT", ""),

		ServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		TokenScope:         getEnv("TOKEN_SCOPE", "https://www.googleapis.com/auth/datastore"),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "itinerary"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTemperature: float32(getEnvAsFloat("GEMINI_TEMPERATURE", 0.7)),

		Scheduler:   strings.ToLower(getEnv("SCHEDULER", SchedulerInProcess)),
		NATSURL:     getEnv("NATS_URL", ""),
		NATSStream:  getEnv("NATS_STREAM", "ITINERARY_JOBS"),
		NATSSubject: getEnv("NATS_SUBJECT", "itinerary.generate"),
		NATSWorkers: getEnvAsInt("NATS_WORKERS", 4),

		Retry: retry.Config{
			MaxRetries:    getEnvAsInt("RETRY_MAX_RETRIES", 3),
			BaseDelay:     time.Duration(getEnvAsInt("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
			MaxDelay:      time.Duration(getEnvAsInt("RETRY_MAX_DELAY_MS", 30000)) * time.Millisecond,
			BackoffFactor: getEnvAsFloat("RETRY_BACKOFF_FACTOR", 2),
		},

		GenerationTimeout:  time.Duration(getEnvAsInt("GENERATION_TIMEOUT", 600)) * time.Second,
		ExposeErrorDetails: getEnvAsBool("EXPOSE_ERROR_DETAILS", true),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings that cannot work together
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore backend"))
		}
		if c.ServiceAccountJSON == "" && c.ServiceAccountFile == "" {
			errs = append(errs, errors.New("GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS is required for the firestore backend"))
		}
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGODB_DSN is required for the mongo backend"))
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.Scheduler {
	case SchedulerInProcess:
	case SchedulerNATS:
		if c.NATSURL == "" {
			errs = append(errs, errors.New("NATS_URL is required for the nats scheduler"))
		}
		if c.NATSWorkers < 1 {
			errs = append(errs, errors.New("NATS_WORKERS must be at least 1"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SCHEDULER %q", c.Scheduler))
	}

	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.JobCollection == "" {
		errs = append(errs, errors.New("JOB_COLLECTION must not be empty"))
	}
	if c.Retry.MaxRetries < 0 || c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("retry settings must not be negative"))
	}
	if c.Retry.BackoffFactor < 1 {
		errs = append(errs, errors.New("RETRY_BACKOFF_FACTOR must be at least 1"))
	}
	if c.GenerationTimeout < 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must not be negative"))
	}

	return errors.Join(errs...)
}

// ServiceAccountCredentials returns the service account key, inline or from file
func (c *Config) ServiceAccountCredentials() ([]byte, error) {
	if c.ServiceAccountJSON != "" {
		return []byte(c.ServiceAccountJSON), nil
	}
	if c.ServiceAccountFile == "" {
		return nil, errors.New("no service account configured")
	}
	data, err := os.ReadFile(c.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}
	return data, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
