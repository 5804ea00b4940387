package config

import (
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Application struct {
	Name        string
	Environment string
	Port        int
	Debug       bool
	Timeout     time.Duration
	BaseURL     string
}

type PostgreSQL struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Redis struct {
	Address  string
	Password string
	DB       int
}

type Kafka struct {
	BootstrapServers string
}

type GCP struct {
	ProjectID      string
	ServiceAccount []byte
}

type JWT struct {
	PrivateKey []byte
	PublicKey  []byte
}

type CORS struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	MaxAge           int
	AllowCredentials bool
}

type Midtrans struct {
	BaseURL      string
	BasicAuthKey string
}

type Order struct {
	ServiceChargePercentage float64
	TaxChargePercentage     float64
}

type Config struct {
	Application Application
	PostgreSQL  PostgreSQL
	Redis       Redis
	Kafka       Kafka
	GCP         GCP
	JWT         JWT
	CORS        CORS
	Midtrans    Midtrans
	Order       Order
}

var (
	c    *Config
	once sync.Once
)

func Get() *Config {
	once.Do(func() {
		godotenv.Load()

		c = &Config{
			Application: Application{
				Name:        getString("APPLICATION_NAME", "gp-checkout"),
				Environment: getString("APPLICATION_ENVIRONMENT", "development"),
				Port:        getInt("APPLICATION_PORT", 9000),
				Debug:       getBool("APPLICATION_DEBUG", false),
				Timeout:     getDuration("APPLICATION_TIMEOUT", 30*time.Second),
				BaseURL:     getString("APPLICATION_BASE_URL", "http://localhost:9000"),
			},
			PostgreSQL: PostgreSQL{
				Host:     getString("POSTGRES_HOST", "localhost"),
				Port:     getString("POSTGRES_PORT", "5432"),
				User:     getString("POSTGRES_USER", "postgres"),
				Password: getString("POSTGRES_PASSWORD", ""),
				Name:     getString("POSTGRES_NAME", "gp_checkout"),
				SSLMode:  getString("POSTGRES_SSLMODE", "disable"),
			},
			Redis: Redis{
				Address:  getString("REDIS_ADDRESS", "localhost:6379"),
				Password: getString("REDIS_PASSWORD", ""),
				DB:       getInt("REDIS_DB", 0),
			},
			Kafka: Kafka{
				BootstrapServers: getString("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092"),
			},
			GCP: GCP{
				ProjectID:      getString("GCP_PROJECT_ID", ""),
				ServiceAccount: getBase64("GCP_SERVICE_ACCOUNT"),
			},
			JWT: JWT{
				PrivateKey: getBase64("JWT_PRIVATE_KEY"),
				PublicKey:  getBase64("JWT_PUBLIC_KEY"),
			},
			CORS: CORS{
				AllowedOrigins:   getStrings("CORS_ALLOWED_ORIGINS", "*"),
				AllowedMethods:   getStrings("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
				AllowedHeaders:   getStrings("CORS_ALLOWED_HEADERS", "Authorization,Content-Type"),
				ExposedHeaders:   getStrings("CORS_EXPOSED_HEADERS", "X-Trace-Id"),
				MaxAge:           getInt("CORS_MAX_AGE", 3600),
				AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
			},
			Midtrans: Midtrans{
				BaseURL:      getString("MIDTRANS_BASE_URL", "https://app.sandbox.midtrans.com"),
				BasicAuthKey: getString("MIDTRANS_BASIC_AUTH_KEY", ""),
			},
			Order: Order{
				ServiceChargePercentage: getFloat("ORDER_SERVICE_CHARGE_PERCENTAGE", 5),
				TaxChargePercentage:     getFloat("ORDER_TAX_CHARGE_PERCENTAGE", 11),
			},
		}
	})

	return c
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getStrings(key, fallback string) []string {
	return strings.Split(getString(key, fallback), ",")
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBase64(key string) []byte {
	v, err := base64.StdEncoding.DecodeString(os.Getenv(key))
	if err != nil {
		return nil
	}
	return v
}
