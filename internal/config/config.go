package config

import (
	"os"
	"strconv"
)

type ConsultServiceConfig struct {
	Port        string
	PostgresCfg PostgresConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	RabbitMQCfg RabbitMQConfig
	JWTCfg      JWTConfig
	RazorpayCfg RazorpayConfig
	BookingCfg  BookingConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type BookingConfig struct {
	SLAHours          int
	DefaultFollowUps  int
	MediaURLExpiryHrs int
	OTPExpiryMinutes  int
}

func New() *ConsultServiceConfig {
	return &ConsultServiceConfig{
		Port: getEnvOrDefault("PORT", "8090"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "consult_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "localhost:9000"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		JWTCfg: JWTConfig{
			Secret:      getEnvOrDefault("JWT_SECRET", "dev-secret-change-me"),
			ExpiryHours: getEnvIntOrDefault("JWT_EXPIRY_HOURS", 168),
		},
		RazorpayCfg: RazorpayConfig{
			KeyID:     getEnvOrDefault("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnvOrDefault("RAZORPAY_KEY_SECRET", ""),
		},
		BookingCfg: BookingConfig{
			SLAHours:          getEnvIntOrDefault("BOOKING_SLA_HOURS", 48),
			DefaultFollowUps:  getEnvIntOrDefault("BOOKING_DEFAULT_FOLLOW_UPS", 1),
			MediaURLExpiryHrs: getEnvIntOrDefault("MEDIA_URL_EXPIRY_HOURS", 24),
			OTPExpiryMinutes:  getEnvIntOrDefault("OTP_EXPIRY_MINUTES", 5),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
