package ports

import (
	"context"
	"time"
)

// AppConfig represents application configuration
type AppConfig struct {
	BaseURL string
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port int
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// EngineConfig represents engine process configuration
type EngineConfig struct {
	Command          string
	Script           string
	Timeout          time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// EmailConfig represents email configuration
type EmailConfig struct {
	Transport     string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SESRegion     string
	SESAccessKey  string
	SESSecretKey  string
	FromName      string
	FromAddress   string
	RatePerSecond float64
}

// DispatchConfig represents dispatch cycle configuration
type DispatchConfig struct {
	Workers  int
	Location *time.Location
	LockTTL  time.Duration
}

// SchedulerConfig represents scheduler configuration
type SchedulerConfig struct {
	Enabled  bool
	Hour     int
	Minute   int
	Location *time.Location
}

// LockConfig represents dispatch lock configuration
type LockConfig struct {
	Type  string
	TTL   time.Duration
	Redis RedisConfig
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  int
	ReadTimeout  int
	WriteTimeout int
}

// ConfigProvider defines the contract for configuration management
type ConfigProvider interface {
	GetAppConfig() AppConfig
	GetServerConfig() ServerConfig
	GetDatabaseConfig() DatabaseConfig
	GetEngineConfig() EngineConfig
	GetEmailConfig() EmailConfig
	GetDispatchConfig() DispatchConfig
	GetSchedulerConfig() SchedulerConfig
	GetLockConfig() LockConfig
}

// Logger defines the contract for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a log field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// MetricsCollector defines the contract for dispatch metrics
type MetricsCollector interface {
	RecordCycle(ctx context.Context, result string, finishedAt time.Time)
	RecordCombinationOutcome(ctx context.Context, outcome string)
	RecordDelivery(ctx context.Context, status DeliveryStatus)
	RecordEngineDuration(ctx context.Context, duration time.Duration, success bool)
}
