package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"plotlines.app/pkg/errors"
	"plotlines.app/pkg/validation"
)

const (
	maxRedisDB            = 15
	maxPortNumber         = 65535
	maxEngineTimeout      = 3600
	maxDispatchWorkers    = 16
	maxLockTTLMinutes     = 1440
	defaultDispatchLayout = "15:04"
)

// Config represents the application configuration structure
type Config struct {
	Server     ServerConfig    `split_words:"true"`
	Database   DatabaseConfig  `split_words:"true"`
	Engine     EngineConfig    `split_words:"true"`
	Email      EmailConfig     `split_words:"true"`
	Scheduler  SchedulerConfig `split_words:"true"`
	Dispatch   DispatchConfig  `split_words:"true"`
	Lock       LockConfig      `split_words:"true"`
	Log        LogConfig       `split_words:"true"`
	AppBaseURL string          `envconfig:"APP_URL" default:"http://localhost:8080"`
}

type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"plotlines"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// EngineConfig describes how the content-generation process is spawned
type EngineConfig struct {
	Command                string `envconfig:"ENGINE_COMMAND" default:"python3"`
	Script                 string `envconfig:"ENGINE_SCRIPT" default:"garden/engine.py"`
	TimeoutSeconds         int    `envconfig:"ENGINE_TIMEOUT_SECONDS" default:"120"`
	BreakerThreshold       int    `envconfig:"ENGINE_BREAKER_THRESHOLD" default:"0"`
	BreakerCooldownSeconds int    `envconfig:"ENGINE_BREAKER_COOLDOWN_SECONDS" default:"300"`
}

// Timeout returns the hard wall-clock limit for one invocation
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// EmailTransport selects the email sending backend
type EmailTransport int

const (
	EmailTransportUnknown EmailTransport = iota
	EmailTransportSMTP
	EmailTransportSES
	EmailTransportLog
)

// String returns the string representation of the transport
func (t EmailTransport) String() string {
	switch t {
	case EmailTransportSMTP:
		return "smtp"
	case EmailTransportSES:
		return "ses"
	case EmailTransportLog:
		return "log"
	default:
		return "unknown"
	}
}

// IsValid checks if the transport is supported
func (t EmailTransport) IsValid() bool {
	return t == EmailTransportSMTP || t == EmailTransportSES || t == EmailTransportLog
}

// EmailTransportFromString converts string to EmailTransport enum
func EmailTransportFromString(s string) EmailTransport {
	switch s {
	case "smtp":
		return EmailTransportSMTP
	case "ses":
		return EmailTransportSES
	case "log":
		return EmailTransportLog
	default:
		return EmailTransportUnknown
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for envconfig
func (t *EmailTransport) UnmarshalText(text []byte) error {
	*t = EmailTransportFromString(string(text))
	return nil
}

// MarshalText implements encoding.TextMarshaler for envconfig
func (t EmailTransport) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type EmailConfig struct {
	Transport     EmailTransport `envconfig:"EMAIL_TRANSPORT" default:"smtp"`
	SMTPHost      string         `envconfig:"EMAIL_SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort      int            `envconfig:"EMAIL_SMTP_PORT" default:"587"`
	SMTPUsername  string         `envconfig:"EMAIL_SMTP_USERNAME"`
	SMTPPassword  string         `envconfig:"EMAIL_SMTP_PASSWORD"`
	SESRegion     string         `envconfig:"EMAIL_SES_REGION" default:"us-east-1"`
	SESAccessKey  string         `envconfig:"EMAIL_SES_ACCESS_KEY"`
	SESSecretKey  string         `envconfig:"EMAIL_SES_SECRET_KEY"`
	FromName      string         `envconfig:"EMAIL_FROM_NAME" default:"Plot Lines"`
	FromAddress   string         `envconfig:"EMAIL_FROM_ADDRESS" default:"no-reply@plotlines.app"`
	RatePerSecond float64        `envconfig:"EMAIL_RATE_PER_SECOND" default:"0"`
}

// HasSMTPCredentials reports whether SMTP authentication is configured
func (e EmailConfig) HasSMTPCredentials() bool {
	return e.SMTPUsername != "" && e.SMTPPassword != ""
}

type SchedulerConfig struct {
	Enabled      bool   `envconfig:"SCHEDULER_ENABLED" default:"true"`
	DispatchTime string `envconfig:"DISPATCH_TIME" default:"06:00"`
	Timezone     string `envconfig:"DISPATCH_TIMEZONE" default:"America/Denver"`
}

// Location resolves the dispatch timezone
func (s SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// ClockTime returns the hour and minute of the daily dispatch
func (s SchedulerConfig) ClockTime() (int, int, error) {
	t, err := time.Parse(defaultDispatchLayout, s.DispatchTime)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

type DispatchConfig struct {
	Workers int `envconfig:"DISPATCH_WORKERS" default:"1"`
}

// LockType represents the dispatch lock backend
type LockType int

const (
	LockTypeUnknown LockType = iota
	LockTypeMemory
	LockTypeRedis
)

// String returns the string representation of lock type
func (l LockType) String() string {
	switch l {
	case LockTypeMemory:
		return "memory"
	case LockTypeRedis:
		return "redis"
	default:
		return "unknown"
	}
}

// IsValid checks if the lock type is valid
func (l LockType) IsValid() bool {
	return l == LockTypeMemory || l == LockTypeRedis
}

// LockTypeFromString converts string to LockType enum
func LockTypeFromString(s string) LockType {
	switch s {
	case "memory":
		return LockTypeMemory
	case "redis":
		return LockTypeRedis
	default:
		return LockTypeUnknown
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for envconfig
func (l *LockType) UnmarshalText(text []byte) error {
	*l = LockTypeFromString(string(text))
	return nil
}

// MarshalText implements encoding.TextMarshaler for envconfig
func (l LockType) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

type LockConfig struct {
	Type       LockType    `envconfig:"LOCK_TYPE" default:"memory"`
	TTLMinutes int         `envconfig:"LOCK_TTL_MINUTES" default:"180"`
	Redis      RedisConfig `split_words:"true"`
}

// TTL returns how long a dispatch lock survives a crashed holder
func (l LockConfig) TTL() time.Duration {
	return time.Duration(l.TTLMinutes) * time.Minute
}

type RedisConfig struct {
	Addr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string `envconfig:"REDIS_PASSWORD" default:""`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
}

type LogConfig struct {
	Level    string `envconfig:"LOG_LEVEL" default:"info"`
	FilePath string `envconfig:"DISPATCH_LOG_FILE"`
}

func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	// PYTHON_PATH is the legacy name for the engine interpreter
	if _, set := os.LookupEnv("ENGINE_COMMAND"); !set {
		if pythonPath := os.Getenv("PYTHON_PATH"); pythonPath != "" {
			config.Engine.Command = pythonPath
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return err
	}
	if err := c.Email.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.Lock.Validate(); err != nil {
		return err
	}
	if err := c.validateAppBaseURL(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAppBaseURL() error {
	if c.AppBaseURL == "" {
		return errors.NewConfigurationError("APP_URL cannot be empty", nil)
	}
	if !strings.HasPrefix(c.AppBaseURL, "http://") && !strings.HasPrefix(c.AppBaseURL, "https://") {
		return errors.NewConfigurationError("APP_URL must start with http:// or https://", nil)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > maxPortNumber {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > maxPortNumber {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	return d.ValidateSSLMode()
}

func (d *DatabaseConfig) ValidateSSLMode() error {
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

func (e *EngineConfig) Validate() error {
	if strings.TrimSpace(e.Command) == "" {
		return errors.NewConfigurationError("ENGINE_COMMAND cannot be empty", nil)
	}
	if strings.TrimSpace(e.Script) == "" {
		return errors.NewConfigurationError("ENGINE_SCRIPT cannot be empty", nil)
	}
	if e.TimeoutSeconds < 1 || e.TimeoutSeconds > maxEngineTimeout {
		return errors.NewConfigurationError("ENGINE_TIMEOUT_SECONDS must be between 1 and 3600", nil)
	}
	if e.BreakerThreshold < 0 {
		return errors.NewConfigurationError("ENGINE_BREAKER_THRESHOLD cannot be negative", nil)
	}
	if e.BreakerThreshold > 0 && e.BreakerCooldownSeconds < 1 {
		return errors.NewConfigurationError("ENGINE_BREAKER_COOLDOWN_SECONDS must be at least 1 second", nil)
	}
	return nil
}

func (e *EmailConfig) Validate() error {
	if !e.Transport.IsValid() {
		return errors.NewConfigurationError("EMAIL_TRANSPORT must be one of: smtp, ses, log", nil)
	}
	if e.Transport == EmailTransportSMTP {
		if e.SMTPHost == "" {
			return errors.NewConfigurationError("EMAIL_SMTP_HOST cannot be empty", nil)
		}
		if e.SMTPPort < 1 || e.SMTPPort > maxPortNumber {
			return errors.NewConfigurationError("EMAIL_SMTP_PORT must be between 1 and 65535", nil)
		}
		if (e.SMTPUsername == "") != (e.SMTPPassword == "") {
			return errors.NewConfigurationError("EMAIL_SMTP_USERNAME and EMAIL_SMTP_PASSWORD must both be provided or both be empty", nil)
		}
	}
	if e.Transport == EmailTransportSES {
		if e.SESRegion == "" {
			return errors.NewConfigurationError("EMAIL_SES_REGION cannot be empty when using SES", nil)
		}
		if (e.SESAccessKey == "") != (e.SESSecretKey == "") {
			return errors.NewConfigurationError("EMAIL_SES_ACCESS_KEY and EMAIL_SES_SECRET_KEY must both be provided or both be empty", nil)
		}
	}
	if e.FromName == "" {
		return errors.NewConfigurationError("EMAIL_FROM_NAME cannot be empty", nil)
	}
	if !validation.IsValidEmail(e.FromAddress) {
		return errors.NewConfigurationError("EMAIL_FROM_ADDRESS must be a valid email address", nil)
	}
	if e.RatePerSecond < 0 {
		return errors.NewConfigurationError("EMAIL_RATE_PER_SECOND cannot be negative", nil)
	}
	return nil
}

func (s *SchedulerConfig) Validate() error {
	if _, _, err := s.ClockTime(); err != nil {
		return errors.NewConfigurationError("DISPATCH_TIME must use HH:MM 24-hour format", err)
	}
	if _, err := s.Location(); err != nil {
		return errors.NewConfigurationError(fmt.Sprintf("DISPATCH_TIMEZONE %q is not a known timezone", s.Timezone), err)
	}
	return nil
}

func (d *DispatchConfig) Validate() error {
	if d.Workers < 1 || d.Workers > maxDispatchWorkers {
		return errors.NewConfigurationError("DISPATCH_WORKERS must be between 1 and 16", nil)
	}
	return nil
}

func (l *LockConfig) Validate() error {
	if !l.Type.IsValid() {
		return errors.NewConfigurationError("LOCK_TYPE must be one of: memory, redis", nil)
	}
	if l.TTLMinutes < 1 || l.TTLMinutes > maxLockTTLMinutes {
		return errors.NewConfigurationError("LOCK_TTL_MINUTES must be between 1 and 1440", nil)
	}
	if l.Type == LockTypeRedis {
		return l.Redis.Validate()
	}
	return nil
}

func (r *RedisConfig) Validate() error {
	if r.Addr == "" {
		return errors.NewConfigurationError("REDIS_ADDR cannot be empty when using the Redis lock", nil)
	}
	if r.DB < 0 || r.DB > maxRedisDB {
		return errors.NewConfigurationError("REDIS_DB must be between 0 and 15", nil)
	}
	if r.DialTimeout < 1 {
		return errors.NewConfigurationError("REDIS_DIAL_TIMEOUT must be at least 1 second", nil)
	}
	if r.ReadTimeout < 1 {
		return errors.NewConfigurationError("REDIS_READ_TIMEOUT must be at least 1 second", nil)
	}
	if r.WriteTimeout < 1 {
		return errors.NewConfigurationError("REDIS_WRITE_TIMEOUT must be at least 1 second", nil)
	}
	return nil
}
