package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"plotlines.app/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		os.Clearenv()

		config, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, 8080, config.Server.Port)
		assert.Equal(t, "localhost", config.Database.Host)
		assert.Equal(t, "plotlines", config.Database.Name)
		assert.Equal(t, "python3", config.Engine.Command)
		assert.Equal(t, "garden/engine.py", config.Engine.Script)
		assert.Equal(t, 120*time.Second, config.Engine.Timeout())
		assert.Equal(t, 0, config.Engine.BreakerThreshold)
		assert.Equal(t, EmailTransportSMTP, config.Email.Transport)
		assert.Equal(t, "Plot Lines", config.Email.FromName)
		assert.False(t, config.Email.HasSMTPCredentials())
		assert.True(t, config.Scheduler.Enabled)
		assert.Equal(t, "06:00", config.Scheduler.DispatchTime)
		assert.Equal(t, "America/Denver", config.Scheduler.Timezone)
		assert.Equal(t, 1, config.Dispatch.Workers)
		assert.Equal(t, LockTypeMemory, config.Lock.Type)
		assert.Equal(t, 180*time.Minute, config.Lock.TTL())
		assert.Equal(t, "localhost:6379", config.Lock.Redis.Addr)
		assert.Equal(t, "info", config.Log.Level)
		assert.Equal(t, "http://localhost:8080", config.AppBaseURL)
	})

	t.Run("CustomValues", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_HOST", "db")
		t.Setenv("ENGINE_COMMAND", "/usr/bin/python3.12")
		t.Setenv("ENGINE_SCRIPT", "/srv/garden/engine.py")
		t.Setenv("ENGINE_TIMEOUT_SECONDS", "45")
		t.Setenv("ENGINE_BREAKER_THRESHOLD", "3")
		t.Setenv("EMAIL_TRANSPORT", "ses")
		t.Setenv("EMAIL_SES_REGION", "us-west-2")
		t.Setenv("EMAIL_RATE_PER_SECOND", "2.5")
		t.Setenv("DISPATCH_TIME", "07:30")
		t.Setenv("DISPATCH_TIMEZONE", "UTC")
		t.Setenv("DISPATCH_WORKERS", "4")
		t.Setenv("LOCK_TYPE", "redis")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("DISPATCH_LOG_FILE", "logs/dispatch.log")
		t.Setenv("APP_URL", "https://plotlines.example.com")

		config, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, 9090, config.Server.Port)
		assert.Equal(t, "db", config.Database.Host)
		assert.Equal(t, "/usr/bin/python3.12", config.Engine.Command)
		assert.Equal(t, "/srv/garden/engine.py", config.Engine.Script)
		assert.Equal(t, 45*time.Second, config.Engine.Timeout())
		assert.Equal(t, 3, config.Engine.BreakerThreshold)
		assert.Equal(t, EmailTransportSES, config.Email.Transport)
		assert.Equal(t, "us-west-2", config.Email.SESRegion)
		assert.InDelta(t, 2.5, config.Email.RatePerSecond, 0.0001)
		assert.Equal(t, 4, config.Dispatch.Workers)
		assert.Equal(t, LockTypeRedis, config.Lock.Type)
		assert.Equal(t, "redis:6379", config.Lock.Redis.Addr)
		assert.Equal(t, "logs/dispatch.log", config.Log.FilePath)
		assert.Equal(t, "https://plotlines.example.com", config.AppBaseURL)

		hour, minute, err := config.Scheduler.ClockTime()
		require.NoError(t, err)
		assert.Equal(t, 7, hour)
		assert.Equal(t, 30, minute)
	})

	t.Run("PythonPathAlias", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("PYTHON_PATH", "/opt/venv/bin/python")

		config, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "/opt/venv/bin/python", config.Engine.Command)

		t.Setenv("ENGINE_COMMAND", "python3.11")
		config, err = LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "python3.11", config.Engine.Command)
	})

	t.Run("InvalidTransport", func(t *testing.T) {
		os.Clearenv()
		t.Setenv("EMAIL_TRANSPORT", "pigeon")

		config, err := LoadConfig()

		assert.Nil(t, config)
		assert.True(t, errors.IsConfigurationError(err))
		assert.Contains(t, err.Error(), "EMAIL_TRANSPORT")
	})

	t.Run("GetDSN", func(t *testing.T) {
		dbConfig := DatabaseConfig{
			Host:     "test-host",
			Port:     5432,
			User:     "test-user",
			Password: "test-password",
			Name:     "test-db",
			SSLMode:  "disable",
		}

		expectedDSN := "host=test-host port=5432 user=test-user password=test-password dbname=test-db sslmode=disable"
		assert.Equal(t, expectedDSN, dbConfig.GetDSN())
	})
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Name: "plotlines", SSLMode: "disable"},
		Engine:   EngineConfig{Command: "python3", Script: "garden/engine.py", TimeoutSeconds: 120},
		Email: EmailConfig{
			Transport:   EmailTransportSMTP,
			SMTPHost:    "smtp.example.com",
			SMTPPort:    587,
			FromName:    "Plot Lines",
			FromAddress: "no-reply@plotlines.app",
		},
		Scheduler:  SchedulerConfig{Enabled: true, DispatchTime: "06:00", Timezone: "America/Denver"},
		Dispatch:   DispatchConfig{Workers: 1},
		Lock:       LockConfig{Type: LockTypeMemory, TTLMinutes: 180},
		AppBaseURL: "http://localhost:8080",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "Valid", mutate: func(c *Config) {}},
		{name: "BadPort", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "SERVER_PORT"},
		{name: "BadSSLMode", mutate: func(c *Config) { c.Database.SSLMode = "prefer" }, wantErr: "DB_SSL_MODE"},
		{name: "EmptyEngineCommand", mutate: func(c *Config) { c.Engine.Command = " " }, wantErr: "ENGINE_COMMAND"},
		{name: "EngineTimeoutTooLong", mutate: func(c *Config) { c.Engine.TimeoutSeconds = 7200 }, wantErr: "ENGINE_TIMEOUT_SECONDS"},
		{name: "NegativeBreaker", mutate: func(c *Config) { c.Engine.BreakerThreshold = -1 }, wantErr: "ENGINE_BREAKER_THRESHOLD"},
		{name: "BreakerWithoutCooldown", mutate: func(c *Config) { c.Engine.BreakerThreshold = 3 }, wantErr: "ENGINE_BREAKER_COOLDOWN_SECONDS"},
		{name: "HalfSMTPCredentials", mutate: func(c *Config) { c.Email.SMTPUsername = "user" }, wantErr: "EMAIL_SMTP_USERNAME"},
		{name: "HalfSESCredentials", mutate: func(c *Config) {
			c.Email.Transport = EmailTransportSES
			c.Email.SESRegion = "us-east-1"
			c.Email.SESAccessKey = "AKIA"
		}, wantErr: "EMAIL_SES_ACCESS_KEY"},
		{name: "LogTransportIgnoresSMTP", mutate: func(c *Config) {
			c.Email.Transport = EmailTransportLog
			c.Email.SMTPHost = ""
		}},
		{name: "BadFromAddress", mutate: func(c *Config) { c.Email.FromAddress = "plotlines" }, wantErr: "EMAIL_FROM_ADDRESS"},
		{name: "NegativeRate", mutate: func(c *Config) { c.Email.RatePerSecond = -1 }, wantErr: "EMAIL_RATE_PER_SECOND"},
		{name: "BadDispatchTime", mutate: func(c *Config) { c.Scheduler.DispatchTime = "6am" }, wantErr: "DISPATCH_TIME"},
		{name: "BadTimezone", mutate: func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, wantErr: "DISPATCH_TIMEZONE"},
		{name: "TooManyWorkers", mutate: func(c *Config) { c.Dispatch.Workers = 64 }, wantErr: "DISPATCH_WORKERS"},
		{name: "UnknownLock", mutate: func(c *Config) { c.Lock.Type = LockTypeUnknown }, wantErr: "LOCK_TYPE"},
		{name: "RedisLockWithoutAddr", mutate: func(c *Config) {
			c.Lock.Type = LockTypeRedis
			c.Lock.Redis = RedisConfig{DialTimeout: 5, ReadTimeout: 3, WriteTimeout: 3}
		}, wantErr: "REDIS_ADDR"},
		{name: "BadAppURL", mutate: func(c *Config) { c.AppBaseURL = "plotlines.app" }, wantErr: "APP_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnumRoundTrips(t *testing.T) {
	for _, s := range []string{"smtp", "ses", "log"} {
		assert.Equal(t, s, EmailTransportFromString(s).String())
	}
	assert.Equal(t, EmailTransportUnknown, EmailTransportFromString("fax"))

	for _, s := range []string{"memory", "redis"} {
		assert.Equal(t, s, LockTypeFromString(s).String())
	}
	assert.False(t, LockTypeFromString("etcd").IsValid())
}
