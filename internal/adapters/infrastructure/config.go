package infrastructure

import (
	"time"

	"plotlines.app/internal/config"
	"plotlines.app/internal/ports"
)

// ConfigProviderAdapter implements the ConfigProvider port
type ConfigProviderAdapter struct {
	config   *config.Config
	location *time.Location
}

// NewConfigProviderAdapter creates a new config provider adapter.
// The dispatch timezone is resolved once; an unknown zone falls back to UTC.
func NewConfigProviderAdapter(cfg *config.Config) *ConfigProviderAdapter {
	location, err := cfg.Scheduler.Location()
	if err != nil {
		location = time.UTC
	}

	return &ConfigProviderAdapter{
		config:   cfg,
		location: location,
	}
}

// GetAppConfig returns application configuration
func (c *ConfigProviderAdapter) GetAppConfig() ports.AppConfig {
	return ports.AppConfig{
		BaseURL: c.config.AppBaseURL,
	}
}

// GetDatabaseConfig returns database configuration
func (c *ConfigProviderAdapter) GetDatabaseConfig() ports.DatabaseConfig {
	return ports.DatabaseConfig{
		Host:     c.config.Database.Host,
		Port:     c.config.Database.Port,
		User:     c.config.Database.User,
		Password: c.config.Database.Password,
		Name:     c.config.Database.Name,
		SSLMode:  c.config.Database.SSLMode,
	}
}

// GetServerConfig returns server configuration
func (c *ConfigProviderAdapter) GetServerConfig() ports.ServerConfig {
	return ports.ServerConfig{
		Port: c.config.Server.Port,
	}
}

// GetEngineConfig returns engine process configuration
func (c *ConfigProviderAdapter) GetEngineConfig() ports.EngineConfig {
	return ports.EngineConfig{
		Command:          c.config.Engine.Command,
		Script:           c.config.Engine.Script,
		Timeout:          c.config.Engine.Timeout(),
		BreakerThreshold: c.config.Engine.BreakerThreshold,
		BreakerCooldown:  time.Duration(c.config.Engine.BreakerCooldownSeconds) * time.Second,
	}
}

// GetEmailConfig returns email configuration
func (c *ConfigProviderAdapter) GetEmailConfig() ports.EmailConfig {
	return ports.EmailConfig{
		Transport:     c.config.Email.Transport.String(),
		SMTPHost:      c.config.Email.SMTPHost,
		SMTPPort:      c.config.Email.SMTPPort,
		SMTPUsername:  c.config.Email.SMTPUsername,
		SMTPPassword:  c.config.Email.SMTPPassword,
		SESRegion:     c.config.Email.SESRegion,
		SESAccessKey:  c.config.Email.SESAccessKey,
		SESSecretKey:  c.config.Email.SESSecretKey,
		FromName:      c.config.Email.FromName,
		FromAddress:   c.config.Email.FromAddress,
		RatePerSecond: c.config.Email.RatePerSecond,
	}
}

// GetDispatchConfig returns dispatch cycle configuration
func (c *ConfigProviderAdapter) GetDispatchConfig() ports.DispatchConfig {
	return ports.DispatchConfig{
		Workers:  c.config.Dispatch.Workers,
		Location: c.location,
		LockTTL:  c.config.Lock.TTL(),
	}
}

// GetSchedulerConfig returns scheduler configuration
func (c *ConfigProviderAdapter) GetSchedulerConfig() ports.SchedulerConfig {
	// validated at load time
	hour, minute, _ := c.config.Scheduler.ClockTime()

	return ports.SchedulerConfig{
		Enabled:  c.config.Scheduler.Enabled,
		Hour:     hour,
		Minute:   minute,
		Location: c.location,
	}
}

// GetLockConfig returns dispatch lock configuration
func (c *ConfigProviderAdapter) GetLockConfig() ports.LockConfig {
	return ports.LockConfig{
		Type: c.config.Lock.Type.String(),
		TTL:  c.config.Lock.TTL(),
		Redis: ports.RedisConfig{
			Addr:         c.config.Lock.Redis.Addr,
			Password:     c.config.Lock.Redis.Password,
			DB:           c.config.Lock.Redis.DB,
			DialTimeout:  c.config.Lock.Redis.DialTimeout,
			ReadTimeout:  c.config.Lock.Redis.ReadTimeout,
			WriteTimeout: c.config.Lock.Redis.WriteTimeout,
		},
	}
}
