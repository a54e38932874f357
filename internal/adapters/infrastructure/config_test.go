package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"plotlines.app/internal/config"
)

func TestConfigProviderAdapter(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Port: 9090},
		Engine: config.EngineConfig{
			Command:                "python3",
			Script:                 "garden/engine.py",
			TimeoutSeconds:         45,
			BreakerThreshold:       3,
			BreakerCooldownSeconds: 300,
		},
		Email: config.EmailConfig{
			Transport:     config.EmailTransportSES,
			SESRegion:     "us-west-2",
			FromName:      "Plot Lines",
			FromAddress:   "garden@plotlines.app",
			RatePerSecond: 2,
		},
		Scheduler:  config.SchedulerConfig{Enabled: true, DispatchTime: "07:30", Timezone: "America/Denver"},
		Dispatch:   config.DispatchConfig{Workers: 4},
		Lock:       config.LockConfig{Type: config.LockTypeRedis, TTLMinutes: 90, Redis: config.RedisConfig{Addr: "redis:6379", DB: 2}},
		AppBaseURL: "https://plotlines.example.com",
	}

	provider := NewConfigProviderAdapter(cfg)

	assert.Equal(t, 9090, provider.GetServerConfig().Port)
	assert.Equal(t, "https://plotlines.example.com", provider.GetAppConfig().BaseURL)

	engine := provider.GetEngineConfig()
	assert.Equal(t, 45*time.Second, engine.Timeout)
	assert.Equal(t, 3, engine.BreakerThreshold)
	assert.Equal(t, 5*time.Minute, engine.BreakerCooldown)

	email := provider.GetEmailConfig()
	assert.Equal(t, "ses", email.Transport)
	assert.Equal(t, "us-west-2", email.SESRegion)
	assert.InDelta(t, 2.0, email.RatePerSecond, 0.0001)

	dispatch := provider.GetDispatchConfig()
	assert.Equal(t, 4, dispatch.Workers)
	assert.Equal(t, "America/Denver", dispatch.Location.String())
	assert.Equal(t, 90*time.Minute, dispatch.LockTTL)

	scheduler := provider.GetSchedulerConfig()
	assert.True(t, scheduler.Enabled)
	assert.Equal(t, 7, scheduler.Hour)
	assert.Equal(t, 30, scheduler.Minute)

	lock := provider.GetLockConfig()
	assert.Equal(t, "redis", lock.Type)
	assert.Equal(t, "redis:6379", lock.Redis.Addr)
	assert.Equal(t, 2, lock.Redis.DB)
}

func TestConfigProviderAdapter_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	provider := NewConfigProviderAdapter(&config.Config{
		Scheduler: config.SchedulerConfig{DispatchTime: "06:00", Timezone: "Mars/Olympus"},
	})

	assert.Equal(t, time.UTC, provider.GetDispatchConfig().Location)
}
