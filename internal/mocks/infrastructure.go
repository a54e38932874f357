package mocks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"plotlines.app/internal/ports"
)

// ConfigProvider is a mock of ports.ConfigProvider
type ConfigProvider struct {
	mock.Mock
}

func NewConfigProvider(t *testing.T) *ConfigProvider {
	m := &ConfigProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ConfigProvider) GetAppConfig() ports.AppConfig {
	return m.Called().Get(0).(ports.AppConfig)
}

func (m *ConfigProvider) GetServerConfig() ports.ServerConfig {
	return m.Called().Get(0).(ports.ServerConfig)
}

func (m *ConfigProvider) GetDatabaseConfig() ports.DatabaseConfig {
	return m.Called().Get(0).(ports.DatabaseConfig)
}

func (m *ConfigProvider) GetEngineConfig() ports.EngineConfig {
	return m.Called().Get(0).(ports.EngineConfig)
}

func (m *ConfigProvider) GetEmailConfig() ports.EmailConfig {
	return m.Called().Get(0).(ports.EmailConfig)
}

func (m *ConfigProvider) GetDispatchConfig() ports.DispatchConfig {
	return m.Called().Get(0).(ports.DispatchConfig)
}

func (m *ConfigProvider) GetSchedulerConfig() ports.SchedulerConfig {
	return m.Called().Get(0).(ports.SchedulerConfig)
}

func (m *ConfigProvider) GetLockConfig() ports.LockConfig {
	return m.Called().Get(0).(ports.LockConfig)
}

// LogEntry is one captured log line
type LogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// Logger captures log lines in memory
type Logger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Debug(msg string, fields ...ports.Field) { l.record("debug", msg, fields) }
func (l *Logger) Info(msg string, fields ...ports.Field)  { l.record("info", msg, fields) }
func (l *Logger) Warn(msg string, fields ...ports.Field)  { l.record("warn", msg, fields) }
func (l *Logger) Error(msg string, fields ...ports.Field) { l.record("error", msg, fields) }

func (l *Logger) record(level, msg string, fields []ports.Field) {
	entry := LogEntry{Level: level, Message: msg, Fields: make(map[string]interface{}, len(fields))}
	for _, f := range fields {
		entry.Fields[f.Key] = f.Value
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns the captured lines at level, or all lines when level is empty
func (l *Logger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Clock is a manually advanced clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MetricsCollector counts recorded metrics in memory
type MetricsCollector struct {
	mu              sync.Mutex
	Cycles          map[string]int
	Outcomes        map[string]int
	Deliveries      map[ports.DeliveryStatus]int
	EngineDurations []time.Duration
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		Cycles:     map[string]int{},
		Outcomes:   map[string]int{},
		Deliveries: map[ports.DeliveryStatus]int{},
	}
}

func (m *MetricsCollector) RecordCycle(_ context.Context, result string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cycles[result]++
}

func (m *MetricsCollector) RecordCombinationOutcome(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outcomes[outcome]++
}

func (m *MetricsCollector) RecordDelivery(_ context.Context, status ports.DeliveryStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deliveries[status]++
}

func (m *MetricsCollector) RecordEngineDuration(_ context.Context, duration time.Duration, _ bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EngineDurations = append(m.EngineDurations, duration)
}
