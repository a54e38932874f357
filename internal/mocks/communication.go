package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"plotlines.app/internal/ports"
)

// EngineInvoker is a mock of ports.EngineInvoker
type EngineInvoker struct {
	mock.Mock
}

func NewEngineInvoker(t *testing.T) *EngineInvoker {
	m := &EngineInvoker{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EngineInvoker) Invoke(ctx context.Context, combination *ports.CombinationData) (*ports.GeneratedPayload, error) {
	args := m.Called(ctx, combination)
	payload, _ := args.Get(0).(*ports.GeneratedPayload)
	return payload, args.Error(1)
}

// EmailProvider is a mock of ports.EmailProvider
type EmailProvider struct {
	mock.Mock
}

func NewEmailProvider(t *testing.T) *EmailProvider {
	m := &EmailProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EmailProvider) SendEmail(ctx context.Context, message ports.EmailMessage) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

// MessageRenderer is a mock of ports.MessageRenderer
type MessageRenderer struct {
	mock.Mock
}

func NewMessageRenderer(t *testing.T) *MessageRenderer {
	m := &MessageRenderer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MessageRenderer) DailyMessage(run *ports.RunData, unsubscribeToken string) (*ports.RenderedMessage, error) {
	args := m.Called(run, unsubscribeToken)
	message, _ := args.Get(0).(*ports.RenderedMessage)
	return message, args.Error(1)
}

func (m *MessageRenderer) ConfirmationMessage(confirmToken string) (*ports.RenderedMessage, error) {
	args := m.Called(confirmToken)
	message, _ := args.Get(0).(*ports.RenderedMessage)
	return message, args.Error(1)
}

// LockManager is a mock of ports.LockManager
type LockManager struct {
	mock.Mock
}

func NewLockManager(t *testing.T) *LockManager {
	m := &LockManager{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *LockManager) TryAcquire(ctx context.Context, key string, ttl time.Duration) (ports.LockHandle, error) {
	args := m.Called(ctx, key, ttl)
	handle, _ := args.Get(0).(ports.LockHandle)
	return handle, args.Error(1)
}

func (m *LockManager) Name() string {
	args := m.Called()
	return args.String(0)
}

// LockHandle is a mock of ports.LockHandle
type LockHandle struct {
	mock.Mock
}

func NewLockHandle(t *testing.T) *LockHandle {
	m := &LockHandle{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *LockHandle) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
