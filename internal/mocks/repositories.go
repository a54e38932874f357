package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"plotlines.app/internal/ports"
)

// CombinationRepository is a mock of ports.CombinationRepository
type CombinationRepository struct {
	mock.Mock
}

func NewCombinationRepository(t *testing.T) *CombinationRepository {
	m := &CombinationRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *CombinationRepository) ListDueCombinations(ctx context.Context) ([]*ports.CombinationData, error) {
	args := m.Called(ctx)
	combinations, _ := args.Get(0).([]*ports.CombinationData)
	return combinations, args.Error(1)
}

func (m *CombinationRepository) Ensure(ctx context.Context, combination *ports.CombinationData) (*ports.CombinationData, error) {
	args := m.Called(ctx, combination)
	result, _ := args.Get(0).(*ports.CombinationData)
	return result, args.Error(1)
}

func (m *CombinationRepository) FindByID(ctx context.Context, id uint) (*ports.CombinationData, error) {
	args := m.Called(ctx, id)
	result, _ := args.Get(0).(*ports.CombinationData)
	return result, args.Error(1)
}

// RunStateStore is a mock of ports.RunStateStore
type RunStateStore struct {
	mock.Mock
}

func NewRunStateStore(t *testing.T) *RunStateStore {
	m := &RunStateStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *RunStateStore) GetRun(ctx context.Context, combinationID uint, runDate string) (*ports.RunData, error) {
	args := m.Called(ctx, combinationID, runDate)
	run, _ := args.Get(0).(*ports.RunData)
	return run, args.Error(1)
}

func (m *RunStateStore) RecordCompleted(ctx context.Context, combinationID uint, runDate string, payload *ports.GeneratedPayload, generationMs int64) (*ports.RunData, error) {
	args := m.Called(ctx, combinationID, runDate, payload, generationMs)
	run, _ := args.Get(0).(*ports.RunData)
	return run, args.Error(1)
}

func (m *RunStateStore) RecordFailed(ctx context.Context, combinationID uint, runDate string) (*ports.RunData, error) {
	args := m.Called(ctx, combinationID, runDate)
	run, _ := args.Get(0).(*ports.RunData)
	return run, args.Error(1)
}

func (m *RunStateStore) ListRuns(ctx context.Context, runDate string) ([]*ports.RunData, error) {
	args := m.Called(ctx, runDate)
	runs, _ := args.Get(0).([]*ports.RunData)
	return runs, args.Error(1)
}

// SubscriberRepository is a mock of ports.SubscriberRepository
type SubscriberRepository struct {
	mock.Mock
}

func NewSubscriberRepository(t *testing.T) *SubscriberRepository {
	m := &SubscriberRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SubscriberRepository) ListActiveForCombination(ctx context.Context, stationCode, authorKey string) ([]*ports.SubscriberData, error) {
	args := m.Called(ctx, stationCode, authorKey)
	subscribers, _ := args.Get(0).([]*ports.SubscriberData)
	return subscribers, args.Error(1)
}

func (m *SubscriberRepository) Save(ctx context.Context, subscriber *ports.SubscriberData) error {
	args := m.Called(ctx, subscriber)
	return args.Error(0)
}

func (m *SubscriberRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	count, _ := args.Get(0).(int64)
	return count, args.Error(1)
}

// DeliveryLedger is a mock of ports.DeliveryLedger
type DeliveryLedger struct {
	mock.Mock
}

func NewDeliveryLedger(t *testing.T) *DeliveryLedger {
	m := &DeliveryLedger{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *DeliveryLedger) Append(ctx context.Context, delivery *ports.DeliveryData) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *DeliveryLedger) ListForRun(ctx context.Context, runID uint) ([]*ports.DeliveryData, error) {
	args := m.Called(ctx, runID)
	deliveries, _ := args.Get(0).([]*ports.DeliveryData)
	return deliveries, args.Error(1)
}

func (m *DeliveryLedger) CountByStatus(ctx context.Context, runID uint) (map[ports.DeliveryStatus]int64, error) {
	args := m.Called(ctx, runID)
	counts, _ := args.Get(0).(map[ports.DeliveryStatus]int64)
	return counts, args.Error(1)
}
