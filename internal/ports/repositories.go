package ports

import (
	"context"
	"time"

	"plotlines.app/internal/core/runstate"
)

// CombinationData represents a (station, author) pairing for persistence
type CombinationData struct {
	ID            uint
	StationCode   string
	AuthorKey     string
	City          string
	State         string
	Latitude      *float64
	Longitude     *float64
	GardenContext string
	CreatedAt     time.Time
}

// RunData represents one daily run of a combination
type RunData struct {
	ID             uint
	CombinationID  uint
	RunDate        string
	Status         runstate.Status
	ProseText      string
	ProseHTML      string
	Topic          string
	Quote          string
	AuthorName     string
	WeatherSummary string
	// Characters holds the engine's character list joined with ", "
	Characters   string
	GeneratedAt  *time.Time
	GenerationMs int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SubscriberData is the read projection of a subscriber used for delivery
type SubscriberData struct {
	ID               uint
	Email            string
	City             string
	State            string
	AuthorKey        string
	StationCode      string
	Active           bool
	ConfirmedAt      *time.Time
	ConfirmToken     string
	UnsubscribeToken string
	CreatedAt        time.Time
}

// DeliveryStatus is the outcome of one send attempt
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// DeliveryData represents an append-only ledger row
type DeliveryData struct {
	ID           uint
	DailyRunID   uint
	SubscriberID uint
	Status       DeliveryStatus
	Error        string
	MessageID    string
	SentAt       *time.Time
	CreatedAt    time.Time
}

// CombinationRepository defines the contract for combination persistence
type CombinationRepository interface {
	// ListDueCombinations returns every combination with at least one active,
	// confirmed subscriber, ordered by station code then author key.
	ListDueCombinations(ctx context.Context) ([]*CombinationData, error)
	Ensure(ctx context.Context, combination *CombinationData) (*CombinationData, error)
	FindByID(ctx context.Context, id uint) (*CombinationData, error)
}

// RunStateStore defines the contract for durable run state.
// At most one run exists per (combination, date) and a completed run is never revised.
type RunStateStore interface {
	GetRun(ctx context.Context, combinationID uint, runDate string) (*RunData, error)
	RecordCompleted(ctx context.Context, combinationID uint, runDate string, payload *GeneratedPayload, generationMs int64) (*RunData, error)
	RecordFailed(ctx context.Context, combinationID uint, runDate string) (*RunData, error)
	ListRuns(ctx context.Context, runDate string) ([]*RunData, error)
}

// SubscriberRepository defines the contract for subscriber lookups
type SubscriberRepository interface {
	ListActiveForCombination(ctx context.Context, stationCode, authorKey string) ([]*SubscriberData, error)
	Save(ctx context.Context, subscriber *SubscriberData) error
	CountActive(ctx context.Context) (int64, error)
}

// DeliveryLedger defines the contract for the append-only delivery ledger
type DeliveryLedger interface {
	Append(ctx context.Context, delivery *DeliveryData) error
	ListForRun(ctx context.Context, runID uint) ([]*DeliveryData, error)
	CountByStatus(ctx context.Context, runID uint) (map[DeliveryStatus]int64, error)
}
