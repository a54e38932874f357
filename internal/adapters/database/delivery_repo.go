package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

// DeliveryModel is one append-only ledger row
type DeliveryModel struct {
	ID           uint   `gorm:"primaryKey"`
	DailyRunID   uint   `gorm:"not null;index"`
	SubscriberID uint   `gorm:"not null;index"`
	Status       string `gorm:"type:varchar(16);not null"`
	Error        string `gorm:"type:text"`
	MessageID    string
	SentAt       *time.Time
	CreatedAt    time.Time
}

func (DeliveryModel) TableName() string {
	return "deliveries"
}

// DeliveryRepositoryAdapter implements the DeliveryLedger port using GORM.
// It only ever inserts; rows are history and are never updated or deleted.
type DeliveryRepositoryAdapter struct {
	db *gorm.DB
}

// NewDeliveryRepositoryAdapter creates a new delivery ledger adapter
func NewDeliveryRepositoryAdapter(db *gorm.DB) ports.DeliveryLedger {
	return &DeliveryRepositoryAdapter{db: db}
}

// Append inserts a new ledger row
func (r *DeliveryRepositoryAdapter) Append(ctx context.Context, delivery *ports.DeliveryData) error {
	if delivery == nil {
		return errors.NewValidationError("delivery cannot be nil")
	}
	if delivery.ID != 0 {
		return errors.NewValidationError("delivery ledger is append-only")
	}
	if delivery.DailyRunID == 0 || delivery.SubscriberID == 0 {
		return errors.NewValidationError("delivery must reference a run and a subscriber")
	}
	if delivery.Status != ports.DeliveryStatusSent && delivery.Status != ports.DeliveryStatusFailed {
		return errors.NewValidationError("delivery status must be sent or failed")
	}

	model := &DeliveryModel{
		DailyRunID:   delivery.DailyRunID,
		SubscriberID: delivery.SubscriberID,
		Status:       string(delivery.Status),
		Error:        delivery.Error,
		MessageID:    delivery.MessageID,
		SentAt:       delivery.SentAt,
	}

	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return errors.NewDatabaseError("failed to append delivery", result.Error)
	}

	delivery.ID = model.ID
	delivery.CreatedAt = model.CreatedAt
	return nil
}

// ListForRun returns a run's ledger in insertion order
func (r *DeliveryRepositoryAdapter) ListForRun(ctx context.Context, runID uint) ([]*ports.DeliveryData, error) {
	if runID == 0 {
		return nil, errors.NewValidationError("run ID cannot be zero")
	}

	var models []DeliveryModel
	result := r.db.WithContext(ctx).Where("daily_run_id = ?", runID).Order("id").Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to list deliveries", result.Error)
	}

	deliveries := make([]*ports.DeliveryData, len(models))
	for i, model := range models {
		deliveries[i] = &ports.DeliveryData{
			ID:           model.ID,
			DailyRunID:   model.DailyRunID,
			SubscriberID: model.SubscriberID,
			Status:       ports.DeliveryStatus(model.Status),
			Error:        model.Error,
			MessageID:    model.MessageID,
			SentAt:       model.SentAt,
			CreatedAt:    model.CreatedAt,
		}
	}

	return deliveries, nil
}

// CountByStatus counts a run's ledger rows per status
func (r *DeliveryRepositoryAdapter) CountByStatus(ctx context.Context, runID uint) (map[ports.DeliveryStatus]int64, error) {
	if runID == 0 {
		return nil, errors.NewValidationError("run ID cannot be zero")
	}

	var rows []struct {
		Status string
		Count  int64
	}
	result := r.db.WithContext(ctx).Model(&DeliveryModel{}).
		Select("status, COUNT(*) AS count").
		Where("daily_run_id = ?", runID).
		Group("status").
		Scan(&rows)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to count deliveries", result.Error)
	}

	counts := make(map[ports.DeliveryStatus]int64, len(rows))
	for _, row := range rows {
		counts[ports.DeliveryStatus(row.Status)] = row.Count
	}

	return counts, nil
}
