package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
	"plotlines.app/pkg/validation"
)

// SubscriberModel represents the database model for subscribers
type SubscriberModel struct {
	ID               uint   `gorm:"primaryKey"`
	Email            string `gorm:"not null;index"`
	City             string `gorm:"not null;default:''"`
	State            string `gorm:"not null;default:''"`
	AuthorKey        string `gorm:"type:varchar(32);not null;index:idx_subscribers_combination"`
	StationCode      string `gorm:"type:varchar(8);not null;index:idx_subscribers_combination"`
	Active           bool   `gorm:"not null"`
	ConfirmedAt      *time.Time
	ConfirmToken     string `gorm:"type:varchar(64);index"`
	UnsubscribeToken string `gorm:"type:varchar(64);index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (SubscriberModel) TableName() string {
	return "subscribers"
}

// SubscriberRepositoryAdapter implements the SubscriberRepository port using GORM
type SubscriberRepositoryAdapter struct {
	db *gorm.DB
}

// NewSubscriberRepositoryAdapter creates a new subscriber repository adapter
func NewSubscriberRepositoryAdapter(db *gorm.DB) ports.SubscriberRepository {
	return &SubscriberRepositoryAdapter{db: db}
}

// ListActiveForCombination returns active, confirmed subscribers of a combination in signup order
func (r *SubscriberRepositoryAdapter) ListActiveForCombination(ctx context.Context, stationCode, authorKey string) ([]*ports.SubscriberData, error) {
	if stationCode == "" {
		return nil, errors.NewValidationError("station code cannot be empty")
	}
	if authorKey == "" {
		return nil, errors.NewValidationError("author key cannot be empty")
	}

	var models []SubscriberModel
	result := r.db.WithContext(ctx).
		Where("station_code = ? AND author_key = ?", stationCode, authorKey).
		Where("active = ? AND confirmed_at IS NOT NULL", true).
		Order("id").
		Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to list subscribers", result.Error)
	}

	subscribers := make([]*ports.SubscriberData, len(models))
	for i := range models {
		subscribers[i] = r.modelToData(&models[i])
	}

	return subscribers, nil
}

// Save persists a subscriber, issuing tokens the first time it is stored
func (r *SubscriberRepositoryAdapter) Save(ctx context.Context, sub *ports.SubscriberData) error {
	if sub == nil {
		return errors.NewValidationError("subscriber cannot be nil")
	}
	if !validation.IsValidEmail(sub.Email) {
		return errors.NewValidationError("invalid email format")
	}
	if !validation.IsValidStationCode(sub.StationCode) {
		return errors.NewValidationError("invalid station code")
	}
	if !validation.IsValidAuthorKey(sub.AuthorKey) {
		return errors.NewValidationError("invalid author key")
	}

	if sub.UnsubscribeToken == "" {
		sub.UnsubscribeToken = uuid.New().String()
	}
	if sub.ConfirmedAt == nil && sub.ConfirmToken == "" {
		sub.ConfirmToken = uuid.New().String()
	}

	model := r.dataToModel(sub)
	var result *gorm.DB

	if sub.ID == 0 {
		result = r.db.WithContext(ctx).Create(model)
		sub.ID = model.ID
		sub.CreatedAt = model.CreatedAt
	} else {
		result = r.db.WithContext(ctx).Save(model)
	}

	if result.Error != nil {
		return errors.NewDatabaseError("failed to save subscriber", result.Error)
	}

	return nil
}

// CountActive counts active, confirmed subscribers
func (r *SubscriberRepositoryAdapter) CountActive(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&SubscriberModel{}).
		Where("active = ? AND confirmed_at IS NOT NULL", true).
		Count(&count)
	if result.Error != nil {
		return 0, errors.NewDatabaseError("failed to count active subscribers", result.Error)
	}

	return count, nil
}

func (r *SubscriberRepositoryAdapter) dataToModel(data *ports.SubscriberData) *SubscriberModel {
	return &SubscriberModel{
		ID:               data.ID,
		Email:            data.Email,
		City:             data.City,
		State:            data.State,
		AuthorKey:        data.AuthorKey,
		StationCode:      data.StationCode,
		Active:           data.Active,
		ConfirmedAt:      data.ConfirmedAt,
		ConfirmToken:     data.ConfirmToken,
		UnsubscribeToken: data.UnsubscribeToken,
		CreatedAt:        data.CreatedAt,
	}
}

func (r *SubscriberRepositoryAdapter) modelToData(model *SubscriberModel) *ports.SubscriberData {
	return &ports.SubscriberData{
		ID:               model.ID,
		Email:            model.Email,
		City:             model.City,
		State:            model.State,
		AuthorKey:        model.AuthorKey,
		StationCode:      model.StationCode,
		Active:           model.Active,
		ConfirmedAt:      model.ConfirmedAt,
		ConfirmToken:     model.ConfirmToken,
		UnsubscribeToken: model.UnsubscribeToken,
		CreatedAt:        model.CreatedAt,
	}
}
