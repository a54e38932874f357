package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
	"plotlines.app/pkg/validation"
)

// CombinationModel represents the database model for (station, author) pairings
type CombinationModel struct {
	ID            uint     `gorm:"primaryKey"`
	StationCode   string   `gorm:"type:varchar(8);not null;uniqueIndex:idx_combinations_station_author"`
	AuthorKey     string   `gorm:"type:varchar(32);not null;uniqueIndex:idx_combinations_station_author"`
	City          string   `gorm:"not null;default:''"`
	State         string   `gorm:"not null;default:''"`
	Latitude      *float64 `gorm:"type:double precision"`
	Longitude     *float64 `gorm:"type:double precision"`
	GardenContext string   `gorm:"type:text"`
	CreatedAt     time.Time
}

func (CombinationModel) TableName() string {
	return "combinations"
}

// CombinationRepositoryAdapter implements the CombinationRepository port using GORM
type CombinationRepositoryAdapter struct {
	db *gorm.DB
}

// NewCombinationRepositoryAdapter creates a new combination repository adapter
func NewCombinationRepositoryAdapter(db *gorm.DB) ports.CombinationRepository {
	return &CombinationRepositoryAdapter{db: db}
}

// ListDueCombinations returns combinations that have at least one active, confirmed subscriber
func (r *CombinationRepositoryAdapter) ListDueCombinations(ctx context.Context) ([]*ports.CombinationData, error) {
	subscribed := r.db.Model(&SubscriberModel{}).
		Select("1").
		Where("subscribers.station_code = combinations.station_code").
		Where("subscribers.author_key = combinations.author_key").
		Where("subscribers.active = ? AND subscribers.confirmed_at IS NOT NULL", true)

	var models []CombinationModel
	result := r.db.WithContext(ctx).
		Where("EXISTS (?)", subscribed).
		Order("station_code, author_key").
		Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to list due combinations", result.Error)
	}

	combinations := make([]*ports.CombinationData, len(models))
	for i := range models {
		combinations[i] = r.modelToData(&models[i])
	}

	return combinations, nil
}

// Ensure returns the combination for (station, author), creating it on first use
func (r *CombinationRepositoryAdapter) Ensure(ctx context.Context, combination *ports.CombinationData) (*ports.CombinationData, error) {
	if combination == nil {
		return nil, errors.NewValidationError("combination cannot be nil")
	}
	stationCode := strings.ToUpper(strings.TrimSpace(combination.StationCode))
	if !validation.IsValidStationCode(stationCode) {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid station code %q", combination.StationCode))
	}
	if !validation.IsValidAuthorKey(combination.AuthorKey) {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid author key %q", combination.AuthorKey))
	}

	model := r.dataToModel(combination)
	model.ID = 0
	model.StationCode = stationCode

	lookup := CombinationModel{StationCode: stationCode, AuthorKey: combination.AuthorKey}
	var found CombinationModel
	result := r.db.WithContext(ctx).Where(&lookup).Attrs(model).FirstOrCreate(&found)
	if result.Error != nil {
		// A concurrent Ensure may have inserted the same pair first
		if !stderrors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, errors.NewDatabaseError("failed to ensure combination", result.Error)
		}
		if err := r.db.WithContext(ctx).Where(&lookup).First(&found).Error; err != nil {
			return nil, errors.NewDatabaseError("failed to load combination after conflict", err)
		}
	}

	return r.modelToData(&found), nil
}

// FindByID retrieves a combination by its ID
func (r *CombinationRepositoryAdapter) FindByID(ctx context.Context, id uint) (*ports.CombinationData, error) {
	if id == 0 {
		return nil, errors.NewValidationError("combination ID cannot be zero")
	}

	var model CombinationModel
	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("combination not found")
		}
		return nil, errors.NewDatabaseError("failed to find combination by ID", result.Error)
	}

	return r.modelToData(&model), nil
}

func (r *CombinationRepositoryAdapter) dataToModel(data *ports.CombinationData) *CombinationModel {
	return &CombinationModel{
		ID:            data.ID,
		StationCode:   data.StationCode,
		AuthorKey:     data.AuthorKey,
		City:          data.City,
		State:         data.State,
		Latitude:      data.Latitude,
		Longitude:     data.Longitude,
		GardenContext: data.GardenContext,
		CreatedAt:     data.CreatedAt,
	}
}

func (r *CombinationRepositoryAdapter) modelToData(model *CombinationModel) *ports.CombinationData {
	return &ports.CombinationData{
		ID:            model.ID,
		StationCode:   model.StationCode,
		AuthorKey:     model.AuthorKey,
		City:          model.City,
		State:         model.State,
		Latitude:      model.Latitude,
		Longitude:     model.Longitude,
		GardenContext: model.GardenContext,
		CreatedAt:     model.CreatedAt,
	}
}
