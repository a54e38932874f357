package database

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"plotlines.app/internal/core/runstate"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
	"plotlines.app/pkg/validation"
)

// DailyRunModel represents one generation attempt for a combination on a date.
// The unique index keeps at most one row per (combination, date).
type DailyRunModel struct {
	ID             uint   `gorm:"primaryKey"`
	CombinationID  uint   `gorm:"not null;uniqueIndex:idx_daily_runs_combination_date"`
	RunDate        string `gorm:"type:varchar(10);not null;uniqueIndex:idx_daily_runs_combination_date;index"`
	Status         string `gorm:"type:varchar(16);not null"`
	ProseText      string `gorm:"type:text"`
	ProseHTML      string `gorm:"type:text"`
	Topic          string
	Quote          string `gorm:"type:text"`
	AuthorName     string
	WeatherSummary string `gorm:"type:text"`
	Characters     string `gorm:"type:text"`
	GeneratedAt    *time.Time
	GenerationMs   int64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Combination CombinationModel `gorm:"foreignKey:CombinationID;constraint:OnDelete:RESTRICT"`
}

func (DailyRunModel) TableName() string {
	return "daily_runs"
}

// RunRepositoryAdapter implements the RunStateStore port using GORM.
// Every write runs in its own transaction and goes through runstate.Transition.
type RunRepositoryAdapter struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRunRepositoryAdapter creates a new run repository adapter
func NewRunRepositoryAdapter(db *gorm.DB) ports.RunStateStore {
	return &RunRepositoryAdapter{db: db, now: time.Now}
}

// GetRun retrieves the run for a combination and date
func (r *RunRepositoryAdapter) GetRun(ctx context.Context, combinationID uint, runDate string) (*ports.RunData, error) {
	if err := validateRunKey(combinationID, runDate); err != nil {
		return nil, err
	}

	var model DailyRunModel
	result := r.db.WithContext(ctx).
		Where("combination_id = ? AND run_date = ?", combinationID, runDate).
		Take(&model)
	if result.Error != nil {
		if stderrors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.NewNotFoundError("run not found")
		}
		return nil, errors.NewDatabaseError("failed to get run", result.Error)
	}

	return r.modelToData(&model), nil
}

// RecordCompleted moves the run to completed and stores the generated payload
func (r *RunRepositoryAdapter) RecordCompleted(ctx context.Context, combinationID uint, runDate string, payload *ports.GeneratedPayload, generationMs int64) (*ports.RunData, error) {
	if err := validateRunKey(combinationID, runDate); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.NewValidationError("payload cannot be nil")
	}

	model, err := r.transition(ctx, combinationID, runDate, runstate.EventEngineSucceeded, func(m *DailyRunModel) {
		generatedAt := r.now()
		m.ProseText = payload.ProseText
		m.ProseHTML = payload.ProseHTML
		m.Topic = payload.Topic
		m.Quote = payload.Quote
		m.AuthorName = payload.AuthorName
		m.WeatherSummary = payload.WeatherSummary
		m.Characters = strings.Join(payload.Characters, ", ")
		m.GeneratedAt = &generatedAt
		m.GenerationMs = generationMs
	})
	if err != nil {
		return nil, err
	}

	return r.modelToData(model), nil
}

// RecordFailed moves the run to failed; a completed run is never touched
func (r *RunRepositoryAdapter) RecordFailed(ctx context.Context, combinationID uint, runDate string) (*ports.RunData, error) {
	if err := validateRunKey(combinationID, runDate); err != nil {
		return nil, err
	}

	model, err := r.transition(ctx, combinationID, runDate, runstate.EventEngineFailed, nil)
	if err != nil {
		return nil, err
	}

	return r.modelToData(model), nil
}

// ListRuns returns every run for a date ordered by combination
func (r *RunRepositoryAdapter) ListRuns(ctx context.Context, runDate string) ([]*ports.RunData, error) {
	if !validation.IsValidRunDate(runDate) {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid run date %q", runDate))
	}

	var models []DailyRunModel
	result := r.db.WithContext(ctx).
		Where("run_date = ?", runDate).
		Order("combination_id").
		Find(&models)
	if result.Error != nil {
		return nil, errors.NewDatabaseError("failed to list runs", result.Error)
	}

	runs := make([]*ports.RunData, len(models))
	for i := range models {
		runs[i] = r.modelToData(&models[i])
	}

	return runs, nil
}

// transition locks the existing row (if any), applies the state machine and
// upserts inside a single transaction that is rolled back on every error path.
func (r *RunRepositoryAdapter) transition(ctx context.Context, combinationID uint, runDate string, event runstate.Event, fill func(*DailyRunModel)) (*DailyRunModel, error) {
	var saved DailyRunModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing DailyRunModel
		found := true
		lookup := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("combination_id = ? AND run_date = ?", combinationID, runDate).
			Take(&existing)
		if lookup.Error != nil {
			if !stderrors.Is(lookup.Error, gorm.ErrRecordNotFound) {
				return errors.NewDatabaseError("failed to lock run", lookup.Error)
			}
			found = false
		}

		current := runstate.StatusAbsent
		if found {
			current = runstate.StatusFromString(existing.Status)
		}

		next, err := runstate.Transition(current, event)
		if err != nil {
			if errors.IsConsistencyError(err) {
				return errors.NewConsistencyError(fmt.Sprintf(
					"run for combination %d on %s is already completed", combinationID, runDate))
			}
			return err
		}

		model := existing
		if !found {
			model = DailyRunModel{CombinationID: combinationID, RunDate: runDate}
		}
		model.Status = next.String()
		if fill != nil {
			fill(&model)
		}

		var write *gorm.DB
		if found {
			write = tx.Omit("Combination").Save(&model)
		} else {
			write = tx.Omit("Combination").Create(&model)
		}
		if write.Error != nil {
			if stderrors.Is(write.Error, gorm.ErrDuplicatedKey) {
				return errors.NewConsistencyError(fmt.Sprintf(
					"concurrent run insert for combination %d on %s", combinationID, runDate))
			}
			return errors.NewDatabaseError("failed to write run", write.Error)
		}

		saved = model
		return nil
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return nil, err
		}
		return nil, errors.NewDatabaseError("run transaction failed", err)
	}

	return &saved, nil
}

func validateRunKey(combinationID uint, runDate string) error {
	if combinationID == 0 {
		return errors.NewValidationError("combination ID cannot be zero")
	}
	if !validation.IsValidRunDate(runDate) {
		return errors.NewValidationError(fmt.Sprintf("invalid run date %q", runDate))
	}
	return nil
}

func (r *RunRepositoryAdapter) modelToData(model *DailyRunModel) *ports.RunData {
	return &ports.RunData{
		ID:             model.ID,
		CombinationID:  model.CombinationID,
		RunDate:        model.RunDate,
		Status:         runstate.StatusFromString(model.Status),
		ProseText:      model.ProseText,
		ProseHTML:      model.ProseHTML,
		Topic:          model.Topic,
		Quote:          model.Quote,
		AuthorName:     model.AuthorName,
		WeatherSummary: model.WeatherSummary,
		Characters:     model.Characters,
		GeneratedAt:    model.GeneratedAt,
		GenerationMs:   model.GenerationMs,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}
