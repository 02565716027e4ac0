package repository

import (
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
	"gorm.io/gorm"
)

// GormRecurringTaskRepository is a GORM implementation of RecurringTaskRepository
type GormRecurringTaskRepository struct {
	db *gorm.DB
}

// NewRecurringTaskRepository creates a new RecurringTaskRepository
func NewRecurringTaskRepository(db *gorm.DB) RecurringTaskRepository {
	return &GormRecurringTaskRepository{db: db}
}

func (r *GormRecurringTaskRepository) Create(rt *models.RecurringTask) error {
	return r.db.Create(rt).Error
}

func (r *GormRecurringTaskRepository) FindByID(id uint64) (*models.RecurringTask, error) {
	var rt models.RecurringTask
	err := r.db.
		Preload("Assignees").
		Preload("Tags").
		Preload("Template").
		Preload("Template.Tags").
		Preload("Template.Subtasks").
		First(&rt, id).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *GormRecurringTaskRepository) List() ([]models.RecurringTask, error) {
	var rules []models.RecurringTask
	if err := r.db.Preload("Area").Preload("Template").Order("title ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *GormRecurringTaskRepository) ListActive() ([]models.RecurringTask, error) {
	var rules []models.RecurringTask
	err := r.db.
		Preload("Assignees").
		Preload("Tags").
		Preload("Template").
		Preload("Template.Tags").
		Preload("Template.Subtasks").
		Where("is_active = ?", true).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *GormRecurringTaskRepository) Update(rt *models.RecurringTask) error {
	return r.db.Save(rt).Error
}

// ClaimGeneration stamps last_generated_date = day only if the rule is not
// already claimed for that day. A concurrent duplicate run matches zero rows
// and loses the claim, so at most one generation happens per rule per day.
func (r *GormRecurringTaskRepository) ClaimGeneration(id uint64, day time.Time) (bool, error) {
	result := r.db.Model(&models.RecurringTask{}).
		Where("id = ?", id).
		Where("last_generated_date IS NULL OR last_generated_date < ?", day).
		Update("last_generated_date", day)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
