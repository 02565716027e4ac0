package repository

import (
	"github.com/estudio-tools/workflow-api/internal/database"
	"github.com/estudio-tools/workflow-api/internal/models"
	"gorm.io/gorm"
)

// GormAuditRepository is a GORM implementation of AuditRepository
type GormAuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) CreateTransition(t *models.StatusTransition) error {
	return r.db.Create(t).Error
}

func (r *GormAuditRepository) ListTransitions(taskID uint64) ([]models.StatusTransition, error) {
	var transitions []models.StatusTransition
	err := r.db.
		Preload("ChangedBy").
		Where("task_id = ?", taskID).
		Order("changed_at ASC").
		Find(&transitions).Error
	if err != nil {
		return nil, err
	}
	return transitions, nil
}

func (r *GormAuditRepository) CreateActivity(entry *models.ActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *GormAuditRepository) ListActivity(filter ActivityFilter) ([]models.ActivityLog, int64, error) {
	var entries []models.ActivityLog

	if !filter.AllAreas && len(filter.AreaIDs) == 0 {
		return []models.ActivityLog{}, 0, nil
	}

	query := r.db.Model(&models.ActivityLog{})
	if !filter.AllAreas {
		query = query.Where("area_id IN ?", filter.AreaIDs)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("User").Preload("Area").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
