package repository

import (
	"github.com/estudio-tools/workflow-api/internal/models"
	"gorm.io/gorm"
)

// areaScoped narrows a query to rows whose area_id is in areaIDs. Rows with a
// NULL area predate area scoping and stay visible to everyone.
func areaScoped(db *gorm.DB, allAreas bool, areaIDs []uint64) *gorm.DB {
	if allAreas {
		return db
	}
	if len(areaIDs) == 0 {
		return db.Where("area_id IS NULL")
	}
	return db.Where("area_id IN ? OR area_id IS NULL", areaIDs)
}

// GormAreaRepository is a GORM implementation of AreaRepository
type GormAreaRepository struct {
	db *gorm.DB
}

// NewAreaRepository creates a new AreaRepository
func NewAreaRepository(db *gorm.DB) AreaRepository {
	return &GormAreaRepository{db: db}
}

func (r *GormAreaRepository) Create(area *models.Area) error {
	return r.db.Create(area).Error
}

func (r *GormAreaRepository) FindByID(id uint64) (*models.Area, error) {
	var area models.Area
	if err := r.db.First(&area, id).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *GormAreaRepository) List() ([]models.Area, error) {
	var areas []models.Area
	if err := r.db.Order("name ASC").Find(&areas).Error; err != nil {
		return nil, err
	}
	return areas, nil
}

// GormTagRepository is a GORM implementation of TagRepository
type GormTagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &GormTagRepository{db: db}
}

func (r *GormTagRepository) Create(tag *models.Tag) error {
	return r.db.Create(tag).Error
}

func (r *GormTagRepository) FindByIDs(ids []uint64) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormTagRepository) List(allAreas bool, areaIDs []uint64) ([]models.Tag, error) {
	var tags []models.Tag
	query := areaScoped(r.db.Order("name ASC"), allAreas, areaIDs)
	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// GormTemplateRepository is a GORM implementation of TemplateRepository
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &GormTemplateRepository{db: db}
}

func (r *GormTemplateRepository) Create(template *models.TaskTemplate) error {
	return r.db.Create(template).Error
}

func (r *GormTemplateRepository) FindByID(id uint64) (*models.TaskTemplate, error) {
	var template models.TaskTemplate
	err := r.db.
		Preload("Tags").
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&template, id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *GormTemplateRepository) List(allAreas bool, areaIDs []uint64) ([]models.TaskTemplate, error) {
	var templates []models.TaskTemplate
	query := areaScoped(r.db.Preload("Tags").Order("name ASC"), allAreas, areaIDs)
	if err := query.Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
