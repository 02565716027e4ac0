package repository

import (
	"github.com/estudio-tools/workflow-api/internal/database"
	"github.com/estudio-tools/workflow-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProcessRepository is a GORM implementation of ProcessRepository
type GormProcessRepository struct {
	db *gorm.DB
}

// NewProcessRepository creates a new ProcessRepository
func NewProcessRepository(db *gorm.DB) ProcessRepository {
	return &GormProcessRepository{db: db}
}

func (r *GormProcessRepository) Create(process *models.Process) error {
	return r.db.Create(process).Error
}

func (r *GormProcessRepository) FindByID(id uint64, preload ...string) (*models.Process, error) {
	var process models.Process
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&process, id).Error; err != nil {
		return nil, err
	}
	return &process, nil
}

func (r *GormProcessRepository) List(filter ProcessFilter) ([]models.Process, int64, error) {
	var processes []models.Process

	if !filter.AllAreas && len(filter.AreaIDs) == 0 {
		return []models.Process{}, 0, nil
	}

	query := r.db.Model(&models.Process{})

	if !filter.AllAreas {
		// Owning area, or read-only visibility through the involvement set
		involvedSub := r.db.
			Select("1").
			Table("process_involved_areas").
			Where("process_involved_areas.process_id = processes.id").
			Where("process_involved_areas.area_id IN ?", filter.AreaIDs)
		query = query.Where("processes.area_id IN ? OR EXISTS (?)", filter.AreaIDs, involvedSub)
	}

	if filter.Status != nil {
		query = query.Where("processes.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("processes.due_date ASC").
		Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Area").Preload("ProcessType").Find(&processes).Error; err != nil {
		return nil, 0, err
	}

	return processes, total, nil
}

func (r *GormProcessRepository) Update(process *models.Process) error {
	return r.db.Model(process).Select("*").Omit(clause.Associations, "created_at").Updates(process).Error
}

func (r *GormProcessRepository) AddInvolvedArea(processID, areaID uint64) error {
	process := models.Process{ID: processID}
	return r.db.Model(&process).Association("InvolvedAreas").Append(&models.Area{ID: areaID})
}

func (r *GormProcessRepository) CreateTransfer(transfer *models.ProcessTransfer) error {
	return r.db.Create(transfer).Error
}

func (r *GormProcessRepository) ListTransfers(processID uint64) ([]models.ProcessTransfer, error) {
	var transfers []models.ProcessTransfer
	err := r.db.
		Preload("FromArea").
		Preload("ToArea").
		Preload("TransferredBy").
		Where("process_id = ?", processID).
		Order("transferred_at ASC").
		Find(&transfers).Error
	if err != nil {
		return nil, err
	}
	return transfers, nil
}

func (r *GormProcessRepository) CreateType(pt *models.ProcessType) error {
	return r.db.Create(pt).Error
}

func (r *GormProcessRepository) FindTypeByID(id uint64) (*models.ProcessType, error) {
	var pt models.ProcessType
	if err := r.db.First(&pt, id).Error; err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *GormProcessRepository) ListTypes(allAreas bool, areaIDs []uint64) ([]models.ProcessType, error) {
	var types []models.ProcessType
	query := r.db.Where("is_active = ?", true).Order("name ASC")
	if !allAreas {
		if len(areaIDs) == 0 {
			return []models.ProcessType{}, nil
		}
		query = query.Where("area_id IN ?", areaIDs)
	}
	if err := query.Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
