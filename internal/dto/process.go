package dto

import (
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
)

// ProcessTypeDTO represents a process type in API responses
type ProcessTypeDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
	AreaID   uint64 `json:"area_id"`
	IsActive bool   `json:"is_active"`
}

// ProcessDTO represents a process in API responses
type ProcessDTO struct {
	ID            uint64               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Status        models.ProcessStatus `json:"status"`
	AreaID        uint64               `json:"area_id"`
	DueDate       time.Time            `json:"due_date"`
	CreatedAt     time.Time            `json:"created_at"`
	CompletedAt   *time.Time           `json:"completed_at"`
	CompletedByID *uint64              `json:"completed_by_id"`
	ProcessType   *ProcessTypeDTO      `json:"process_type,omitempty"`
	Area          *AreaDTO             `json:"area,omitempty"`
	InvolvedAreas []AreaDTO            `json:"involved_areas,omitempty"`
	Tasks         []TaskListItemDTO    `json:"tasks,omitempty"`
}

// ProcessListResponse represents a paginated list of processes
type ProcessListResponse struct {
	Processes  []ProcessDTO `json:"processes"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
}

// ProcessTransferDTO represents one entry of a process's transfer history
type ProcessTransferDTO struct {
	ID              uint64    `json:"id"`
	ProcessID       uint64    `json:"process_id"`
	FromAreaID      uint64    `json:"from_area_id"`
	ToAreaID        uint64    `json:"to_area_id"`
	TransferredByID uint64    `json:"transferred_by_id"`
	TransferredAt   time.Time `json:"transferred_at"`
	Comment         string    `json:"comment"`
	FromArea        *AreaDTO  `json:"from_area,omitempty"`
	ToArea          *AreaDTO  `json:"to_area,omitempty"`
}

// ToProcessTypeDTO converts a ProcessType model to ProcessTypeDTO
func ToProcessTypeDTO(pt models.ProcessType) ProcessTypeDTO {
	return ProcessTypeDTO{
		ID:       pt.ID,
		Name:     pt.Name,
		Color:    pt.Color,
		Icon:     pt.Icon,
		AreaID:   pt.AreaID,
		IsActive: pt.IsActive,
	}
}

// ToProcessDTO converts a Process model to ProcessDTO
func ToProcessDTO(process models.Process) ProcessDTO {
	d := ProcessDTO{
		ID:            process.ID,
		Name:          process.Name,
		Description:   process.Description,
		Status:        process.Status,
		AreaID:        process.AreaID,
		DueDate:       process.DueDate,
		CreatedAt:     process.CreatedAt,
		CompletedAt:   process.CompletedAt,
		CompletedByID: process.CompletedByID,
	}
	if process.ProcessType.ID != 0 {
		pt := ToProcessTypeDTO(process.ProcessType)
		d.ProcessType = &pt
	}
	if process.Area.ID != 0 {
		area := ToAreaDTO(process.Area)
		d.Area = &area
	}
	for _, a := range process.InvolvedAreas {
		d.InvolvedAreas = append(d.InvolvedAreas, ToAreaDTO(a))
	}
	for _, t := range process.Tasks {
		d.Tasks = append(d.Tasks, ToTaskListItemDTO(t))
	}
	return d
}

// ToProcessTransferDTO converts a ProcessTransfer model to its DTO
func ToProcessTransferDTO(t models.ProcessTransfer) ProcessTransferDTO {
	d := ProcessTransferDTO{
		ID:              t.ID,
		ProcessID:       t.ProcessID,
		FromAreaID:      t.FromAreaID,
		ToAreaID:        t.ToAreaID,
		TransferredByID: t.TransferredByID,
		TransferredAt:   t.TransferredAt,
		Comment:         t.Comment,
	}
	if t.FromArea.ID != 0 {
		from := ToAreaDTO(t.FromArea)
		d.FromArea = &from
	}
	if t.ToArea.ID != 0 {
		to := ToAreaDTO(t.ToArea)
		d.ToArea = &to
	}
	return d
}
