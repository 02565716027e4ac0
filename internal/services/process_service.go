package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProcessNotFound     = errors.New("process not found")
	ErrProcessNotActive    = errors.New("process is not active")
	ErrProcessPermission   = errors.New("process can only be managed from its current area")
	ErrProcessPendingTasks = errors.New("process still has pending tasks")
	ErrSameAreaTransfer    = errors.New("cannot transfer a process to its current area")
	ErrProcessTypeNotFound = errors.New("process type not found")
)

// ProcessService handles the process lifecycle: creation, completion
// (automatic and manual), transfers between areas, and cancellation.
type ProcessService struct {
	db       *gorm.DB
	activity ActivityRecorder
	now      func() time.Time
}

// NewProcessService creates a new ProcessService
func NewProcessService(db *gorm.DB, activity ActivityRecorder) *ProcessService {
	if activity == nil {
		activity = NopRecorder{}
	}
	return &ProcessService{
		db:       db,
		activity: activity,
		now:      time.Now,
	}
}

// CreateProcessInput represents input for creating a process
type CreateProcessInput struct {
	ProcessTypeID uint64
	Name          string
	Description   string
	DueDate       time.Time
	Actor         *models.User
}

// Create creates a new process in the process type's area.
func (s *ProcessService) Create(input CreateProcessInput) (*models.Process, error) {
	processRepo := repository.NewProcessRepository(s.db)

	pt, err := processRepo.FindTypeByID(input.ProcessTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProcessTypeNotFound
		}
		return nil, fmt.Errorf("failed to find process type: %w", err)
	}

	if !input.Actor.IsAdmin && !input.Actor.CanSeeAllAreas() && !input.Actor.BelongsToArea(pt.AreaID) {
		return nil, ErrProcessPermission
	}

	now := s.now()
	process := &models.Process{
		ProcessTypeID: pt.ID,
		Name:          input.Name,
		Description:   input.Description,
		Status:        models.ProcessStatusActive,
		AreaID:        pt.AreaID,
		StartedAt:     &now,
		DueDate:       input.DueDate,
		CreatedByID:   input.Actor.ID,
	}
	if err := processRepo.Create(process); err != nil {
		return nil, fmt.Errorf("failed to create process: %w", err)
	}

	s.activity.Record(input.Actor.ID, "process_created",
		fmt.Sprintf("creó el proceso %q", process.Name),
		"process", &process.ID, &process.AreaID, nil)

	return process, nil
}

// List returns processes visible under the caller's scope.
func (s *ProcessService) List(scope Scope, status *models.ProcessStatus, page, pageSize int) ([]models.Process, int64, error) {
	return repository.NewProcessRepository(s.db).List(repository.ProcessFilter{
		AllAreas: scope.All,
		AreaIDs:  scope.AreaIDs,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
}

// Get returns a process with its relations, honoring the caller's scope.
func (s *ProcessService) Get(processID uint64, scope Scope) (*models.Process, error) {
	process, err := repository.NewProcessRepository(s.db).FindByID(processID,
		"ProcessType", "Area", "CreatedBy", "Tasks", "InvolvedAreas")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProcessNotFound
		}
		return nil, fmt.Errorf("failed to find process: %w", err)
	}

	if !scope.All && !areaVisible(process, scope.AreaIDs) {
		return nil, ErrProcessNotFound
	}
	return process, nil
}

// CompleteInput represents a manual completion request. Force acknowledges
// that open member tasks will be left behind.
type CompleteInput struct {
	ProcessID uint64
	Actor     *models.User
	Force     bool
}

// Complete manually completes a process. Only permitted from the process's
// current owning area; with open member tasks remaining, the caller must pass
// Force, otherwise the request is rejected with the count of blocking tasks.
func (s *ProcessService) Complete(input CompleteInput) (*models.Process, error) {
	var process *models.Process
	err := s.db.Transaction(func(tx *gorm.DB) error {
		processRepo := repository.NewProcessRepository(tx)
		taskRepo := repository.NewTaskRepository(tx)

		var err error
		process, err = processRepo.FindByID(input.ProcessID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProcessNotFound
			}
			return fmt.Errorf("failed to find process: %w", err)
		}

		if process.Status != models.ProcessStatusActive {
			return ErrProcessNotActive
		}
		if !input.Actor.IsAdmin && !input.Actor.BelongsToArea(process.AreaID) {
			return ErrProcessPermission
		}

		open, err := taskRepo.CountOpenByProcess(process.ID)
		if err != nil {
			return fmt.Errorf("failed to count open tasks: %w", err)
		}
		if open > 0 && !input.Force {
			return fmt.Errorf("%w: %d open tasks remain; transfer the process or force completion", ErrProcessPendingTasks, open)
		}

		now := s.now()
		process.Status = models.ProcessStatusCompleted
		process.CompletedAt = &now
		process.CompletedByID = &input.Actor.ID
		return processRepo.Update(process)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(input.Actor.ID, "process_completed",
		fmt.Sprintf("completó el proceso %q", process.Name),
		"process", &process.ID, &process.AreaID, nil)

	return process, nil
}

// TransferInput represents a transfer request.
type TransferInput struct {
	ProcessID uint64
	ToAreaID  uint64
	Actor     *models.User
	Comment   string
}

// Transfer moves a process to another area. The prior area joins the involved
// set (read-only visibility going forward) and a ProcessTransfer audit row is
// appended. Transferring a Completed process reopens it: more work is needed.
func (s *ProcessService) Transfer(input TransferInput) (*models.Process, error) {
	var process *models.Process
	var fromAreaID uint64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		processRepo := repository.NewProcessRepository(tx)

		var err error
		process, err = processRepo.FindByID(input.ProcessID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProcessNotFound
			}
			return fmt.Errorf("failed to find process: %w", err)
		}

		if process.Status == models.ProcessStatusCancelled {
			return ErrProcessNotActive
		}
		if !input.Actor.IsAdmin && !input.Actor.BelongsToArea(process.AreaID) {
			return ErrProcessPermission
		}
		if process.AreaID == input.ToAreaID {
			return ErrSameAreaTransfer
		}

		now := s.now()
		fromAreaID = process.AreaID

		if err := processRepo.AddInvolvedArea(process.ID, fromAreaID); err != nil {
			return fmt.Errorf("failed to record involved area: %w", err)
		}

		process.AreaID = input.ToAreaID
		if process.Status == models.ProcessStatusCompleted {
			process.Status = models.ProcessStatusActive
			process.CompletedAt = nil
			process.CompletedByID = nil
		}
		if err := processRepo.Update(process); err != nil {
			return fmt.Errorf("failed to update process: %w", err)
		}

		return processRepo.CreateTransfer(&models.ProcessTransfer{
			ProcessID:       process.ID,
			FromAreaID:      fromAreaID,
			ToAreaID:        input.ToAreaID,
			TransferredByID: input.Actor.ID,
			TransferredAt:   now,
			Comment:         input.Comment,
		})
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(input.Actor.ID, "process_transferred",
		fmt.Sprintf("transfirió el proceso %q al área #%d", process.Name, input.ToAreaID),
		"process", &process.ID, &fromAreaID,
		map[string]interface{}{"from_area": fromAreaID, "to_area": input.ToAreaID})

	return process, nil
}

// Cancel cancels a process and annuls every member task, cascading through
// each member's subtask tree.
func (s *ProcessService) Cancel(processID uint64, actor *models.User) (*models.Process, error) {
	var process *models.Process
	err := s.db.Transaction(func(tx *gorm.DB) error {
		processRepo := repository.NewProcessRepository(tx)
		taskRepo := repository.NewTaskRepository(tx)
		auditRepo := repository.NewAuditRepository(tx)

		var err error
		process, err = processRepo.FindByID(processID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProcessNotFound
			}
			return fmt.Errorf("failed to find process: %w", err)
		}

		if process.Status != models.ProcessStatusActive {
			return ErrProcessNotActive
		}
		if !actor.IsAdmin && !actor.BelongsToArea(process.AreaID) {
			return ErrProcessPermission
		}

		now := s.now()
		tasks, err := taskRepo.ListByProcess(process.ID)
		if err != nil {
			return fmt.Errorf("failed to load member tasks: %w", err)
		}
		for i := range tasks {
			task := &tasks[i]
			if task.Status == models.TaskStatusAnulado {
				continue
			}
			fromStatus := task.Status
			task.Status = models.TaskStatusAnulado
			task.CompletedAt = &now
			task.CompletedByID = &actor.ID
			task.Enabled = false
			task.LastEditedAt = &now
			task.LastEditedByID = &actor.ID
			if err := taskRepo.Update(task); err != nil {
				return fmt.Errorf("failed to annul task %d: %w", task.ID, err)
			}
			if err := auditRepo.CreateTransition(&models.StatusTransition{
				TaskID:      task.ID,
				FromStatus:  fromStatus,
				ToStatus:    models.TaskStatusAnulado,
				ChangedByID: actor.ID,
				Comment:     "proceso cancelado",
				ChangedAt:   now,
			}); err != nil {
				return fmt.Errorf("failed to record cascade transition: %w", err)
			}
			if err := annulDescendants(taskRepo, auditRepo, task.ID, actor.ID, now); err != nil {
				return err
			}
		}

		process.Status = models.ProcessStatusCancelled
		process.CompletedAt = &now
		process.CompletedByID = &actor.ID
		return processRepo.Update(process)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(actor.ID, "process_cancelled",
		fmt.Sprintf("canceló el proceso %q", process.Name),
		"process", &process.ID, &process.AreaID, nil)

	return process, nil
}

// ListTransfers returns the transfer history of a process.
func (s *ProcessService) ListTransfers(processID uint64, scope Scope) ([]models.ProcessTransfer, error) {
	if _, err := s.Get(processID, scope); err != nil {
		return nil, err
	}
	return repository.NewProcessRepository(s.db).ListTransfers(processID)
}

// completeProcessIfFinished flips an active process to Completed when no
// member task remains open (Anulado members never block). Called from the
// status engine whenever a member task completes; the guard on the current
// status makes the flip happen exactly once.
func completeProcessIfFinished(tx *gorm.DB, processID uint64, actorID uint64, now time.Time) (bool, error) {
	processRepo := repository.NewProcessRepository(tx)
	taskRepo := repository.NewTaskRepository(tx)

	process, err := processRepo.FindByID(processID)
	if err != nil {
		return false, fmt.Errorf("failed to find process: %w", err)
	}
	if process.Status != models.ProcessStatusActive {
		return false, nil
	}

	open, err := taskRepo.CountOpenByProcess(processID)
	if err != nil {
		return false, fmt.Errorf("failed to count open tasks: %w", err)
	}
	if open > 0 {
		return false, nil
	}

	process.Status = models.ProcessStatusCompleted
	process.CompletedAt = &now
	process.CompletedByID = &actorID
	if err := processRepo.Update(process); err != nil {
		return false, fmt.Errorf("failed to complete process: %w", err)
	}
	return true, nil
}

// areaVisible reports whether the process's owning or involved areas
// intersect areaIDs. InvolvedAreas must be preloaded.
func areaVisible(process *models.Process, areaIDs []uint64) bool {
	for _, id := range areaIDs {
		if process.AreaID == id {
			return true
		}
		for _, a := range process.InvolvedAreas {
			if a.ID == id {
				return true
			}
		}
	}
	return false
}
