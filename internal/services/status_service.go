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
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTaskBlocked       = errors.New("task is blocked by an incomplete parent task")
	ErrStatusPermission  = errors.New("user cannot change the status of this task")
)

// StatusService governs task status transitions: validation, role gating,
// side effects on children and parent processes, and the audit trail. Every
// change runs in a single database transaction.
type StatusService struct {
	db       *gorm.DB
	activity ActivityRecorder
	now      func() time.Time
}

// NewStatusService creates a new StatusService
func NewStatusService(db *gorm.DB, activity ActivityRecorder) *StatusService {
	if activity == nil {
		activity = NopRecorder{}
	}
	return &StatusService{
		db:       db,
		activity: activity,
		now:      time.Now,
	}
}

// ChangeStatusInput represents a status mutation request
type ChangeStatusInput struct {
	TaskID    uint64
	NewStatus models.TaskStatus
	Actor     *models.User
	Comment   string
}

// StatusChangeResult is the boundary contract of a successful transition
type StatusChangeResult struct {
	TaskID           uint64            `json:"task_id"`
	OldStatus        models.TaskStatus `json:"old_status"`
	NewStatus        models.TaskStatus `json:"new_status"`
	ProcessCompleted bool              `json:"process_completed"`
}

// ChangeStatus applies a status transition with all of its side effects.
func (s *StatusService) ChangeStatus(input ChangeStatusInput) (*StatusChangeResult, error) {
	if !models.IsValidStatus(input.NewStatus) {
		return nil, fmt.Errorf("%w: %q, valid statuses are %v", ErrInvalidStatus, input.NewStatus, models.ValidStatuses)
	}

	var result *StatusChangeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.changeStatusTx(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(input.Actor.ID, "task_status_changed",
		fmt.Sprintf("cambió la tarea #%d de %s a %s", result.TaskID, result.OldStatus, result.NewStatus),
		"task", &result.TaskID, nil,
		map[string]interface{}{"from": result.OldStatus, "to": result.NewStatus})

	return result, nil
}

func (s *StatusService) changeStatusTx(tx *gorm.DB, input ChangeStatusInput) (*StatusChangeResult, error) {
	taskRepo := repository.NewTaskRepository(tx)
	auditRepo := repository.NewAuditRepository(tx)

	task, err := taskRepo.FindByID(input.TaskID, "Assignees", "Parent")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	// A blocked task admits no transition at all, for any role.
	if !task.Enabled {
		if task.Parent != nil {
			return nil, fmt.Errorf("%w: complete %q first", ErrTaskBlocked, task.Parent.Title)
		}
		return nil, ErrTaskBlocked
	}

	if err := canChangeStatus(input.Actor, task, input.NewStatus); err != nil {
		return nil, err
	}

	oldStatus := task.Status
	now := s.now()
	actorID := input.Actor.ID
	processCompleted := false

	switch input.NewStatus {
	case models.TaskStatusInProgress:
		if oldStatus.IsTerminal() {
			return nil, fmt.Errorf("%w: cannot move a %s task to %s", ErrInvalidTransition, oldStatus, input.NewStatus)
		}
		if task.StartedAt == nil {
			task.StartedAt = &now
			task.StartedByID = &actorID
		}

	case models.TaskStatusInReview:
		if oldStatus.IsTerminal() {
			return nil, fmt.Errorf("%w: cannot move a %s task to %s", ErrInvalidTransition, oldStatus, input.NewStatus)
		}
		if task.InReviewAt == nil {
			task.InReviewAt = &now
			task.InReviewByID = &actorID
		}

	case models.TaskStatusCompleted:
		if oldStatus.IsTerminal() {
			return nil, fmt.Errorf("%w: cannot move a %s task to %s", ErrInvalidTransition, oldStatus, input.NewStatus)
		}
		task.CompletedAt = &now
		if oldStatus == models.TaskStatusInReview && task.InReviewByID != nil && *task.InReviewByID != actorID {
			// Approval flow: the reviewer-submitter keeps the completion
			// credit, the current actor is recorded as the approver.
			task.CompletedByID = task.InReviewByID
			task.ApprovedAt = &now
			task.ApprovedByID = &actorID
		} else {
			task.CompletedByID = &actorID
		}
		if input.Comment != "" {
			task.CompletionComment = input.Comment
		}

	case models.TaskStatusPending:
		task.StartedAt = nil
		task.StartedByID = nil
		task.InReviewAt = nil
		task.InReviewByID = nil
		task.CompletedAt = nil
		task.CompletedByID = nil
		task.ApprovedAt = nil
		task.ApprovedByID = nil

	case models.TaskStatusAnulado:
		task.CompletedAt = &now
		task.CompletedByID = &actorID
		task.Enabled = false

	default:
		// Scheduled is entered automatically at creation and left by the
		// daily promotion job, never by hand.
		return nil, fmt.Errorf("%w: %s cannot be set manually", ErrInvalidTransition, input.NewStatus)
	}

	task.Status = input.NewStatus
	task.LastEditedAt = &now
	task.LastEditedByID = &actorID

	if err := taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := auditRepo.CreateTransition(&models.StatusTransition{
		TaskID:      task.ID,
		FromStatus:  oldStatus,
		ToStatus:    input.NewStatus,
		ChangedByID: actorID,
		Comment:     input.Comment,
		ChangedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}

	switch input.NewStatus {
	case models.TaskStatusCompleted:
		if err := enableChildren(taskRepo, task, now); err != nil {
			return nil, err
		}
		if task.ProcessID != nil {
			processCompleted, err = completeProcessIfFinished(tx, *task.ProcessID, actorID, now)
			if err != nil {
				return nil, err
			}
		}
	case models.TaskStatusAnulado:
		if err := annulDescendants(taskRepo, auditRepo, task.ID, actorID, now); err != nil {
			return nil, err
		}
	}

	return &StatusChangeResult{
		TaskID:           task.ID,
		OldStatus:        oldStatus,
		NewStatus:        input.NewStatus,
		ProcessCompleted: processCompleted,
	}, nil
}

// canChangeStatus evaluates the role gate for a transition. The task must be
// enabled (checked by the caller). Precedence: admin flag, then role.
func canChangeStatus(user *models.User, task *models.Task, newStatus models.TaskStatus) error {
	if user.IsAdmin {
		return nil
	}

	switch user.Role {
	case models.RoleSupervisor:
		if task.AreaID != nil && user.BelongsToArea(*task.AreaID) {
			return nil
		}
		return fmt.Errorf("%w: supervisors can only manage tasks of their own areas", ErrStatusPermission)

	case models.RoleUsuario, models.RoleUsuarioPlus:
		if task.CreatorID != user.ID && !task.IsAssignee(user.ID) {
			return fmt.Errorf("%w: only assignees or the creator may change this task", ErrStatusPermission)
		}
		if newStatus == models.TaskStatusAnulado {
			return fmt.Errorf("%w: your role cannot annul tasks", ErrStatusPermission)
		}
		return nil
	}

	return fmt.Errorf("%w: role %s cannot change task statuses", ErrStatusPermission, user.Role)
}

// enableChildren unblocks every direct child of a completed task. A child
// whose due date already passed while blocked gets its deadline reset to the
// enabling time, keeping the original in OriginalDueDate.
func enableChildren(taskRepo repository.TaskRepository, parent *models.Task, now time.Time) error {
	children, err := taskRepo.ListChildren(parent.ID)
	if err != nil {
		return fmt.Errorf("failed to load children: %w", err)
	}

	for i := range children {
		child := &children[i]
		if child.Enabled {
			continue
		}
		child.Enabled = true
		child.EnabledAt = &now
		child.EnabledByTaskID = &parent.ID
		if child.DueDate.Before(now) {
			original := child.DueDate
			child.OriginalDueDate = &original
			child.DueDate = now
		}
		if err := taskRepo.Update(child); err != nil {
			return fmt.Errorf("failed to enable child task %d: %w", child.ID, err)
		}
	}
	return nil
}

// annulDescendants walks the subtask tree below rootID breadth-first and
// annuls every descendant that is not already Anulado. Each node is visited
// once, so the walk terminates on any finite hierarchy.
func annulDescendants(taskRepo repository.TaskRepository, auditRepo repository.AuditRepository, rootID uint64, actorID uint64, now time.Time) error {
	queue := []uint64{rootID}
	seen := map[uint64]bool{rootID: true}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children, err := taskRepo.ListChildren(id)
		if err != nil {
			return fmt.Errorf("failed to load children of task %d: %w", id, err)
		}

		for i := range children {
			child := &children[i]
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			queue = append(queue, child.ID)

			if child.Status == models.TaskStatusAnulado {
				continue
			}

			fromStatus := child.Status
			child.Status = models.TaskStatusAnulado
			child.CompletedAt = &now
			child.CompletedByID = &actorID
			child.Enabled = false
			child.LastEditedAt = &now
			child.LastEditedByID = &actorID

			if err := taskRepo.Update(child); err != nil {
				return fmt.Errorf("failed to annul task %d: %w", child.ID, err)
			}
			if err := auditRepo.CreateTransition(&models.StatusTransition{
				TaskID:      child.ID,
				FromStatus:  fromStatus,
				ToStatus:    models.TaskStatusAnulado,
				ChangedByID: actorID,
				Comment:     "anulada junto con la tarea padre",
				ChangedAt:   now,
			}); err != nil {
				return fmt.Errorf("failed to record cascade transition: %w", err)
			}
		}
	}
	return nil
}
