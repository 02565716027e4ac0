package repository

import (
	"time"

	"github.com/estudio-tools/workflow-api/internal/database"
	"github.com/estudio-tools/workflow-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if !filter.AllAreas && len(filter.AreaIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{})

	if !filter.AllAreas {
		query = query.Where("tasks.area_id IN ?", filter.AreaIDs)
	}

	if filter.OwnUserID != nil {
		ownSubQuery := r.db.
			Select("1").
			Table("task_assignments").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.OwnUserID)
		query = query.Where("tasks.creator_id = ? OR EXISTS (?)", *filter.OwnUserID, ownSubQuery)
	}

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.
			Select("1").
			Table("task_assignments").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID)
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}
	if filter.ProcessID != nil {
		query = query.Where("tasks.process_id = ?", *filter.ProcessID)
	}
	if filter.ParentID != nil {
		query = query.Where("tasks.parent_id = ?", *filter.ParentID)
	}
	if filter.DueDateFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueDateFrom)
	}
	if filter.DueDateTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueDateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByDueDate {
		listQuery = listQuery.Order("tasks.due_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))

	if err := listQuery.Preload("Creator").Preload("Area").Preload("Assignees").Preload("Tags").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists every field of the task
func (r *GormTaskRepository) Update(task *models.Task) error {
	// Select("*") so clearing tracking fields back to NULL sticks
	return r.db.Model(task).Select("*").Omit(clause.Associations, "created_at").Updates(task).Error
}

// ListChildren returns the direct children of a task
func (r *GormTaskRepository) ListChildren(parentID uint64) ([]models.Task, error) {
	var children []models.Task
	if err := r.db.Where("parent_id = ?", parentID).Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

// AssignUsers replaces the task's assignee set. An empty list clears it.
func (r *GormTaskRepository) AssignUsers(taskID uint64, userIDs []uint64) error {
	task := models.Task{ID: taskID}
	if len(userIDs) == 0 {
		return r.db.Model(&task).Association("Assignees").Clear()
	}

	users := make([]models.User, len(userIDs))
	for i, id := range userIDs {
		users[i] = models.User{ID: id}
	}

	return r.db.Model(&task).Association("Assignees").Replace(users)
}

// ReplaceTags replaces the task's tag set
func (r *GormTaskRepository) ReplaceTags(task *models.Task, tags []models.Tag) error {
	return r.db.Model(task).Association("Tags").Replace(tags)
}

// CountOpenByProcess counts member tasks still blocking process completion
func (r *GormTaskRepository) CountOpenByProcess(processID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("process_id = ?", processID).
		Where("status IN ?", []models.TaskStatus{
			models.TaskStatusPending,
			models.TaskStatusScheduled,
			models.TaskStatusInProgress,
			models.TaskStatusInReview,
		}).
		Count(&count).Error
	return count, err
}

// ListByProcess returns every member task of a process
func (r *GormTaskRepository) ListByProcess(processID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("process_id = ?", processID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// PromoteScheduled flips due Scheduled tasks to Pending
func (r *GormTaskRepository) PromoteScheduled(today time.Time) (int64, error) {
	endOfDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location()).AddDate(0, 0, 1)
	result := r.db.Model(&models.Task{}).
		Where("status = ?", models.TaskStatusScheduled).
		Where("planned_start_date < ?", endOfDay).
		Update("status", models.TaskStatusPending)
	return result.RowsAffected, result.Error
}
