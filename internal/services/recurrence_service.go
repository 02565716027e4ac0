package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"github.com/estudio-tools/workflow-api/internal/workdays"
	"gorm.io/gorm"
)

// RecurrenceService materializes recurring task rules into concrete tasks.
// Rule evaluation is a pure function of (rule, today) so it can be tested
// without a clock or a scheduler.
type RecurrenceService struct {
	db       *gorm.DB
	activity ActivityRecorder
}

// NewRecurrenceService creates a new RecurrenceService
func NewRecurrenceService(db *gorm.DB, activity ActivityRecorder) *RecurrenceService {
	if activity == nil {
		activity = NopRecorder{}
	}
	return &RecurrenceService{db: db, activity: activity}
}

// ShouldGenerateToday decides whether a rule is due on the given day.
// Inactive rules, days outside [StartDate, EndDate] and days already generated
// are skipped; otherwise the decision dispatches on the recurrence type.
func ShouldGenerateToday(rt *models.RecurringTask, today time.Time) bool {
	if !rt.IsActive {
		return false
	}

	today = workdays.Truncate(today)
	if workdays.Truncate(rt.StartDate).After(today) {
		return false
	}
	if rt.EndDate != nil && workdays.Truncate(*rt.EndDate).Before(today) {
		return false
	}
	if rt.LastGeneratedDate != nil && workdays.Truncate(*rt.LastGeneratedDate).Equal(today) {
		return false
	}

	switch rt.RecurrenceType {
	case models.RecurrenceWeekdays:
		return workdays.IsBusinessDay(today)

	case models.RecurrenceWeekly:
		if rt.DaysOfWeek == "" {
			return false
		}
		weekday := workdays.ISOWeekday(today)
		for _, part := range strings.Split(rt.DaysOfWeek, ",") {
			d, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			if d == weekday {
				return !workdays.IsHoliday(today)
			}
		}
		return false

	case models.RecurrenceMonthly:
		if rt.DayOfMonth == nil {
			return false
		}
		return today.Day() == *rt.DayOfMonth && !workdays.IsHoliday(today)

	case models.RecurrenceCustom:
		if len(rt.CustomDates) == 0 {
			return false
		}
		var dates []string
		if err := json.Unmarshal(rt.CustomDates, &dates); err != nil {
			return false
		}
		iso := today.Format("2006-01-02")
		for _, d := range dates {
			if d == iso {
				return true
			}
		}
		return false
	}

	return false
}

// GenerateDailyTasks runs one materialization pass for the given day and
// returns the number of tasks created. Each rule is handled in its own
// transaction: the rule is claimed for the day first, so a duplicate run of
// the same day cannot generate twice.
func (s *RecurrenceService) GenerateDailyTasks(today time.Time) (int, error) {
	rules, err := repository.NewRecurringTaskRepository(s.db).ListActive()
	if err != nil {
		return 0, fmt.Errorf("failed to list recurring tasks: %w", err)
	}

	day := workdays.Truncate(today)
	generated := 0
	for i := range rules {
		rt := &rules[i]
		if !ShouldGenerateToday(rt, day) {
			continue
		}

		var task *models.Task
		err := s.db.Transaction(func(tx *gorm.DB) error {
			claimed, err := repository.NewRecurringTaskRepository(tx).ClaimGeneration(rt.ID, day)
			if err != nil {
				return err
			}
			if !claimed {
				return nil
			}
			task, err = materializeRule(tx, rt, day)
			return err
		})
		if err != nil {
			return generated, fmt.Errorf("failed to generate task for rule %d: %w", rt.ID, err)
		}
		if task == nil {
			continue
		}
		generated++

		s.activity.Record(rt.CreatorID, "task_generated",
			fmt.Sprintf("generó la tarea recurrente %q", task.Title),
			"task", &task.ID, task.AreaID,
			map[string]interface{}{"recurring_task_id": rt.ID})
	}

	return generated, nil
}

// PromoteScheduledTasks flips Scheduled tasks whose planned start date has
// arrived to Pending, returning how many were promoted.
func (s *RecurrenceService) PromoteScheduledTasks(today time.Time) (int64, error) {
	return repository.NewTaskRepository(s.db).PromoteScheduled(today)
}

// materializeRule creates the concrete task for a due rule, copying the
// title, priority and area from the linked template when one exists, and
// instantiating the template's subtask tree below the new task.
func materializeRule(tx *gorm.DB, rt *models.RecurringTask, day time.Time) (*models.Task, error) {
	taskRepo := repository.NewTaskRepository(tx)

	dueDate := combineDayAndTime(day, rt.DueTime)

	task := &models.Task{
		Title:           rt.Title,
		Description:     rt.Description,
		Priority:        rt.Priority,
		Status:          models.TaskStatusPending,
		DueDate:         dueDate,
		CreatorID:       rt.CreatorID,
		AreaID:          rt.AreaID,
		TimeSpent:       rt.TimeSpent,
		RecurringTaskID: &rt.ID,
		Enabled:         true,
	}

	tags := rt.Tags
	if rt.Template != nil {
		task.Title = rt.Template.Title
		task.Description = rt.Template.Description
		task.Priority = rt.Template.Priority
		if rt.Template.AreaID != nil {
			task.AreaID = rt.Template.AreaID
		}
		if len(rt.Template.Tags) > 0 {
			tags = rt.Template.Tags
		}
	}
	task.Assignees = rt.Assignees
	task.Tags = tags

	if err := taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if rt.Template != nil && len(rt.Template.Subtasks) > 0 {
		if err := createSubtaskTree(taskRepo, rt.Template.Subtasks, task, rt.Assignees); err != nil {
			return nil, err
		}
	}

	return task, nil
}

// createSubtaskTree instantiates a template's subtask rows as a task tree
// below root. Children index their parents through a map from template row id
// to created task id, so the tree is built in one pass over the sorted rows.
// Every subtask starts disabled until its parent completes.
func createSubtaskTree(taskRepo repository.TaskRepository, subtasks []models.SubtaskTemplate, root *models.Task, assignees []models.User) error {
	created := map[uint64]uint64{}

	for _, st := range subtasks {
		parentTaskID := root.ID
		if st.ParentID != nil {
			id, ok := created[*st.ParentID]
			if !ok {
				// Parent row sorts after the child; template trees are
				// edited top-down so this indicates a corrupted template.
				return fmt.Errorf("subtask template %d references unknown parent %d", st.ID, *st.ParentID)
			}
			parentTaskID = id
		}

		task := &models.Task{
			Title:           st.Title,
			Description:     st.Description,
			Priority:        st.Priority,
			Status:          models.TaskStatusPending,
			DueDate:         root.DueDate.AddDate(0, 0, st.DaysOffset),
			CreatorID:       root.CreatorID,
			AreaID:          root.AreaID,
			ParentID:        &parentTaskID,
			RecurringTaskID: root.RecurringTaskID,
			Enabled:         false,
			Assignees:       assignees,
		}
		if err := taskRepo.Create(task); err != nil {
			return fmt.Errorf("failed to create subtask: %w", err)
		}
		created[st.ID] = task.ID
	}
	return nil
}

// combineDayAndTime applies an "HH:MM" wall-clock time to a day. A malformed
// time falls back to midnight.
func combineDayAndTime(day time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return day
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}

var (
	ErrRuleNotFound      = errors.New("recurring task not found")
	ErrInvalidRecurrence = errors.New("invalid recurrence type")
	ErrRecurrenceMissing = errors.New("recurrence configuration is incomplete")
)

// ListRules returns every recurring task rule. Admin only; the handler gates.
func (s *RecurrenceService) ListRules() ([]models.RecurringTask, error) {
	return repository.NewRecurringTaskRepository(s.db).List()
}

// CreateRuleInput represents input for creating a recurring task rule
type CreateRuleInput struct {
	Title          string
	Description    string
	Priority       models.TaskPriority
	AreaID         *uint64
	RecurrenceType models.RecurrenceType
	DaysOfWeek     []int
	DayOfMonth     *int
	CustomDates    []string
	DueTime        string
	StartDate      time.Time
	EndDate        *time.Time
	TimeSpent      *int
	TemplateID     *uint64
	AssigneeIDs    []uint64
	TagIDs         []uint64
	Actor          *models.User
}

// CreateRule creates a recurring task rule.
func (s *RecurrenceService) CreateRule(input CreateRuleInput) (*models.RecurringTask, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	rt := &models.RecurringTask{
		Title:          input.Title,
		Description:    input.Description,
		Priority:       input.Priority,
		AreaID:         input.AreaID,
		RecurrenceType: input.RecurrenceType,
		DayOfMonth:     input.DayOfMonth,
		DueTime:        input.DueTime,
		StartDate:      workdays.Truncate(input.StartDate),
		EndDate:        input.EndDate,
		TimeSpent:      input.TimeSpent,
		IsActive:       true,
		TemplateID:     input.TemplateID,
		CreatorID:      input.Actor.ID,
	}
	if rt.Priority == "" {
		rt.Priority = models.PriorityNormal
	}
	if rt.DueTime == "" {
		rt.DueTime = "09:00"
	}

	switch input.RecurrenceType {
	case models.RecurrenceWeekdays:
	case models.RecurrenceWeekly:
		if len(input.DaysOfWeek) == 0 {
			return nil, ErrRecurrenceMissing
		}
		parts := make([]string, len(input.DaysOfWeek))
		for i, d := range input.DaysOfWeek {
			parts[i] = strconv.Itoa(d)
		}
		rt.DaysOfWeek = strings.Join(parts, ",")
	case models.RecurrenceMonthly:
		if input.DayOfMonth == nil {
			return nil, ErrRecurrenceMissing
		}
	case models.RecurrenceCustom:
		if len(input.CustomDates) == 0 {
			return nil, ErrRecurrenceMissing
		}
		raw, err := json.Marshal(input.CustomDates)
		if err != nil {
			return nil, fmt.Errorf("failed to encode custom dates: %w", err)
		}
		rt.CustomDates = raw
	default:
		return nil, ErrInvalidRecurrence
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewRecurringTaskRepository(tx).Create(rt); err != nil {
			return fmt.Errorf("failed to create recurring task: %w", err)
		}
		if len(input.AssigneeIDs) > 0 {
			var users []models.User
			if err := tx.Find(&users, uniqueUint64(input.AssigneeIDs)).Error; err != nil {
				return fmt.Errorf("failed to load assignees: %w", err)
			}
			if err := tx.Model(rt).Association("Assignees").Replace(users); err != nil {
				return fmt.Errorf("failed to assign users: %w", err)
			}
		}
		if len(input.TagIDs) > 0 {
			tags, err := repository.NewTagRepository(tx).FindByIDs(input.TagIDs)
			if err != nil {
				return fmt.Errorf("failed to load tags: %w", err)
			}
			if err := tx.Model(rt).Association("Tags").Replace(tags); err != nil {
				return fmt.Errorf("failed to attach tags: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(input.Actor.ID, "recurring_task_created",
		fmt.Sprintf("creó la tarea recurrente %q", rt.Title),
		"recurring_task", &rt.ID, rt.AreaID, nil)

	return rt, nil
}

// ToggleRule activates or deactivates a rule.
func (s *RecurrenceService) ToggleRule(id uint64, active bool, actor *models.User) (*models.RecurringTask, error) {
	rtRepo := repository.NewRecurringTaskRepository(s.db)

	rt, err := rtRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to find recurring task: %w", err)
	}

	rt.IsActive = active
	if err := rtRepo.Update(rt); err != nil {
		return nil, fmt.Errorf("failed to update recurring task: %w", err)
	}

	action := "recurring_task_disabled"
	if active {
		action = "recurring_task_enabled"
	}
	s.activity.Record(actor.ID, action, fmt.Sprintf("cambió la regla %q", rt.Title),
		"recurring_task", &rt.ID, rt.AreaID, nil)

	return rt, nil
}
