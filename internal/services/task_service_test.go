package services

import (
	"testing"
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TaskServiceTestSuite defines the test suite for TaskService
type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
}

// SetupTest runs before each test
func (suite *TaskServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.Area{},
		&models.User{},
		&models.Tag{},
		&models.TaskTemplate{},
		&models.SubtaskTemplate{},
		&models.ProcessType{},
		&models.Process{},
		&models.ProcessTransfer{},
		&models.RecurringTask{},
		&models.Task{},
		&models.StatusTransition{},
		&models.ActivityLog{},
	)
	suite.Require().NoError(err)

	suite.service = NewTaskService(suite.db, nil)
}

// TearDownTest runs after each test
func (suite *TaskServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data

func (suite *TaskServiceTestSuite) createArea(name string) *models.Area {
	area := &models.Area{Name: name}
	suite.Require().NoError(suite.db.Create(area).Error)
	return area
}

func (suite *TaskServiceTestSuite) createUser(username string, role models.Role, isAdmin bool, areas ...*models.Area) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		FullName:     username,
		Role:         role,
		IsAdmin:      isAdmin,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	for _, a := range areas {
		suite.Require().NoError(suite.db.Model(user).Association("Areas").Append(a))
	}
	var loaded models.User
	suite.Require().NoError(suite.db.Preload("Areas").First(&loaded, user.ID).Error)
	return &loaded
}

func (suite *TaskServiceTestSuite) createTag(name string, area *models.Area) *models.Tag {
	tag := &models.Tag{Name: name}
	if area != nil {
		tag.AreaID = &area.ID
	}
	suite.Require().NoError(suite.db.Create(tag).Error)
	return tag
}

func (suite *TaskServiceTestSuite) createTask(title string, creator *models.User, area *models.Area, mutate ...func(*models.Task)) *models.Task {
	task := &models.Task{
		Title:     title,
		Status:    models.TaskStatusPending,
		DueDate:   time.Now().Add(48 * time.Hour),
		CreatorID: creator.ID,
		Enabled:   true,
	}
	if area != nil {
		task.AreaID = &area.ID
	}
	for _, m := range mutate {
		m(task)
	}
	suite.Require().NoError(suite.db.Create(task).Error)
	return task
}

// Tests

func (suite *TaskServiceTestSuite) TestCreateTaskMinimal() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)

	due := time.Now().Add(72 * time.Hour)
	task, err := suite.service.CreateTask(CreateTaskInput{
		Title:   "Presentar escrito",
		DueDate: due,
		AreaID:  &area.ID,
		Actor:   admin,
	})
	suite.Require().NoError(err)
	suite.Equal("Presentar escrito", task.Title)
	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal(models.PriorityNormal, task.Priority)
	suite.True(task.Enabled)
	suite.Equal(admin.ID, task.CreatorID)
}

func (suite *TaskServiceTestSuite) TestCreateTaskRequiresTitleAndDueDate() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)

	_, err := suite.service.CreateTask(CreateTaskInput{
		Title:   "   ",
		DueDate: time.Now(),
		AreaID:  &area.ID,
		Actor:   admin,
	})
	suite.ErrorIs(err, ErrTitleRequired)

	_, err = suite.service.CreateTask(CreateTaskInput{
		Title:  "sin fecha",
		AreaID: &area.ID,
		Actor:  admin,
	})
	suite.ErrorIs(err, ErrDueDateRequired)
}

func (suite *TaskServiceTestSuite) TestUsuarioCannotCreateTasks() {
	area := suite.createArea("Legales")
	user := suite.createUser("maria", models.RoleUsuario, false, area)

	_, err := suite.service.CreateTask(CreateTaskInput{
		Title:   "prohibida",
		DueDate: time.Now().Add(time.Hour),
		AreaID:  &area.ID,
		Actor:   user,
	})
	suite.ErrorIs(err, ErrCannotCreateTasks)
}

func (suite *TaskServiceTestSuite) TestSupervisorLimitedToOwnAreas() {
	legales := suite.createArea("Legales")
	contable := suite.createArea("Contable")
	sup := suite.createUser("sup", models.RoleSupervisor, false, legales)

	_, err := suite.service.CreateTask(CreateTaskInput{
		Title:   "fuera de área",
		DueDate: time.Now().Add(time.Hour),
		AreaID:  &contable.ID,
		Actor:   sup,
	})
	suite.ErrorIs(err, ErrAreaNotAllowed)

	task, err := suite.service.CreateTask(CreateTaskInput{
		Title:   "en su área",
		DueDate: time.Now().Add(time.Hour),
		AreaID:  &legales.ID,
		Actor:   sup,
	})
	suite.Require().NoError(err)
	suite.Equal(legales.ID, *task.AreaID)
}

func (suite *TaskServiceTestSuite) TestAssigneesMustBelongToArea() {
	legales := suite.createArea("Legales")
	contable := suite.createArea("Contable")
	admin := suite.createUser("admin", models.RoleGerente, true)
	outsider := suite.createUser("ajeno", models.RoleUsuario, false, contable)
	member := suite.createUser("propio", models.RoleUsuario, false, legales)

	_, err := suite.service.CreateTask(CreateTaskInput{
		Title:       "con ajeno",
		DueDate:     time.Now().Add(time.Hour),
		AreaID:      &legales.ID,
		AssigneeIDs: []uint64{member.ID, outsider.ID},
		Actor:       admin,
	})
	suite.ErrorIs(err, ErrInvalidAssignee)

	task, err := suite.service.CreateTask(CreateTaskInput{
		Title:       "solo miembros",
		DueDate:     time.Now().Add(time.Hour),
		AreaID:      &legales.ID,
		AssigneeIDs: []uint64{member.ID, member.ID},
		Actor:       admin,
	})
	suite.Require().NoError(err)
	suite.Len(task.Assignees, 1)
	suite.Equal(member.ID, task.Assignees[0].ID)
}

func (suite *TaskServiceTestSuite) TestFuturePlannedStartCreatesScheduled() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)

	future := time.Now().Add(72 * time.Hour)
	task, err := suite.service.CreateTask(CreateTaskInput{
		Title:            "programada",
		DueDate:          time.Now().Add(120 * time.Hour),
		PlannedStartDate: &future,
		AreaID:           &area.ID,
		Actor:            admin,
	})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusScheduled, task.Status)

	past := time.Now().Add(-time.Hour)
	task, err = suite.service.CreateTask(CreateTaskInput{
		Title:            "ya empezada",
		DueDate:          time.Now().Add(120 * time.Hour),
		PlannedStartDate: &past,
		AreaID:           &area.ID,
		Actor:            admin,
	})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusPending, task.Status)
}

func (suite *TaskServiceTestSuite) TestBlockedTaskPersistsAsBlocked() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)

	task := suite.createTask("bloqueada", admin, area, func(t *models.Task) {
		t.Enabled = false
	})

	var stored models.Task
	suite.Require().NoError(suite.db.First(&stored, task.ID).Error)
	suite.False(stored.Enabled, "a task created blocked must stay blocked after the insert")
}

func (suite *TaskServiceTestSuite) TestSubtasksStartBlocked() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	parent := suite.createTask("padre", admin, area)

	child, err := suite.service.CreateTask(CreateTaskInput{
		Title:    "hija",
		DueDate:  time.Now().Add(time.Hour),
		AreaID:   &area.ID,
		ParentID: &parent.ID,
		Actor:    admin,
	})
	suite.Require().NoError(err)
	suite.False(child.Enabled)
}

func (suite *TaskServiceTestSuite) TestCreateFromTemplateFillsDefaults() {
	area := suite.createArea("Contable")
	admin := suite.createUser("admin", models.RoleGerente, true)
	tag := suite.createTag("mensual", area)

	timeSpent := 90
	tpl := &models.TaskTemplate{
		Name:        "cierre-mensual",
		Title:       "Cierre mensual",
		Description: "Conciliar cuentas y presentar",
		Priority:    models.PriorityUrgente,
		DefaultDays: 5,
		TimeSpent:   &timeSpent,
		AreaID:      &area.ID,
		CreatedByID: admin.ID,
		Tags:        []models.Tag{*tag},
	}
	suite.Require().NoError(suite.db.Create(tpl).Error)
	suite.Require().NoError(suite.db.Create(&models.SubtaskTemplate{
		TemplateID: tpl.ID, Title: "Conciliar bancos", DaysOffset: -2,
	}).Error)

	task, err := suite.service.CreateTask(CreateTaskInput{
		TemplateID: &tpl.ID,
		Actor:      admin,
	})
	suite.Require().NoError(err)
	suite.Equal("Cierre mensual", task.Title)
	suite.Equal("Conciliar cuentas y presentar", task.Description)
	suite.Equal(models.PriorityUrgente, task.Priority)
	suite.Equal(area.ID, *task.AreaID)
	suite.Require().NotNil(task.TimeSpent)
	suite.Equal(90, *task.TimeSpent)
	suite.WithinDuration(time.Now().AddDate(0, 0, 5), task.DueDate, time.Minute)
	suite.Require().Len(task.Tags, 1)
	suite.Equal("mensual", task.Tags[0].Name)

	suite.Require().Len(task.Children, 1)
	suite.Equal("Conciliar bancos", task.Children[0].Title)
	suite.False(task.Children[0].Enabled)
}

func (suite *TaskServiceTestSuite) TestExplicitFieldsOverrideTemplate() {
	area := suite.createArea("Contable")
	other := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)

	tpl := &models.TaskTemplate{
		Name: "base", Title: "Base", Priority: models.PriorityNormal,
		DefaultDays: 3, AreaID: &area.ID, CreatedByID: admin.ID,
	}
	suite.Require().NoError(suite.db.Create(tpl).Error)

	due := time.Now().Add(24 * time.Hour)
	task, err := suite.service.CreateTask(CreateTaskInput{
		Title:      "Propio",
		Priority:   models.PriorityMedia,
		DueDate:    due,
		AreaID:     &other.ID,
		TemplateID: &tpl.ID,
		Actor:      admin,
	})
	suite.Require().NoError(err)
	suite.Equal("Propio", task.Title)
	suite.Equal(models.PriorityMedia, task.Priority)
	suite.Equal(other.ID, *task.AreaID)
	suite.WithinDuration(due, task.DueDate, time.Second)
}

func (suite *TaskServiceTestSuite) TestCreateFromMissingTemplate() {
	admin := suite.createUser("admin", models.RoleGerente, true)
	missing := uint64(999)
	_, err := suite.service.CreateTask(CreateTaskInput{
		TemplateID: &missing,
		Actor:      admin,
	})
	suite.ErrorIs(err, ErrTemplateNotFound)
}

func (suite *TaskServiceTestSuite) TestListTasksOwnOnlyTier() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	maria := suite.createUser("maria", models.RoleUsuario, false, area)
	pedro := suite.createUser("pedro", models.RoleUsuario, false, area)

	mine := suite.createTask("creada por maria", maria, area)
	assigned := suite.createTask("asignada a maria", admin, area)
	suite.Require().NoError(suite.db.Model(assigned).Association("Assignees").Append(maria))
	suite.createTask("de pedro", pedro, area)

	tasks, total, err := suite.service.ListTasks(ListTasksInput{Actor: maria, Page: 1, PageSize: 50})
	suite.Require().NoError(err)
	suite.EqualValues(2, total)
	ids := map[uint64]bool{}
	for _, t := range tasks {
		ids[t.ID] = true
	}
	suite.True(ids[mine.ID])
	suite.True(ids[assigned.ID])
}

func (suite *TaskServiceTestSuite) TestListTasksSupervisorSeesWholeArea() {
	legales := suite.createArea("Legales")
	contable := suite.createArea("Contable")
	sup := suite.createUser("sup", models.RoleSupervisor, false, legales)
	admin := suite.createUser("admin", models.RoleGerente, true)

	suite.createTask("legales 1", admin, legales)
	suite.createTask("legales 2", admin, legales)
	suite.createTask("contable", admin, contable)

	_, total, err := suite.service.ListTasks(ListTasksInput{Actor: sup, Page: 1, PageSize: 50})
	suite.Require().NoError(err)
	suite.EqualValues(2, total)

	_, total, err = suite.service.ListTasks(ListTasksInput{Actor: admin, Page: 1, PageSize: 50})
	suite.Require().NoError(err)
	suite.EqualValues(3, total)
}

func (suite *TaskServiceTestSuite) TestListTasksNoMembershipsSeesNothing() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	loner := suite.createUser("solo", models.RoleSupervisor, false)

	suite.createTask("alguna", admin, area)

	_, total, err := suite.service.ListTasks(ListTasksInput{Actor: loner, Page: 1, PageSize: 50})
	suite.Require().NoError(err)
	suite.Zero(total)
}

func (suite *TaskServiceTestSuite) TestListTasksFiltersByStatusAndDueRange() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)

	suite.createTask("pendiente", admin, area)
	suite.createTask("completada", admin, area, func(t *models.Task) {
		t.Status = models.TaskStatusCompleted
	})
	far := suite.createTask("lejana", admin, area, func(t *models.Task) {
		t.DueDate = time.Now().AddDate(0, 2, 0)
	})

	status := models.TaskStatusCompleted
	_, total, err := suite.service.ListTasks(ListTasksInput{
		Actor: admin, Status: &status, Page: 1, PageSize: 50,
	})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)

	from := time.Now().AddDate(0, 1, 0)
	tasks, total, err := suite.service.ListTasks(ListTasksInput{
		Actor: admin, DueFrom: &from, Page: 1, PageSize: 50,
	})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Equal(far.ID, tasks[0].ID)
}

func (suite *TaskServiceTestSuite) TestGetTaskHidesInvisibleAsNotFound() {
	legales := suite.createArea("Legales")
	contable := suite.createArea("Contable")
	admin := suite.createUser("admin", models.RoleGerente, true)
	sup := suite.createUser("sup", models.RoleSupervisor, false, contable)
	maria := suite.createUser("maria", models.RoleUsuario, false, legales)

	task := suite.createTask("privada", admin, legales)

	_, err := suite.service.GetTask(task.ID, sup)
	suite.ErrorIs(err, ErrTaskNotVisible)

	// same area but neither creator nor assignee
	_, err = suite.service.GetTask(task.ID, maria)
	suite.ErrorIs(err, ErrTaskNotVisible)

	_, err = suite.service.GetTask(9999, admin)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskPermissions() {
	area := suite.createArea("Legales")
	maria := suite.createUser("maria", models.RoleUsuario, false, area)
	pedro := suite.createUser("pedro", models.RoleUsuario, false, area)

	task := suite.createTask("de maria", maria, area)

	_, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{
		Description: strPtr("intento ajeno"),
		Actor:       pedro,
	})
	suite.ErrorIs(err, ErrEditPermission)

	updated, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{
		Description: strPtr("actualizada"),
		Actor:       maria,
	})
	suite.Require().NoError(err)
	suite.Equal("actualizada", updated.Description)
	suite.Require().NotNil(updated.LastEditedByID)
	suite.Equal(maria.ID, *updated.LastEditedByID)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskRejectsEmptyTitle() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	task := suite.createTask("con título", admin, area)

	_, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{
		Title: strPtr("  "),
		Actor: admin,
	})
	suite.ErrorIs(err, ErrTitleEmpty)
}

func (suite *TaskServiceTestSuite) TestUpdateTaskReplacesAssignees() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	maria := suite.createUser("maria", models.RoleUsuario, false, area)
	pedro := suite.createUser("pedro", models.RoleUsuario, false, area)

	task := suite.createTask("asignable", admin, area)
	suite.Require().NoError(suite.db.Model(task).Association("Assignees").Append(maria))

	updated, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{
		AssigneeIDs: []uint64{pedro.ID},
		Actor:       admin,
	})
	suite.Require().NoError(err)
	suite.Require().Len(updated.Assignees, 1)
	suite.Equal(pedro.ID, updated.Assignees[0].ID)

	// explicit empty list clears the set
	cleared, err := suite.service.UpdateTask(task.ID, UpdateTaskInput{
		AssigneeIDs: []uint64{},
		Actor:       admin,
	})
	suite.Require().NoError(err)
	suite.Empty(cleared.Assignees)
}

func strPtr(s string) *string { return &s }

// TestTaskServiceTestSuite runs the test suite
func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
