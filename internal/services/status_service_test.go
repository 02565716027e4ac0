package services

import (
	"testing"
	"time"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// StatusServiceTestSuite defines the test suite for StatusService
type StatusServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *StatusService
}

// SetupTest runs before each test
func (suite *StatusServiceTestSuite) SetupTest() {
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

	suite.service = NewStatusService(suite.db, nil)
}

// TearDownTest runs after each test
func (suite *StatusServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data

func (suite *StatusServiceTestSuite) createArea(name string) *models.Area {
	area := &models.Area{Name: name}
	suite.Require().NoError(suite.db.Create(area).Error)
	return area
}

func (suite *StatusServiceTestSuite) createUser(username string, role models.Role, isAdmin bool, areas ...*models.Area) *models.User {
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

func (suite *StatusServiceTestSuite) createTask(title string, creator *models.User, area *models.Area, mutate ...func(*models.Task)) *models.Task {
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

func (suite *StatusServiceTestSuite) assign(task *models.Task, user *models.User) {
	suite.Require().NoError(suite.db.Model(task).Association("Assignees").Append(user))
}

func (suite *StatusServiceTestSuite) reload(id uint64) *models.Task {
	var task models.Task
	suite.Require().NoError(suite.db.First(&task, id).Error)
	return &task
}

func (suite *StatusServiceTestSuite) change(task *models.Task, actor *models.User, status models.TaskStatus) (*StatusChangeResult, error) {
	return suite.service.ChangeStatus(ChangeStatusInput{
		TaskID:    task.ID,
		NewStatus: status,
		Actor:     actor,
	})
}

// Tests

func (suite *StatusServiceTestSuite) TestRejectsUnknownStatus() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	task := suite.createTask("t", admin, area)

	_, err := suite.change(task, admin, models.TaskStatus("Doing"))
	suite.ErrorIs(err, ErrInvalidStatus)
}

func (suite *StatusServiceTestSuite) TestScheduledCannotBeSetManually() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	task := suite.createTask("t", admin, area)

	_, err := suite.change(task, admin, models.TaskStatusScheduled)
	suite.ErrorIs(err, ErrInvalidTransition)
}

func (suite *StatusServiceTestSuite) TestBlockedTaskRejectsEveryTransition() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	parent := suite.createTask("parent", admin, area)
	child := suite.createTask("child", admin, area, func(t *models.Task) {
		t.ParentID = &parent.ID
		t.Enabled = false
	})

	for _, status := range []models.TaskStatus{
		models.TaskStatusInProgress,
		models.TaskStatusCompleted,
		models.TaskStatusAnulado,
		models.TaskStatusPending,
	} {
		_, err := suite.change(child, admin, status)
		suite.ErrorIs(err, ErrTaskBlocked, "status %s", status)
	}
}

func (suite *StatusServiceTestSuite) TestInProgressStampsFirstActorOnly() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	other := suite.createUser("admin2", models.RoleGerente, true)
	task := suite.createTask("t", admin, area)

	_, err := suite.change(task, admin, models.TaskStatusInProgress)
	suite.Require().NoError(err)
	got := suite.reload(task.ID)
	suite.Require().NotNil(got.StartedByID)
	suite.Equal(admin.ID, *got.StartedByID)
	firstStart := *got.StartedAt

	// Going back to review and in progress again keeps the original stamp.
	_, err = suite.change(task, other, models.TaskStatusInReview)
	suite.Require().NoError(err)
	_, err = suite.change(task, other, models.TaskStatusInProgress)
	suite.Require().NoError(err)

	got = suite.reload(task.ID)
	suite.Equal(admin.ID, *got.StartedByID)
	suite.WithinDuration(firstStart, *got.StartedAt, time.Second)
}

func (suite *StatusServiceTestSuite) TestApprovalCreditSplit() {
	area := suite.createArea("Legales")
	worker := suite.createUser("worker", models.RoleUsuario, false, area)
	supervisor := suite.createUser("super", models.RoleSupervisor, false, area)
	task := suite.createTask("t", supervisor, area)
	suite.assign(task, worker)

	_, err := suite.change(task, worker, models.TaskStatusInProgress)
	suite.Require().NoError(err)
	_, err = suite.change(task, worker, models.TaskStatusInReview)
	suite.Require().NoError(err)
	_, err = suite.change(task, supervisor, models.TaskStatusCompleted)
	suite.Require().NoError(err)

	got := suite.reload(task.ID)
	suite.Require().NotNil(got.CompletedByID)
	suite.Require().NotNil(got.ApprovedByID)
	suite.Equal(worker.ID, *got.CompletedByID, "completion credit stays with the submitter")
	suite.Equal(supervisor.ID, *got.ApprovedByID)
	suite.NotNil(got.ApprovedAt)
}

func (suite *StatusServiceTestSuite) TestSelfCompletionHasNoApprover() {
	area := suite.createArea("Legales")
	supervisor := suite.createUser("super", models.RoleSupervisor, false, area)
	task := suite.createTask("t", supervisor, area)

	_, err := suite.change(task, supervisor, models.TaskStatusInReview)
	suite.Require().NoError(err)
	_, err = suite.change(task, supervisor, models.TaskStatusCompleted)
	suite.Require().NoError(err)

	got := suite.reload(task.ID)
	suite.Equal(supervisor.ID, *got.CompletedByID)
	suite.Nil(got.ApprovedByID)
	suite.Nil(got.ApprovedAt)
}

func (suite *StatusServiceTestSuite) TestTerminalBlocksForwardButAllowsReopen() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	task := suite.createTask("t", admin, area)

	_, err := suite.change(task, admin, models.TaskStatusCompleted)
	suite.Require().NoError(err)

	_, err = suite.change(task, admin, models.TaskStatusInProgress)
	suite.ErrorIs(err, ErrInvalidTransition)
	_, err = suite.change(task, admin, models.TaskStatusCompleted)
	suite.ErrorIs(err, ErrInvalidTransition)

	// Reopening is allowed and clears every tracking field.
	_, err = suite.change(task, admin, models.TaskStatusPending)
	suite.Require().NoError(err)

	got := suite.reload(task.ID)
	suite.Equal(models.TaskStatusPending, got.Status)
	suite.Nil(got.StartedAt)
	suite.Nil(got.StartedByID)
	suite.Nil(got.InReviewAt)
	suite.Nil(got.InReviewByID)
	suite.Nil(got.CompletedAt)
	suite.Nil(got.CompletedByID)
	suite.Nil(got.ApprovedAt)
	suite.Nil(got.ApprovedByID)
}

func (suite *StatusServiceTestSuite) TestCompletionEnablesChildrenAndResetsOverdueDueDate() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	parent := suite.createTask("parent", admin, area)
	overdue := time.Now().Add(-72 * time.Hour)
	child := suite.createTask("child", admin, area, func(t *models.Task) {
		t.ParentID = &parent.ID
		t.Enabled = false
		t.DueDate = overdue
	})
	future := suite.createTask("child2", admin, area, func(t *models.Task) {
		t.ParentID = &parent.ID
		t.Enabled = false
	})

	_, err := suite.change(parent, admin, models.TaskStatusCompleted)
	suite.Require().NoError(err)

	got := suite.reload(child.ID)
	suite.True(got.Enabled)
	suite.Require().NotNil(got.EnabledByTaskID)
	suite.Equal(parent.ID, *got.EnabledByTaskID)
	suite.Require().NotNil(got.OriginalDueDate)
	suite.WithinDuration(overdue, *got.OriginalDueDate, time.Second)
	suite.True(got.DueDate.After(overdue))

	// A child still within its deadline keeps it untouched.
	got2 := suite.reload(future.ID)
	suite.True(got2.Enabled)
	suite.Nil(got2.OriginalDueDate)
}

func (suite *StatusServiceTestSuite) TestAnnulCascadesOverWholeSubtree() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	root := suite.createTask("root", admin, area)
	child := suite.createTask("child", admin, area, func(t *models.Task) {
		t.ParentID = &root.ID
		t.Enabled = false
	})
	grandchild := suite.createTask("grandchild", admin, area, func(t *models.Task) {
		t.ParentID = &child.ID
		t.Enabled = false
	})
	done := suite.createTask("done", admin, area, func(t *models.Task) {
		t.ParentID = &root.ID
		t.Status = models.TaskStatusCompleted
	})

	result, err := suite.change(root, admin, models.TaskStatusAnulado)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusAnulado, result.NewStatus)

	for _, id := range []uint64{root.ID, child.ID, grandchild.ID, done.ID} {
		got := suite.reload(id)
		suite.Equal(models.TaskStatusAnulado, got.Status, "task %d", id)
		suite.False(got.Enabled)
	}

	// One transition row per annulled task.
	var count int64
	suite.db.Model(&models.StatusTransition{}).Where("to_status = ?", models.TaskStatusAnulado).Count(&count)
	suite.EqualValues(4, count)
}

func (suite *StatusServiceTestSuite) TestUsuarioCannotTouchOthersTasks() {
	area := suite.createArea("Legales")
	supervisor := suite.createUser("super", models.RoleSupervisor, false, area)
	outsider := suite.createUser("outsider", models.RoleUsuario, false, area)
	task := suite.createTask("t", supervisor, area)

	_, err := suite.change(task, outsider, models.TaskStatusInProgress)
	suite.ErrorIs(err, ErrStatusPermission)
}

func (suite *StatusServiceTestSuite) TestUsuarioCannotAnnulOwnTask() {
	area := suite.createArea("Legales")
	user := suite.createUser("user", models.RoleUsuarioPlus, false, area)
	task := suite.createTask("t", user, area)

	_, err := suite.change(task, user, models.TaskStatusAnulado)
	suite.ErrorIs(err, ErrStatusPermission)

	// But completing their own task is fine.
	_, err = suite.change(task, user, models.TaskStatusCompleted)
	suite.NoError(err)
}

func (suite *StatusServiceTestSuite) TestSupervisorScopedToOwnAreas() {
	area := suite.createArea("Legales")
	otherArea := suite.createArea("Contable")
	supervisor := suite.createUser("super", models.RoleSupervisor, false, area)
	admin := suite.createUser("admin", models.RoleGerente, true)
	foreign := suite.createTask("t", admin, otherArea)

	_, err := suite.change(foreign, supervisor, models.TaskStatusInProgress)
	suite.ErrorIs(err, ErrStatusPermission)

	local := suite.createTask("t2", admin, area)
	_, err = suite.change(local, supervisor, models.TaskStatusInProgress)
	suite.NoError(err)
}

func (suite *StatusServiceTestSuite) TestGerenteWithoutAdminFlagCannotChangeStatus() {
	area := suite.createArea("Legales")
	gerente := suite.createUser("gerente", models.RoleGerente, false, area)
	admin := suite.createUser("admin", models.RoleGerente, true)
	task := suite.createTask("t", admin, area)

	_, err := suite.change(task, gerente, models.TaskStatusInProgress)
	suite.ErrorIs(err, ErrStatusPermission)
}

func (suite *StatusServiceTestSuite) TestCompletingLastTaskCompletesProcess() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	pt := &models.ProcessType{Name: "Sucesión", AreaID: area.ID, CreatedByID: admin.ID, IsActive: true}
	suite.Require().NoError(suite.db.Create(pt).Error)
	process := &models.Process{
		ProcessTypeID: pt.ID,
		Name:          "Sucesión Pérez",
		Status:        models.ProcessStatusActive,
		AreaID:        area.ID,
		DueDate:       time.Now().Add(720 * time.Hour),
		CreatedByID:   admin.ID,
	}
	suite.Require().NoError(suite.db.Create(process).Error)

	first := suite.createTask("first", admin, area, func(t *models.Task) { t.ProcessID = &process.ID })
	second := suite.createTask("second", admin, area, func(t *models.Task) { t.ProcessID = &process.ID })

	result, err := suite.change(first, admin, models.TaskStatusCompleted)
	suite.Require().NoError(err)
	suite.False(result.ProcessCompleted, "open tasks remain")

	result, err = suite.change(second, admin, models.TaskStatusCompleted)
	suite.Require().NoError(err)
	suite.True(result.ProcessCompleted)

	var got models.Process
	suite.Require().NoError(suite.db.First(&got, process.ID).Error)
	suite.Equal(models.ProcessStatusCompleted, got.Status)
	suite.NotNil(got.CompletedAt)
}

func (suite *StatusServiceTestSuite) TestAnulladoCountsAsClosedForProcess() {
	area := suite.createArea("Legales")
	admin := suite.createUser("admin", models.RoleGerente, true)
	pt := &models.ProcessType{Name: "Sucesión", AreaID: area.ID, CreatedByID: admin.ID, IsActive: true}
	suite.Require().NoError(suite.db.Create(pt).Error)
	process := &models.Process{
		ProcessTypeID: pt.ID,
		Name:          "Sucesión Gómez",
		Status:        models.ProcessStatusActive,
		AreaID:        area.ID,
		DueDate:       time.Now().Add(720 * time.Hour),
		CreatedByID:   admin.ID,
	}
	suite.Require().NoError(suite.db.Create(process).Error)

	keep := suite.createTask("keep", admin, area, func(t *models.Task) { t.ProcessID = &process.ID })
	drop := suite.createTask("drop", admin, area, func(t *models.Task) { t.ProcessID = &process.ID })

	_, err := suite.change(drop, admin, models.TaskStatusAnulado)
	suite.Require().NoError(err)

	result, err := suite.change(keep, admin, models.TaskStatusCompleted)
	suite.Require().NoError(err)
	suite.True(result.ProcessCompleted, "annulled tasks do not block completion")
}

func TestStatusServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatusServiceTestSuite))
}
