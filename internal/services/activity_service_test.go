package services

import (
	"testing"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ActivityServiceTestSuite defines the test suite for ActivityService
type ActivityServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *ActivityService
}

// SetupTest runs before each test
func (suite *ActivityServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(&models.Area{}, &models.User{}, &models.ActivityLog{})
	suite.Require().NoError(err)

	suite.service = NewActivityService(repository.NewAuditRepository(suite.db), nil)
}

// TearDownTest runs after each test
func (suite *ActivityServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ActivityServiceTestSuite) createUser(username string) *models.User {
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed",
		FullName:     username,
		Role:         models.RoleUsuario,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

// Tests

func (suite *ActivityServiceTestSuite) TestRecordPersistsEntryWithDetails() {
	user := suite.createUser("maria")
	area := &models.Area{Name: "Legales"}
	suite.Require().NoError(suite.db.Create(area).Error)

	targetID := uint64(7)
	suite.service.Record(user.ID, "task_created", "creó la tarea \"x\"",
		"task", &targetID, &area.ID, map[string]interface{}{"from_area": 1})

	var entry models.ActivityLog
	suite.Require().NoError(suite.db.First(&entry).Error)
	suite.Equal("task_created", entry.Action)
	suite.Equal(user.ID, entry.UserID)
	suite.Require().NotNil(entry.TargetID)
	suite.EqualValues(7, *entry.TargetID)
	suite.JSONEq(`{"from_area":1}`, string(entry.Details))
}

func (suite *ActivityServiceTestSuite) TestListScopedByArea() {
	user := suite.createUser("maria")
	legales := &models.Area{Name: "Legales"}
	contable := &models.Area{Name: "Contable"}
	suite.Require().NoError(suite.db.Create(legales).Error)
	suite.Require().NoError(suite.db.Create(contable).Error)

	suite.service.Record(user.ID, "task_created", "a", "task", nil, &legales.ID, nil)
	suite.service.Record(user.ID, "task_edited", "b", "task", nil, &contable.ID, nil)

	entries, total, err := suite.service.List(ListActivityInput{
		Scope: Scope{AreaIDs: []uint64{legales.ID}}, Page: 1, PageSize: 50,
	})
	suite.Require().NoError(err)
	suite.EqualValues(1, total)
	suite.Require().Len(entries, 1)
	suite.Equal("task_created", entries[0].Action)
}

// TestActivityServiceTestSuite runs the test suite
func TestActivityServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ActivityServiceTestSuite))
}
