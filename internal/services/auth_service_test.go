package services

import (
	"testing"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AuthServiceTestSuite defines the test suite for AuthService
type AuthServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AuthService
}

// SetupTest runs before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(&models.Area{}, &models.User{})
	suite.Require().NoError(err)

	suite.service = NewAuthService(
		repository.NewUserRepository(suite.db),
		repository.NewAreaRepository(suite.db),
	)
}

// TearDownTest runs after each test
func (suite *AuthServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *AuthServiceTestSuite) createArea(name string) *models.Area {
	area := &models.Area{Name: name}
	suite.Require().NoError(suite.db.Create(area).Error)
	return area
}

// Tests

func (suite *AuthServiceTestSuite) TestCreateUserAndLogin() {
	area := suite.createArea("Legales")

	user, err := suite.service.CreateUser(CreateUserInput{
		Username: "mlopez",
		Email:    "mlopez@example.com",
		Password: "password123",
		FullName: "María López",
		Role:     models.RoleSupervisor,
		AreaIDs:  []uint64{area.ID},
	})
	suite.Require().NoError(err)
	suite.Equal("mlopez", user.Username)
	suite.Equal(models.RoleSupervisor, user.Role)
	suite.NotEqual("password123", user.PasswordHash)
	suite.Require().Len(user.Areas, 1)
	suite.Equal("Legales", user.Areas[0].Name)

	logged, err := suite.service.Login(LoginInput{Username: "mlopez", Password: "password123"})
	suite.Require().NoError(err)
	suite.Equal(user.ID, logged.ID)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	_, err := suite.service.CreateUser(CreateUserInput{
		Username: "mlopez",
		Email:    "mlopez@example.com",
		Password: "password123",
		FullName: "María López",
	})
	suite.Require().NoError(err)

	_, err = suite.service.Login(LoginInput{Username: "mlopez", Password: "wrong"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestLoginUnknownUsername() {
	_, err := suite.service.Login(LoginInput{Username: "nadie", Password: "whatever"})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestCreateUserRejectsShortPassword() {
	_, err := suite.service.CreateUser(CreateUserInput{
		Username: "corto",
		Email:    "corto@example.com",
		Password: "abc",
		FullName: "Corto",
	})
	suite.ErrorIs(err, ErrPasswordTooShort)
}

func (suite *AuthServiceTestSuite) TestCreateUserRejectsDuplicateUsername() {
	_, err := suite.service.CreateUser(CreateUserInput{
		Username: "mlopez",
		Email:    "a@example.com",
		Password: "password123",
		FullName: "Primera",
	})
	suite.Require().NoError(err)

	_, err = suite.service.CreateUser(CreateUserInput{
		Username: "mlopez",
		Email:    "b@example.com",
		Password: "password123",
		FullName: "Segunda",
	})
	suite.ErrorIs(err, ErrUsernameTaken)
}

func (suite *AuthServiceTestSuite) TestCreateUserDefaultsToUsuario() {
	user, err := suite.service.CreateUser(CreateUserInput{
		Username: "simple",
		Email:    "simple@example.com",
		Password: "password123",
		FullName: "Simple",
	})
	suite.Require().NoError(err)
	suite.Equal(models.RoleUsuario, user.Role)
	suite.False(user.IsAdmin)
}

func (suite *AuthServiceTestSuite) TestListUsersScoped() {
	legales := suite.createArea("Legales")
	contable := suite.createArea("Contable")

	_, err := suite.service.CreateUser(CreateUserInput{
		Username: "leg", Email: "leg@example.com", Password: "password123",
		FullName: "Leg", AreaIDs: []uint64{legales.ID},
	})
	suite.Require().NoError(err)
	_, err = suite.service.CreateUser(CreateUserInput{
		Username: "con", Email: "con@example.com", Password: "password123",
		FullName: "Con", AreaIDs: []uint64{contable.ID},
	})
	suite.Require().NoError(err)

	all, err := suite.service.ListUsers(Scope{All: true})
	suite.Require().NoError(err)
	suite.Len(all, 2)

	scoped, err := suite.service.ListUsers(Scope{AreaIDs: []uint64{legales.ID}})
	suite.Require().NoError(err)
	suite.Require().Len(scoped, 1)
	suite.Equal("leg", scoped[0].Username)
}

// TestAuthServiceTestSuite runs the test suite
func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
