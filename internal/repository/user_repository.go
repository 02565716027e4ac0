package repository

import (
	"github.com/estudio-tools/workflow-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID, with area memberships loaded
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Areas").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username, with area memberships loaded
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Areas").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users visible under the given area scope
func (r *GormUserRepository) List(allAreas bool, areaIDs []uint64) ([]models.User, error) {
	var users []models.User

	query := r.db.Preload("Areas").Order("username ASC")
	if !allAreas {
		if len(areaIDs) == 0 {
			return []models.User{}, nil
		}
		sub := r.db.
			Select("1").
			Table("user_areas").
			Where("user_areas.user_id = users.id").
			Where("user_areas.area_id IN ?", areaIDs)
		query = query.Where("EXISTS (?)", sub)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountMembersByIDs counts how many of the given users belong to the area
func (r *GormUserRepository) CountMembersByIDs(userIDs []uint64, areaID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Joins("JOIN user_areas ON users.id = user_areas.user_id").
		Where("user_areas.area_id = ? AND users.id IN ?", areaID, userIDs).
		Count(&count).Error
	return count, err
}

// ReplaceAreas replaces the user's area memberships
func (r *GormUserRepository) ReplaceAreas(user *models.User, areas []models.Area) error {
	return r.db.Model(user).Association("Areas").Replace(areas)
}
