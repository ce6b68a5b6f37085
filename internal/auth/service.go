package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/db/models"
)

// Service provides role-based authorization backed by the synchronized role
// grants in the database.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HasRole checks if a user currently holds a specific role.
func (s *Service) HasRole(userID uint64, role string) (bool, error) {
	var count int64

	err := s.db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}

	return count > 0, nil
}

// HasAnyRole checks if a user holds at least one of the given roles.
func (s *Service) HasAnyRole(userID uint64, roles []string) (bool, error) {
	if len(roles) == 0 {
		return false, nil
	}

	var count int64

	err := s.db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.name IN ?", userID, roles).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check roles: %w", err)
	}

	return count > 0, nil
}

// GetUserRoles retrieves the names of all roles granted to a user.
func (s *Service) GetUserRoles(userID uint64) ([]string, error) {
	var roles []string

	err := s.db.Table("roles").
		Select("DISTINCT roles.name").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.name", &roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	return roles, nil
}

// SyncUserRoles replaces a user's role grants with the given set.
// This is called after every successful membership resolution so grants always
// reflect the directory state at session start. Old grants are removed even
// when the new set is empty.
func (s *Service) SyncUserRoles(userID uint64, roleIDs []uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("failed to remove old role grants: %w", err)
		}

		for _, roleID := range roleIDs {
			if err := tx.Create(&models.UserRole{
				UserID: userID,
				RoleID: roleID,
			}).Error; err != nil {
				return fmt.Errorf("failed to grant role: %w", err)
			}
		}

		return nil
	})
}

// CandidateGroupIDs returns the Azure AD group object IDs of all configured
// mappings. This is the candidate set handed to the directory membership check.
func (s *Service) CandidateGroupIDs() ([]string, error) {
	var ids []string

	err := s.db.Model(&models.GroupMapping{}).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load group mappings: %w", err)
	}

	return ids, nil
}

// RolesForGroups returns the roles mapped from the given Azure AD group IDs.
func (s *Service) RolesForGroups(groupIDs []string) ([]models.Role, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	var roles []models.Role

	err := s.db.Table("roles").
		Distinct("roles.*").
		Joins("JOIN group_mappings ON group_mappings.role_id = roles.id").
		Where("group_mappings.group_id IN ?", groupIDs).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to map groups to roles: %w", err)
	}

	return roles, nil
}
