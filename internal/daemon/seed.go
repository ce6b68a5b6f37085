package daemon

import (
	"gorm.io/gorm"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/config"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/db/models"
)

func seed(_ *config.Config, db *gorm.DB) {
	// Seed default roles if the role table is empty. Users are provisioned
	// from Azure AD on first login and get roles through group mappings.

	var count int64
	db.Model(&models.Role{}).Count(&count)

	if count == 0 {
		db.Create(&models.Role{
			Name:        "admin",
			Description: "Full administrative access including group mapping management",
		})
		db.Create(&models.Role{
			Name:        "user",
			Description: "Standard access for authenticated users",
		})
	}
}
