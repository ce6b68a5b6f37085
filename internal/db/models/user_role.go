package models

import "time"

// UserRole represents the roles currently granted to a user.
// Role grants are not managed by operators: they are recomputed from directory
// group membership on every new session and replaced wholesale.
type UserRole struct {
	// UserID is the ID of the user in this grant.
	UserID uint64 `gorm:"primaryKey;column:user_id"`
	// RoleID is the ID of the granted role.
	RoleID uint `gorm:"primaryKey;column:role_id"`
	// User is the associated user (loaded via foreign key).
	// When a user is deleted, all their role grants are automatically removed (CASCADE).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	// When a role is deleted, all grants of that role are automatically removed (CASCADE).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was granted (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserRole model.
// This overrides GORM's default pluralized table naming.
func (UserRole) TableName() string {
	return "user_roles"
}
