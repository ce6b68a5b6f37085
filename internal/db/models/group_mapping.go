package models

import "time"

// GroupMapping maps an Azure AD group to an application role.
// The set of mapped group object IDs is also the candidate set handed to the
// directory membership check: only groups that appear here are ever queried,
// and a matched group grants the mapped role for the session.
type GroupMapping struct {
	// ID is the unique identifier for the group mapping.
	ID uint `gorm:"primaryKey"`
	// GroupID is the Azure AD group object ID (a GUID string).
	// Enforced unique to ensure a group maps to exactly one role.
	GroupID string `gorm:"size:36;not null;uniqueIndex"`
	// GroupName is an optional display name for the group, for operators.
	GroupName string `gorm:"size:255"`
	// RoleID is the ID of the role that group members will receive.
	RoleID uint `gorm:"not null"`
	// Role is the associated role (loaded via foreign key).
	// When a role is deleted, all its group mappings are automatically removed (CASCADE).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the mapping was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the mapping was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the GroupMapping model.
// This overrides GORM's default pluralized table naming.
func (GroupMapping) TableName() string {
	return "group_mappings"
}
