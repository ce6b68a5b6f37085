package mapping

type formInput struct {
	// GroupID must be a GUID but no particular UUID version: Azure AD does
	// not guarantee a version nibble on object IDs.
	GroupID   string `json:"groupId"   validate:"required,uuid"`
	GroupName string `json:"groupName" validate:"max=255"`
	RoleID    uint   `json:"roleId"    validate:"required"`
}
