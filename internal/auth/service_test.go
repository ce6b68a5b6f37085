package auth

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/db/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// one connection so the in-memory database is shared
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.GroupMapping{},
		&models.UserRole{},
	))

	return db
}

func seedRolesAndMappings(t *testing.T, db *gorm.DB) (admin, viewer models.Role) {
	t.Helper()

	admin = models.Role{Name: "admin", IsSystem: true}
	viewer = models.Role{Name: "viewer"}

	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&viewer).Error)

	require.NoError(t, db.Create(&models.GroupMapping{
		GroupID:   "aaaaaaaa-0000-0000-0000-000000000001",
		GroupName: "App Admins",
		RoleID:    admin.ID,
	}).Error)
	require.NoError(t, db.Create(&models.GroupMapping{
		GroupID:   "aaaaaaaa-0000-0000-0000-000000000002",
		GroupName: "App Viewers",
		RoleID:    viewer.ID,
	}).Error)

	return admin, viewer
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()

	user := models.User{
		Active:     true,
		Username:   "alice@example.com",
		Email:      "alice@example.com",
		ExternalID: "sub-alice",
	}
	require.NoError(t, db.Create(&user).Error)

	return user
}

func TestSyncUserRolesReplacesGrants(t *testing.T) {
	db := testDB(t)
	admin, viewer := seedRolesAndMappings(t, db)
	user := seedUser(t, db)

	svc := NewService(db)

	require.NoError(t, svc.SyncUserRoles(user.ID, []uint{admin.ID}))

	roles, err := svc.GetUserRoles(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"admin"}, roles)

	// A later sync replaces the previous grants wholesale.
	require.NoError(t, svc.SyncUserRoles(user.ID, []uint{viewer.ID}))

	roles, err = svc.GetUserRoles(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"viewer"}, roles)

	// Syncing the empty set removes everything.
	require.NoError(t, svc.SyncUserRoles(user.ID, nil))

	roles, err = svc.GetUserRoles(user.ID)
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestHasRole(t *testing.T) {
	db := testDB(t)
	admin, _ := seedRolesAndMappings(t, db)
	user := seedUser(t, db)

	svc := NewService(db)
	require.NoError(t, svc.SyncUserRoles(user.ID, []uint{admin.ID}))

	has, err := svc.HasRole(user.ID, "admin")
	require.NoError(t, err)
	require.True(t, has)

	has, err = svc.HasRole(user.ID, "viewer")
	require.NoError(t, err)
	require.False(t, has)

	has, err = svc.HasAnyRole(user.ID, []string{"viewer", "admin"})
	require.NoError(t, err)
	require.True(t, has)

	has, err = svc.HasAnyRole(user.ID, nil)
	require.NoError(t, err)
	require.False(t, has)
}

func TestCandidateGroupIDs(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	// No mappings configured yet.
	ids, err := svc.CandidateGroupIDs()
	require.NoError(t, err)
	require.Empty(t, ids)

	seedRolesAndMappings(t, db)

	ids, err = svc.CandidateGroupIDs()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"aaaaaaaa-0000-0000-0000-000000000001",
		"aaaaaaaa-0000-0000-0000-000000000002",
	}, ids)
}

func TestRolesForGroups(t *testing.T) {
	db := testDB(t)
	_, viewer := seedRolesAndMappings(t, db)

	svc := NewService(db)

	roles, err := svc.RolesForGroups(nil)
	require.NoError(t, err)
	require.Empty(t, roles)

	roles, err = svc.RolesForGroups([]string{"aaaaaaaa-0000-0000-0000-000000000002"})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, viewer.ID, roles[0].ID)
	require.Equal(t, "viewer", roles[0].Name)

	// Unmapped groups yield no roles.
	roles, err = svc.RolesForGroups([]string{"ffffffff-0000-0000-0000-000000000000"})
	require.NoError(t, err)
	require.Empty(t, roles)
}
