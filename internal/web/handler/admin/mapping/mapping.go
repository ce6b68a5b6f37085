// Package mapping provides admin CRUD handlers for group to role mappings.
// The mapped Azure AD group object IDs form the candidate set that the
// membership resolver checks against the directory at login.
package mapping

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/auth"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/config"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/db/models"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/handler"
)

const (
	// Path is the base path for group mapping management.
	Path = handler.RootPath + "admin/mapping"

	// RouteUpdate is the route for updating an existing mapping.
	RouteUpdate = Path + "/:id"
	// RouteDelete is the route for deleting a mapping.
	RouteDelete = Path + "/:id"

	// RoleAdmin is the role required to manage mappings.
	RoleAdmin = "admin"

	// ErrInvalidID is returned when the provided id parameter is invalid or non-positive.
	ErrInvalidID = "Invalid id"
	// ErrMappingNotFound is returned when a mapping with the given id does not exist.
	ErrMappingNotFound = "Mapping not found"
	// ErrRoleNotFound is returned when the referenced role does not exist.
	ErrRoleNotFound = "Role not found"
	// ErrFailedLoadMappings indicates an unexpected error occurred while loading mappings.
	ErrFailedLoadMappings = "Failed to load mappings"
	// ErrFailedCreateMapping indicates the create operation failed, e.g. a duplicate group id.
	ErrFailedCreateMapping = "Failed to create mapping (group id already mapped?)"
	// ErrFailedUpdateMapping indicates the update operation failed.
	ErrFailedUpdateMapping = "Failed to update mapping (group id already mapped?)"
	// ErrFailedDeleteMapping indicates the delete operation failed.
	ErrFailedDeleteMapping = "Failed to delete mapping"
	// ErrValidationPrefix prefixes validation error messages shown to the user.
	ErrValidationPrefix = "Validation failed: "
)

// Service provides CRUD operations for group mappings.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.validator = validator.New()

	// Routes
	app.Get(Path,
		auth.RequireRole(authService, RoleAdmin),
		s.List,
	)
	app.Post(Path,
		auth.RequireRole(authService, RoleAdmin),
		s.Create,
	)
	app.Put(RouteUpdate,
		auth.RequireRole(authService, RoleAdmin),
		s.Update,
	)
	app.Delete(RouteDelete,
		auth.RequireRole(authService, RoleAdmin),
		s.Delete,
	)
}

// List returns all mappings with their roles.
func (s *Service) List(c *fiber.Ctx) error {
	var mappings []models.GroupMapping
	if err := s.db.Preload("Role").Order("id ASC").Find(&mappings).Error; err != nil {
		log.Error().Err(err).Msg("query mappings failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrFailedLoadMappings})
	}

	return c.JSON(mappings)
}

// Create adds a new group to role mapping.
func (s *Service) Create(c *fiber.Ctx) error {
	var input formInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := s.validator.Struct(input); err != nil {
		log.Warn().Err(err).Msg("validation failed for create mapping")

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrValidationPrefix + err.Error()})
	}

	var role models.Role
	if err := s.db.First(&role, input.RoleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrRoleNotFound})
		}

		log.Error().Err(err).Msg("load role failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrFailedCreateMapping})
	}

	m := models.GroupMapping{
		GroupID:   input.GroupID,
		GroupName: input.GroupName,
		RoleID:    input.RoleID,
	}

	if err := s.db.Create(&m).Error; err != nil {
		log.Error().Err(err).Msg("create mapping failed")

		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrFailedCreateMapping})
	}

	log.Info().Str("group_id", m.GroupID).Str("role", role.Name).Msg("group mapping created")

	return c.Status(fiber.StatusCreated).JSON(m)
}

// Update changes an existing mapping.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	var input formInput
	if err = c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err = s.validator.Struct(input); err != nil {
		log.Warn().Err(err).Msg("validation failed for update mapping")

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrValidationPrefix + err.Error()})
	}

	var m models.GroupMapping
	if err = s.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrMappingNotFound})
		}

		log.Error().Err(err).Msg("load mapping failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrFailedUpdateMapping})
	}

	m.GroupID = input.GroupID
	m.GroupName = input.GroupName
	m.RoleID = input.RoleID

	if err = s.db.Save(&m).Error; err != nil {
		log.Error().Err(err).Msg("update mapping failed")

		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": ErrFailedUpdateMapping})
	}

	return c.JSON(m)
}

// Delete removes a mapping. Roles granted through it disappear from new
// sessions at the next login.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidID})
	}

	result := s.db.Delete(&models.GroupMapping{}, id)
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("delete mapping failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": ErrFailedDeleteMapping})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrMappingNotFound})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
