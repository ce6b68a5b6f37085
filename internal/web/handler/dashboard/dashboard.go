// Package dashboard provides the landing page for authenticated users. It
// reports the current identity together with the roles resolved from
// directory group membership at login.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/config"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/handler"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/session"
)

// Path is the path to the dashboard page.
const Path = handler.RootPath + "dashboard"

// Data is the dashboard response payload.
type Data struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	app.Get(Path, s.Get)
}

// Get returns the current user and the roles attached to the session.
func (s *Service) Get(c *fiber.Ctx) error {
	sessionData := new(session.Data)
	if err := sessionData.Read(c.Cookies("session")); err != nil || sessionData.User.ID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	roles := sessionData.Roles
	if roles == nil {
		roles = []string{}
	}

	return c.JSON(Data{
		Username:  sessionData.User.Username,
		Email:     sessionData.User.Email,
		FirstName: sessionData.User.FirstName,
		LastName:  sessionData.User.LastName,
		Roles:     roles,
	})
}
