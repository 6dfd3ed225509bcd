package controller

import (
	"chatrelay-be/internal/pkg/serverutils"
	"chatrelay-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Database(ctx *fiber.Ctx) error
}

type healthController struct {
	service service.IWorkspaceService
}

func NewHealthController(service service.IWorkspaceService) IHealthController {
	return &healthController{service: service}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/health/v1")
	h.Get("/database", c.Database)
}

// Database reports per-table diagnostics. It answers 503 when any table is
// missing or inaccessible.
func (c *healthController) Database(ctx *fiber.Ctx) error {
	report := c.service.Health(ctx.UserContext())
	if !report.Success {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"code":    fiber.StatusServiceUnavailable,
			"message": "Database Setup Issue",
			"data":    report,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Database healthy", report))
}
