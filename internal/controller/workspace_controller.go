package controller

import (
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/pkg/serverutils"
	"chatrelay-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWorkspaceController interface {
	RegisterRoutes(r fiber.Router)
	Get(ctx *fiber.Ctx) error
	Reload(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
}

type workspaceController struct {
	service service.IWorkspaceService
	jwt     fiber.Handler
}

func NewWorkspaceController(service service.IWorkspaceService, jwt fiber.Handler) IWorkspaceController {
	return &workspaceController{service: service, jwt: jwt}
}

func (c *workspaceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/workspace/v1")
	h.Use(c.jwt)
	h.Get("", c.Get)
	h.Post("/reload", c.Reload)
	h.Put("/active", c.Select)
}

// Get loads the workspace if needed. The bot and session query parameters
// select the active chatbot and session.
func (c *workspaceController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Query("bot"), ctx.Query("session"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get workspace", res))
}

func (c *workspaceController) Reload(ctx *fiber.Ctx) error {
	res, err := c.service.Reload(ctx.UserContext(), serverutils.CurrentSession(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reload workspace", res))
}

func (c *workspaceController) Select(ctx *fiber.Ctx) error {
	var req dto.SelectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Select(ctx.UserContext(), serverutils.CurrentSession(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success select", res))
}
