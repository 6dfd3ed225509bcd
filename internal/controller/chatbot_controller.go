package controller

import (
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/pkg/serverutils"
	"chatrelay-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const settingsPasswordHeader = "X-Settings-Password"

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Rename(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	UpdateSettings(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	jwt     fiber.Handler
}

func NewChatbotController(service service.IChatbotService, jwt fiber.Handler) IChatbotController {
	return &chatbotController{service: service, jwt: jwt}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbot/v1")
	h.Use(c.jwt)
	h.Post("", c.Create)
	h.Put(":id", c.Rename)
	h.Delete(":id", c.Delete)
	h.Put(":id/settings", c.UpdateSettings)
	h.Post(":id/sessions", c.CreateSession)
	h.Put(":id/sessions/:sessionId", c.RenameSession)
	h.Delete(":id/sessions/:sessionId", c.DeleteSession)
	h.Post(":id/messages", c.SendMessage)
}

func (c *chatbotController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateChatbotRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.CurrentSession(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chatbot", res))
}

func (c *chatbotController) Rename(ctx *fiber.Ctx) error {
	var req dto.RenameChatbotRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Rename(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success rename chatbot", res))
}

func (c *chatbotController) Delete(ctx *fiber.Ctx) error {
	res, err := c.service.Delete(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete chatbot", res))
}

func (c *chatbotController) UpdateSettings(ctx *fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateSettings(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Params("id"), ctx.Get(settingsPasswordHeader), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update settings", res))
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.ErrBadRequest
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatbotController) RenameSession(ctx *fiber.Ctx) error {
	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RenameSession(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Params("id"), ctx.Params("sessionId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success rename session", res))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	res, err := c.service.DeleteSession(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Params("id"), ctx.Params("sessionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete session", res))
}

func (c *chatbotController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), serverutils.CurrentSession(ctx), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}
