package controller

import (
	"chatrelay-be/internal/dto"
	"chatrelay-be/internal/pkg/serverutils"
	"chatrelay-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	SignUp(ctx *fiber.Ctx) error
	SignIn(ctx *fiber.Ctx) error
	SignOut(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
	jwt     fiber.Handler
}

func NewAuthController(service service.IAuthService, jwt fiber.Handler) IAuthController {
	return &authController{service: service, jwt: jwt}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/v1")
	h.Post("/sign-up", c.SignUp)
	h.Post("/sign-in", c.SignIn)
	h.Post("/confirm", c.Confirm)
	h.Post("/sign-out", c.jwt, c.SignOut)
	h.Get("/session", c.jwt, c.Session)
}

func (c *authController) SignUp(ctx *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SignUp(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	message := "Account created"
	if res.Session == nil {
		message = "Account created. Confirm it before signing in."
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *authController) SignIn(ctx *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SignIn(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Signed in", res))
}

func (c *authController) Confirm(ctx *fiber.Ctx) error {
	var req dto.ConfirmRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.Confirm(ctx.UserContext(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Account confirmed", nil))
}

func (c *authController) SignOut(ctx *fiber.Ctx) error {
	token, _ := ctx.Locals(serverutils.LocalToken).(string)
	if err := c.service.SignOut(ctx.UserContext(), token); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Signed out", nil))
}

func (c *authController) Session(ctx *fiber.Ctx) error {
	token, _ := ctx.Locals(serverutils.LocalToken).(string)
	res, err := c.service.Session(ctx.UserContext(), token)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}
