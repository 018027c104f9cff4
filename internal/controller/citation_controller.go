package controller

import (
	"ai-writing-be/internal/dto"
	"ai-writing-be/internal/pkg/serverutils"
	"ai-writing-be/internal/service"
	"ai-writing-be/pkg/citation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ICitationController interface {
	RegisterRoutes(r fiber.Router)
	Quick(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Convert(ctx *fiber.Ctx) error
	StartSession(ctx *fiber.Ctx) error
	SessionStatus(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	Styles(ctx *fiber.Ctx) error
}

type citationController struct {
	service service.ICitationService
	auth    fiber.Handler
}

func NewCitationController(service service.ICitationService, auth fiber.Handler) ICitationController {
	return &citationController{service: service, auth: auth}
}

func (c *citationController) RegisterRoutes(r fiber.Router) {
	r.Get("/citation", c.Quick)

	h := r.Group("/citation/v1")
	h.Use(c.auth)
	h.Get("/styles", c.Styles)
	h.Post("/sessions", c.StartSession)
	h.Get("/sessions/:historyId", c.SessionStatus)
	h.Get("/history/:historyId", c.GetHistory)
	h.Post("", c.Create)
	h.Post("/convert", c.Convert)
	h.Get("/:citeId", c.Show)
}

// Quick serves the public resolver endpoint. Every failure is a 400 with a
// plain-language message.
func (c *citationController) Quick(ctx *fiber.Ctx) error {
	res, err := c.service.Quick(ctx.UserContext(), ctx.Query("doi"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(dto.QuickCitationError{Error: citation.UserMessage(err)})
	}
	return ctx.JSON(res)
}

func (c *citationController) Create(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateCitationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create citation", res))
}

func (c *citationController) Convert(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	var req dto.ConvertCitationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Convert(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success convert citation", res))
}

func (c *citationController) StartSession(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.StartSession(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start citation session", res))
}

func (c *citationController) SessionStatus(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}
	historyId, err := uuidParam(ctx, "historyId")
	if err != nil {
		return err
	}

	res, err := c.service.SessionStatus(ctx.UserContext(), userId, historyId.String())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get citation session", res))
}

func (c *citationController) Show(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}
	citeId, err := uuidParam(ctx, "citeId")
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), userId, citeId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show citation", res))
}

func (c *citationController) GetHistory(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}
	historyId, err := uuidParam(ctx, "historyId")
	if err != nil {
		return err
	}

	res, err := c.service.GetHistory(ctx.UserContext(), userId, historyId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get citation history", res))
}

func (c *citationController) Styles(ctx *fiber.Ctx) error {
	res, err := c.service.Styles(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get citation styles", res))
}

func userID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user")
	}
	return id, nil
}

func uuidParam(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}
