package serverutils

import (
	"errors"

	"ai-writing-be/pkg/citation"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error returned by a handler to an HTTP status and the
// message shown to the caller.
func StatusFor(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	switch citation.KindOf(err) {
	case citation.KindValidation:
		return fiber.StatusBadRequest, citation.UserMessage(err)
	case citation.KindNotFound:
		return fiber.StatusNotFound, citation.UserMessage(err)
	case citation.KindUpstream, citation.KindTemplateLoad:
		return fiber.StatusBadGateway, citation.UserMessage(err)
	case citation.KindRender:
		return fiber.StatusUnprocessableEntity, citation.UserMessage(err)
	case citation.KindLimitReached:
		return fiber.StatusTooManyRequests, citation.UserMessage(err)
	case citation.KindPersistence:
		return fiber.StatusInternalServerError, citation.UserMessage(err)
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// ErrorHandlerMiddleware turns errors returned further down the chain into
// the error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, message := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}
