package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gramv/onboardingsoftware/internal/apperr"
	"github.com/gramv/onboardingsoftware/internal/authz"
	"github.com/gramv/onboardingsoftware/internal/middleware"
)

// ErrorHandler renders every error through the one envelope:
// {success:false, error, message, details?}. Business errors keep their code
// and status; anything unexpected becomes a bare 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := apperr.As(err); ok {
		resp := fiber.Map{
			"success": false,
			"error":   e.Code,
			"message": e.Message,
		}
		if len(e.Details) > 0 {
			resp["details"] = e.Details
		}
		return c.Status(e.Status).JSON(resp)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"error":   apperr.CodeInternal,
			"message": fe.Message,
		})
	}

	log.Printf("unhandled error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   apperr.CodeInternal,
		"message": "internal server error",
	})
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

func getActor(c *fiber.Ctx) (authz.Actor, error) {
	return middleware.ActorFromLocals(c)
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid id", nil)
	}
	return id, nil
}
