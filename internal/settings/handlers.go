package settings

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tracker-parent/internal/gateway"
)

func RegisterRoutes(r fiber.Router, svc *Service, sessionMiddleware fiber.Handler) {
	r.Use(sessionMiddleware)

	r.Get("/", func(c *fiber.Ctx) error {
		list, err := svc.List(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(list)
	})

	r.Get("/current", func(c *fiber.Ctx) error {
		setting, err := svc.Current(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(setting)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		var req Setting
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		setting, err := svc.Add(c.UserContext(), req)
		if err != nil {
			return toFiberError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(setting)
	})

	r.Put("/", func(c *fiber.Ctx) error {
		var req Setting
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		setting, err := svc.Update(c.UserContext(), req)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(setting)
	})

	r.Delete("/", func(c *fiber.Ctx) error {
		var req Setting
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.Delete(c.UserContext(), req); err != nil {
			return toFiberError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func toFiberError(err error) error {
	var (
		invalid   *InvalidError
		serverErr *gateway.ServerError
	)
	switch {
	case errors.As(err, &invalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrNoData):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &serverErr):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case gateway.StatusCode(err) == fiber.StatusUnauthorized:
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	default:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
}
