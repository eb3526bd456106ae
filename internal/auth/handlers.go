package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tracker-parent/internal/gateway"
	"tracker-parent/internal/session"
)

type sessionView struct {
	Username      string `json:"username"`
	Role          string `json:"role"`
	ValidUntilUTC string `json:"validUntilUTC,omitempty"`
}

func viewOf(s session.Session) sessionView {
	return sessionView{Username: s.Username, Role: string(s.Role), ValidUntilUTC: s.Credential.ValidUntilUTC}
}

func RegisterRoutes(r fiber.Router, svc *Service, reg *Registrar, sessionMiddleware fiber.Handler) {
	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		sess, err := svc.Login(c.UserContext(), req)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(viewOf(sess))
	})

	r.Post("/resume", func(c *fiber.Ctx) error {
		sess, err := svc.Resume(c.UserContext())
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(viewOf(sess))
	})

	r.Post("/logout", func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/me", sessionMiddleware, func(c *fiber.Ctx) error {
		sess, _ := SessionFrom(c)
		return c.JSON(viewOf(sess))
	})

	r.Post("/deactivate", sessionMiddleware, func(c *fiber.Ctx) error {
		sess, _ := SessionFrom(c)
		if err := svc.Deactivate(c.UserContext(), sess); err != nil {
			return toFiberError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/users", sessionMiddleware, func(c *fiber.Ctx) error {
		sess, _ := SessionFrom(c)
		users, err := svc.Users(c.UserContext(), sess)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(users)
	})

	r.Get("/users/:username", sessionMiddleware, func(c *fiber.Ctx) error {
		sess, _ := SessionFrom(c)
		user, err := svc.GetUser(c.UserContext(), sess, c.Params("username"))
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(user)
	})

	r.Post("/register/code", func(c *fiber.Ctx) error {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if err := reg.RequestCode(c.UserContext(), body.Email); err != nil {
			return toFiberError(err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"cooldown_seconds": int(reg.CooldownRemaining().Seconds())})
	})

	r.Get("/register/cooldown", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"cooldown_seconds": int(reg.CooldownRemaining().Seconds())})
	})

	r.Post("/register/verify", func(c *fiber.Ctx) error {
		var body struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		user, err := reg.Verify(c.UserContext(), body.Email, body.Code)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(user)
	})

	r.Post("/register/complete", func(c *fiber.Ctx) error {
		var body struct {
			Email           string `json:"email"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirmPassword"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		sess, err := reg.Complete(c.UserContext(), body.Email, body.Password, body.ConfirmPassword)
		if err != nil {
			return toFiberError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(viewOf(sess))
	})
}

func toFiberError(err error) error {
	var (
		validationErr *ValidationError
		serverErr     *gateway.ServerError
	)
	switch {
	case errors.As(err, &validationErr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCooldown):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	case errors.Is(err, session.ErrNoAccount), errors.Is(err, session.ErrNoCredential), errors.Is(err, session.ErrNoRole),
		gateway.StatusCode(err) == fiber.StatusUnauthorized:
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.As(err, &serverErr):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
}
