package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"tracker-parent/internal/session"
)

const sessionLocal = "session"

type SessionSource interface {
	Resolve(ctx context.Context) (session.Session, error)
}

// SessionMiddleware resolves the signed-in account and stores it in locals.
func SessionMiddleware(src SessionSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := src.Resolve(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

func SessionFrom(c *fiber.Ctx) (session.Session, bool) {
	sess, ok := c.Locals(sessionLocal).(session.Session)
	return sess, ok
}
