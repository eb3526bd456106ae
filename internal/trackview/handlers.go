package trackview

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"tracker-parent/internal/auth"
	"tracker-parent/internal/gateway"
	"tracker-parent/internal/session"
	"tracker-parent/internal/trip"
)

// DateLayout is the calendar-day format accepted for from and to.
const DateLayout = "2006-01-02"

type fetchBody struct {
	Target string `json:"target"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// RegisterRoutes mounts the track view. Every route needs a session, and
// reads only succeed when the committed tracks are visible to it.
func RegisterRoutes(r fiber.Router, m *Machine, sessionMiddleware fiber.Handler) {
	r.Use(sessionMiddleware)

	r.Post("/fetch", func(c *fiber.Ctx) error {
		var body fetchBody
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&body); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		req := Request{Target: body.Target}
		var err error
		if req.From, err = ParseDate(body.From, m.loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		if req.To, err = ParseDate(body.To, m.loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
		}

		state, err := m.Fetch(c.UserContext(), req)
		if err != nil {
			return fiber.NewError(statusFor(err), Message(err))
		}
		return c.JSON(state)
	})

	r.Get("/state", func(c *fiber.Ctx) error {
		state, err := view(c, m)
		if err != nil {
			return err
		}
		return c.JSON(state)
	})

	r.Get("/geojson", func(c *fiber.Ctx) error {
		state, err := view(c, m)
		if err != nil {
			return err
		}
		if err := c.JSON(trip.FeatureCollection(state.Tracks)); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return nil
	})

	r.Get("/:index/sample", func(c *fiber.Ctx) error {
		zoom, err := zoomFromQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		_, track, err := viewTrack(c, m)
		if err != nil {
			return err
		}
		return c.JSON(trip.Sample(track, zoom))
	})

	r.Get("/:index/summary", func(c *fiber.Ctx) error {
		index, track, err := viewTrack(c, m)
		if err != nil {
			return err
		}
		return c.JSON(trip.Summarize(index, track))
	})

	r.Get("/:index/region", func(c *fiber.Ctx) error {
		_, track, err := viewTrack(c, m)
		if err != nil {
			return err
		}
		return c.JSON(trip.Region(track))
	})
}

func view(c *fiber.Ctx, m *Machine) (State, error) {
	sess, ok := auth.SessionFrom(c)
	if !ok {
		return State{}, fiber.ErrUnauthorized
	}
	state, err := m.ViewFor(sess)
	if err != nil {
		return State{}, fiber.NewError(fiber.StatusForbidden, err.Error())
	}
	return state, nil
}

func viewTrack(c *fiber.Ctx, m *Machine) (int, trip.Track, error) {
	index, err := c.ParamsInt("index")
	if err != nil {
		return 0, nil, fiber.NewError(fiber.StatusBadRequest, "index must be a number")
	}
	state, err := view(c, m)
	if err != nil {
		return 0, nil, err
	}
	track, err := TrackAt(state, index)
	if err != nil {
		return 0, nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return index, track, nil
}

// ParseDate reads a calendar day in loc. An empty string is the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// zoomFromQuery reads either an explicit zoom or the viewport spans.
func zoomFromQuery(c *fiber.Ctx) (float64, error) {
	if z := c.Query("zoom"); z != "" {
		return strconv.ParseFloat(z, 64)
	}
	lat, err := strconv.ParseFloat(c.Query("lat_delta", "0"), 64)
	if err != nil {
		return 0, errors.New("lat_delta must be a number")
	}
	lng, err := strconv.ParseFloat(c.Query("lng_delta", "0"), 64)
	if err != nil {
		return 0, errors.New("lng_delta must be a number")
	}
	return trip.EffectiveZoom(lat, lng), nil
}

func statusFor(err error) int {
	var httpErr *gateway.HTTPError
	switch {
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrSuperseded):
		return fiber.StatusConflict
	case errors.Is(err, session.ErrNoAccount), errors.Is(err, session.ErrNoCredential), errors.Is(err, session.ErrNoRole):
		return fiber.StatusUnauthorized
	case errors.As(err, &httpErr) && httpErr.StatusCode == fiber.StatusUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusBadGateway
	}
}
