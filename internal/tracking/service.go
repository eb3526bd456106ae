package tracking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tracker-parent/internal/gateway"
	"tracker-parent/internal/logger"
	"tracker-parent/internal/session"
)

const (
	byDatePath   = "/geo/locations/user/bydate"
	allUsersPath = "/geo/locations/all"
)

type Service struct {
	gw      gateway.Requester
	baseURL string
	log     *zap.Logger
}

func NewService(gw gateway.Requester, locationBaseURL string, log *zap.Logger) *Service {
	return &Service{
		gw:      gw,
		baseURL: strings.TrimRight(locationBaseURL, "/"),
		log:     logger.OrNop(log),
	}
}

// GetLocationsByDateTime fetches username's points through the self-scoped
// endpoint, authorised as requester.
func (s *Service) GetLocationsByDateTime(ctx context.Context, requester session.Session, username, fromISO, toISO string) ([]Location, error) {
	return s.fetch(ctx, s.baseURL+byDatePath, requester, username, fromISO, toISO)
}

// GetLocationsByDateTimeWithElevatedAccess uses the administrator endpoint.
func (s *Service) GetLocationsByDateTimeWithElevatedAccess(ctx context.Context, requester session.Session, username, fromISO, toISO string) ([]Location, error) {
	return s.fetch(ctx, s.baseURL+allUsersPath, requester, username, fromISO, toISO)
}

func (s *Service) fetch(ctx context.Context, url string, requester session.Session, username, fromISO, toISO string) ([]Location, error) {
	body := LocationRequest{Username: username, StartDate: fromISO, EndDate: toISO}

	var env gateway.Envelope[[]LocationDTO]
	if err := s.gw.Post(ctx, url, requester.AuthHeader(), body, &env); err != nil {
		return nil, err
	}
	dtos, err := env.Result()
	if err != nil {
		return nil, err
	}

	points := make([]Location, 0, len(dtos))
	for _, dto := range dtos {
		p, err := dto.ToLocation()
		if err != nil {
			s.log.Warn("skipping unreadable location",
				zap.Int64("id", dto.ID),
				zap.String("target", username),
				zap.Error(err),
			)
			continue
		}
		points = append(points, p)
	}
	s.log.Debug("locations fetched",
		zap.String("target", username),
		zap.String("requester", requester.Username),
		zap.Int("count", len(points)),
	)
	return points, nil
}
