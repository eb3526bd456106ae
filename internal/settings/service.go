// Package settings manages the tracking configuration stored by the geo
// service.
package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tracker-parent/internal/gateway"
	"tracker-parent/internal/logger"
)

const (
	listPath   = "/geo/settings"
	addPath    = "/geo/setting/add"
	updatePath = "/geo/setting/update"
	deletePath = "/geo/setting/delete"
)

// HeaderSource supplies the authorization headers of the current account.
type HeaderSource interface {
	AuthHeaders(ctx context.Context, account string) (map[string]string, error)
}

type Service struct {
	gw       gateway.Requester
	baseURL  string
	headers  HeaderSource
	validate *validator.Validate
	log      *zap.Logger
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

func NewService(gw gateway.Requester, locationBaseURL string, headers HeaderSource, log *zap.Logger) *Service {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	return &Service{
		gw:       gw,
		baseURL:  strings.TrimRight(locationBaseURL, "/"),
		headers:  headers,
		validate: v,
		log:      logger.OrNop(log),
	}
}

func (s *Service) List(ctx context.Context) ([]Setting, error) {
	headers, err := s.headers.AuthHeaders(ctx, "")
	if err != nil {
		return nil, err
	}
	var env gateway.Envelope[[]Setting]
	if err := s.gw.Get(ctx, s.baseURL+listPath, headers, &env); err != nil {
		return nil, err
	}
	return env.Result()
}

// Current is the first configured setting, or gateway.ErrNoData.
func (s *Service) Current(ctx context.Context) (Setting, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Setting{}, err
	}
	if len(list) == 0 {
		return Setting{}, gateway.ErrNoData
	}
	return list[0], nil
}

func (s *Service) Add(ctx context.Context, setting Setting) (Setting, error) {
	return s.write(ctx, addPath, setting)
}

func (s *Service) Update(ctx context.Context, setting Setting) (Setting, error) {
	return s.write(ctx, updatePath, setting)
}

func (s *Service) write(ctx context.Context, path string, setting Setting) (Setting, error) {
	if err := s.check(setting); err != nil {
		return Setting{}, err
	}
	headers, err := s.headers.AuthHeaders(ctx, "")
	if err != nil {
		return Setting{}, err
	}
	var env gateway.Envelope[Setting]
	if err := s.gw.Post(ctx, s.baseURL+path, headers, setting, &env); err != nil {
		return Setting{}, err
	}
	saved, err := env.Result()
	if err != nil {
		return Setting{}, err
	}
	s.log.Debug("setting saved", zap.String("path", path))
	return saved, nil
}

// Delete removes setting. Only the envelope's success flag is consulted.
func (s *Service) Delete(ctx context.Context, setting Setting) error {
	headers, err := s.headers.AuthHeaders(ctx, "")
	if err != nil {
		return err
	}
	var env gateway.Envelope[any]
	if err := s.gw.Delete(ctx, s.baseURL+deletePath, headers, setting, &env); err != nil {
		return err
	}
	if env.IsSuccess {
		return nil
	}
	if env.FailureReason != nil {
		return &gateway.ServerError{Reason: *env.FailureReason}
	}
	return gateway.ErrUnknown
}

// InvalidError reports a setting rejected before it was sent.
type InvalidError struct {
	Field string
	Rule  string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid %s: must satisfy %s", e.Field, e.Rule)
}

func (s *Service) check(setting Setting) error {
	err := s.validate.Struct(setting)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		return &InvalidError{Field: fe.Field(), Rule: rule}
	}
	return err
}
