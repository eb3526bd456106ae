// Package auth talks to the identity service: sign-in, session resume,
// account administration and the email-verified registration flow.
package auth

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tracker-parent/internal/credstore"
	"tracker-parent/internal/gateway"
	"tracker-parent/internal/logger"
	"tracker-parent/internal/session"
)

const (
	tokenPath        = "/identity/token"
	userPath         = "/identity/user"
	allUsersPath     = "/identity/user/all"
	userExistPath    = "/identity/user/exist"
	createUserPath   = "/identity/user/create"
	authenticatePath = "/identity/user/authenticate"
	passwordPath     = "/identity/user/password"
)

type Service struct {
	gw       gateway.Requester
	baseURL  string
	resolver *session.Resolver
	log      *zap.Logger

	signOut []func()
}

func NewService(gw gateway.Requester, identityBaseURL string, resolver *session.Resolver, log *zap.Logger) *Service {
	return &Service{
		gw:       gw,
		baseURL:  strings.TrimRight(identityBaseURL, "/"),
		resolver: resolver,
		log:      logger.OrNop(log),
	}
}

// Login exchanges a username and password for a credential, works out the
// account's role and makes it the current account.
func (s *Service) Login(ctx context.Context, req LoginRequest) (session.Session, error) {
	if err := check(req); err != nil {
		return session.Session{}, err
	}
	username := strings.TrimSpace(req.Username)

	cred, err := s.token(ctx, LoginRequest{Username: username, Password: req.Password})
	if err != nil {
		return session.Session{}, err
	}
	role, err := s.resolveRole(ctx, username, cred)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := s.resolver.Establish(ctx, username, cred, role)
	if err != nil {
		return session.Session{}, err
	}
	s.log.Info("signed in", zap.String("username", username), zap.String("role", string(role)))
	return sess, nil
}

func (s *Service) token(ctx context.Context, req LoginRequest) (credstore.Credential, error) {
	var env gateway.Envelope[credstore.Credential]
	if err := s.gw.Post(ctx, s.baseURL+tokenPath, nil, req, &env); err != nil {
		return credstore.Credential{}, err
	}
	return env.Result()
}

// Resume re-enters the last signed-in account with its stored credential and
// refreshes the role from the account profile.
func (s *Service) Resume(ctx context.Context) (session.Session, error) {
	account, err := s.resolver.CurrentAccount(ctx)
	if err != nil {
		return session.Session{}, err
	}
	cred, ok, err := s.resolver.CurrentCredential(ctx, account)
	if err != nil {
		return session.Session{}, err
	}
	if !ok {
		return session.Session{}, session.ErrNoCredential
	}

	user, err := s.fetchUser(ctx, bearer(cred), account)
	if err != nil {
		return session.Session{}, err
	}
	role, ok := session.ParseRole(user.RoleName())
	if !ok {
		return session.Session{}, session.ErrNoRole
	}
	return s.resolver.Establish(ctx, account, cred, role)
}

// OnSignOut registers fn to run after every successful Logout, including the
// one that ends Deactivate.
func (s *Service) OnSignOut(fn func()) {
	s.signOut = append(s.signOut, fn)
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.resolver.Clear(ctx); err != nil {
		return err
	}
	for _, fn := range s.signOut {
		fn()
	}
	return nil
}

// Deactivate marks the session's account inactive and signs out.
func (s *Service) Deactivate(ctx context.Context, sess session.Session) error {
	user, err := s.GetUser(ctx, sess, sess.Username)
	if err != nil {
		return err
	}
	inactive := false
	user.IsActive = &inactive
	if _, err := s.UpdateUser(ctx, sess, user); err != nil {
		return err
	}
	s.log.Info("account deactivated", zap.String("username", sess.Username))
	return s.Logout(ctx)
}

func (s *Service) GetUser(ctx context.Context, sess session.Session, username string) (User, error) {
	return s.fetchUser(ctx, sess.AuthHeader(), username)
}

func (s *Service) fetchUser(ctx context.Context, headers map[string]string, username string) (User, error) {
	var env gateway.Envelope[User]
	u := s.baseURL + userPath + "?username=" + url.QueryEscape(username)
	if err := s.gw.Get(ctx, u, headers, &env); err != nil {
		return User{}, err
	}
	return env.Result()
}

// Users lists every account. The identity service only allows this for
// administrators.
func (s *Service) Users(ctx context.Context, sess session.Session) ([]User, error) {
	var env gateway.Envelope[[]User]
	if err := s.gw.Get(ctx, s.baseURL+allUsersPath, sess.AuthHeader(), &env); err != nil {
		return nil, err
	}
	return env.Result()
}

func (s *Service) UpdateUser(ctx context.Context, sess session.Session, user User) (User, error) {
	var env gateway.Envelope[User]
	if err := s.gw.Post(ctx, s.baseURL+userPath, sess.AuthHeader(), user, &env); err != nil {
		return User{}, err
	}
	return env.Result()
}

// UserExists checks whether username is already registered, authorised as
// the current account if there is one.
func (s *Service) UserExists(ctx context.Context, username string) (bool, error) {
	headers, err := s.resolver.AuthHeaders(ctx, "")
	if err != nil {
		return false, err
	}
	var env gateway.Envelope[bool]
	u := s.baseURL + userExistPath + "?username=" + url.QueryEscape(username)
	if err := s.gw.Get(ctx, u, headers, &env); err != nil {
		return false, err
	}
	if env.IsSuccess {
		return env.Value != nil && *env.Value, nil
	}
	if env.FailureReason != nil {
		return false, &gateway.ServerError{Reason: *env.FailureReason}
	}
	return false, gateway.ErrUnknown
}

// SendVerificationEmail asks the identity service to email a code to email.
// The request is authorised with the credential stored under email.
func (s *Service) SendVerificationEmail(ctx context.Context, email string) (credstore.Credential, error) {
	headers, err := s.resolver.AuthHeaders(ctx, email)
	if err != nil {
		return credstore.Credential{}, err
	}
	var env gateway.Envelope[credstore.Credential]
	if err := s.gw.Post(ctx, s.baseURL+createUserPath, headers, createUserBody{Username: email}, &env); err != nil {
		return credstore.Credential{}, err
	}
	return env.Result()
}

func (s *Service) VerifyEmail(ctx context.Context, email, code string) (User, error) {
	headers, err := s.resolver.AuthHeaders(ctx, email)
	if err != nil {
		return User{}, err
	}
	var env gateway.Envelope[User]
	if err := s.gw.Post(ctx, s.baseURL+authenticatePath, headers, verifyBody{AuthenticationCode: code}, &env); err != nil {
		return User{}, err
	}
	return env.Result()
}

// CompleteRegistration sets the password of a verified account and activates it.
func (s *Service) CompleteRegistration(ctx context.Context, email, password string) (credstore.Credential, error) {
	headers, err := s.resolver.AuthHeaders(ctx, email)
	if err != nil {
		return credstore.Credential{}, err
	}
	body := passwordBody{Username: email, Password: password, ActivateUser: true}
	var env gateway.Envelope[credstore.Credential]
	if err := s.gw.Post(ctx, s.baseURL+passwordPath, headers, body, &env); err != nil {
		return credstore.Credential{}, err
	}
	return env.Result()
}

// resolveRole tries the credential, then the token's claims, then the
// account profile.
func (s *Service) resolveRole(ctx context.Context, username string, cred credstore.Credential) (session.Role, error) {
	if role, ok := session.ParseRole(cred.UserRole); ok {
		return role, nil
	}
	if role, ok := session.RoleFromToken(cred.Token); ok {
		return role, nil
	}
	user, err := s.fetchUser(ctx, bearer(cred), username)
	if err != nil {
		return "", err
	}
	if role, ok := session.ParseRole(user.RoleName()); ok {
		return role, nil
	}
	return "", session.ErrNoRole
}

func bearer(cred credstore.Credential) map[string]string {
	return session.Session{Credential: cred}.AuthHeader()
}
