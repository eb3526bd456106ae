package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tracker-parent/internal/gateway"
	"tracker-parent/internal/session"
)

// ResendCooldown is how long a new verification code must wait after the
// previous request.
const ResendCooldown = 60 * time.Second

var ErrCooldown = errors.New("Please wait before requesting another code.")

// CooldownError carries the time left before another code may be requested.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (%ds)", ErrCooldown.Error(), int(e.Remaining.Round(time.Second).Seconds()))
}

func (e *CooldownError) Unwrap() error { return ErrCooldown }

// Registrar walks a new account through request code, verify and set
// password. When a service account is configured, its credential authorises
// the code request for the new address.
type Registrar struct {
	svc            *Service
	serviceAccount LoginRequest
	now            func() time.Time

	mu       sync.Mutex
	deadline time.Time
}

func NewRegistrar(svc *Service, serviceAccount LoginRequest) *Registrar {
	return &Registrar{svc: svc, serviceAccount: serviceAccount, now: time.Now}
}

// CooldownRemaining is zero once a new code may be requested.
func (r *Registrar) CooldownRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deadline.IsZero() {
		return 0
	}
	if left := r.deadline.Sub(r.now()); left > 0 {
		return left
	}
	return 0
}

func (r *Registrar) startCooldown() {
	r.mu.Lock()
	r.deadline = r.now().Add(ResendCooldown)
	r.mu.Unlock()
}

func (r *Registrar) resetCooldown() {
	r.mu.Lock()
	r.deadline = time.Time{}
	r.mu.Unlock()
}

// RequestCode sends a verification code to email if the address is free.
func (r *Registrar) RequestCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := check(emailInput{Email: email}); err != nil {
		return err
	}
	if left := r.CooldownRemaining(); left > 0 {
		return &CooldownError{Remaining: left}
	}

	exists, err := r.svc.UserExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return &gateway.ServerError{Reason: email + " is unavailable"}
	}
	r.startCooldown()

	if strings.TrimSpace(r.serviceAccount.Username) != "" {
		cred, err := r.svc.token(ctx, r.serviceAccount)
		if err != nil {
			return err
		}
		if err := r.svc.resolver.Store(ctx, email, cred); err != nil {
			return err
		}
	}

	cred, err := r.svc.SendVerificationEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := r.svc.resolver.Store(ctx, email, cred); err != nil {
		return err
	}
	r.svc.log.Info("verification code requested", zap.String("email", email))
	return nil
}

func (r *Registrar) Verify(ctx context.Context, email, code string) (User, error) {
	email = strings.TrimSpace(email)
	if err := check(verifyInput{Email: email, Code: code}); err != nil {
		return User{}, err
	}
	return r.svc.VerifyEmail(ctx, email, strings.TrimSpace(code))
}

// Complete sets the account password and signs the new account in.
func (r *Registrar) Complete(ctx context.Context, email, password, confirm string) (session.Session, error) {
	email = strings.TrimSpace(email)
	if err := check(passwordInput{Password: password, ConfirmPassword: confirm}); err != nil {
		return session.Session{}, err
	}
	cred, err := r.svc.CompleteRegistration(ctx, email, password)
	if err != nil {
		return session.Session{}, err
	}
	role, err := r.svc.resolveRole(ctx, email, cred)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := r.svc.resolver.Establish(ctx, email, cred, role)
	if err != nil {
		return session.Session{}, err
	}
	r.resetCooldown()
	r.svc.log.Info("registration complete", zap.String("email", email))
	return sess, nil
}
