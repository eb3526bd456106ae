package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// ValidationError rejects user input before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var messages = map[string]string{
	"Username.notblank":        "Username is required.",
	"Password.notblank":        "Password is required.",
	"Email.notblank":           "Email is required.",
	"Email.mailbox":            "Invalid email format.",
	"Code.notblank":            "Verification code is required.",
	"ConfirmPassword.notblank": "Confirm password is required.",
	"ConfirmPassword.eqfield":  "Password does not match.",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// check reports the first failing field of input, in declaration order.
func check(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	msg, ok := messages[fe.StructField()+"."+fe.Tag()]
	if !ok {
		msg = fe.Error()
	}
	return &ValidationError{Field: fe.StructField(), Message: msg}
}

// IsValidEmail matches the address format accepted at registration.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
