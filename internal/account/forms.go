// Package account validates the sign-in and sign-up forms. There is no
// account backend: a valid form is simply accepted.
package account

import (
	"errors"
	"strings"

	"studybuddy/internal/validation"
)

const SignUpAcknowledgement = "Account created successfully! Please sign in."

var (
	ErrMissingFields    = errors.New("required fields missing")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrMissingFullName  = errors.New("full name missing")
)

// UserMessage returns the alert text shown for a form error.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "Please fill in all required fields"
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match"
	case errors.Is(err, ErrMissingFullName):
		return "Please enter your full name"
	default:
		return err.Error()
	}
}

type SignInForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignUpForm struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password"`
}

type Outcome struct {
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
	// SwitchToSignIn tells the client to show the sign-in form next.
	SwitchToSignIn bool `json:"switch_to_sign_in"`
}

func SignIn(form SignInForm) (Outcome, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := validation.Struct(form); err != nil {
		return Outcome{}, ErrMissingFields
	}
	return Outcome{Email: form.Email}, nil
}

// SignUp checks fields in the order the form reports them: required fields,
// then the password confirmation, then the full name.
func SignUp(form SignUpForm) (Outcome, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := validation.Struct(form); err != nil {
		return Outcome{}, ErrMissingFields
	}
	if form.Password != form.ConfirmPassword {
		return Outcome{}, ErrPasswordMismatch
	}
	if strings.TrimSpace(form.FullName) == "" {
		return Outcome{}, ErrMissingFullName
	}
	return Outcome{
		Email:          form.Email,
		Message:        SignUpAcknowledgement,
		SwitchToSignIn: true,
	}, nil
}
