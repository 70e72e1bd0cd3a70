package model

import (
	"net/mail"
	"strings"
)

// LoginInput holds login form values.
type LoginInput struct {
	Email    string
	Password string
}

// Validate rejects empty fields before calling the API.
func (in LoginInput) Validate() error {
	if strings.TrimSpace(in.Email) == "" {
		return &ValidationError{Field: "email", Message: "el email es obligatorio"}
	}
	if in.Password == "" {
		return &ValidationError{Field: "password", Message: "la contraseña es obligatoria"}
	}
	return nil
}

// RegisterInput holds registration form values.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	StoreName       string
}

// Validate checks required fields and the password confirmation.
func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "nombre", Message: "el nombre es obligatorio"}
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &ValidationError{Field: "email", Message: "el email no es válido"}
	}
	if len(in.Password) < 8 {
		return &ValidationError{Field: "password", Message: "la contraseña debe tener al menos 8 caracteres"}
	}
	if in.Password != in.PasswordConfirm {
		return &ValidationError{Field: "password_confirm", Message: "las contraseñas no coinciden"}
	}
	return nil
}

// AuthResult is what a successful login or registration yields.
type AuthResult struct {
	Credential Credential
	User       StoredUser
}
