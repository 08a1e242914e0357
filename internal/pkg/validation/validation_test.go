package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Rol      string `validate:"omitempty,oneof=ADMIN GERENTE EMPLEADO"`
}

func TestStruct_Valid(t *testing.T) {
	msg := Struct(loginForm{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
		Rol:      "GERENTE",
	})
	assert.Empty(t, msg)
}

func TestStruct_ReportsFirstFailingField(t *testing.T) {
	msg := Struct(loginForm{Password: "Secreta123"})
	assert.Equal(t, "Field validation for 'Email' failed on the 'required' tag", msg)
}

func TestStruct_TagNames(t *testing.T) {
	tests := []struct {
		name string
		in   loginForm
		want string
	}{
		{
			"malformed email",
			loginForm{Email: "not-an-email", Password: "Secreta123"},
			"Field validation for 'Email' failed on the 'email' tag",
		},
		{
			"short password",
			loginForm{Email: "maria@financepro.com", Password: "corta"},
			"Field validation for 'Password' failed on the 'min' tag",
		},
		{
			"unknown role",
			loginForm{Email: "maria@financepro.com", Password: "Secreta123", Rol: "SUPERVISOR"},
			"Field validation for 'Rol' failed on the 'oneof' tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Struct(tt.in))
		})
	}
}

func TestGet_SharedInstance(t *testing.T) {
	assert.Same(t, Get(), Get())
}
