package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFieldErrors(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type form struct {
		Email string `json:"email" validate:"required,email"`
		RUT   string `json:"rut" validate:"rut"`
	}
	vErr := validate.Struct(form{Email: "nope", RUT: "12.345.678-9"})

	tests := []struct {
		name   string
		err    error
		want   map[string]string
		wantOk bool
	}{
		{"validator errors", vErr, map[string]string{"email": emailText, "rut": rutText}, true},
		{"wrapped validator errors", errors.Wrap(vErr, "creating"), map[string]string{"email": emailText, "rut": rutText}, true},
		{"validation error", NewValidationError(errors.New("dup"), FieldError{Field: "rut", Error: "ya existe"}), map[string]string{"rut": "ya existe"}, true},
		{"validation error without fields", NewValidationError(errors.New("dup")), nil, false},
		{"other", errors.New("boom"), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flds, ok := FieldErrors(tt.err, translator)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, flds)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "dup", NewValidationError(errors.New("dup")).Error())
	assert.Equal(t, "rut: ya existe", NewValidationError(nil, FieldError{Field: "rut", Error: "ya existe"}).Error())
	assert.Equal(t, "", NewValidationError(nil).Error())
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(NewShutdownError("bye")))
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("bye"), "serving")))
	assert.False(t, IsShutdown(errors.New("bye")))
}
