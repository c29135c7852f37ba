package sede

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/atuch/dojang/core"
)

// Sede is a training location of the association.
type Sede struct {
	ID        int64     `db:"id" json:"id"`
	Nombre    string    `db:"nombre" json:"nombre"`
	Direccion string    `db:"direccion" json:"direccion"`
	Telefono  string    `db:"telefono" json:"telefono"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewSede contains information needed to create a new Sede.
type NewSede struct {
	Nombre    string `json:"nombre" validate:"required,max=255"`
	Direccion string `json:"direccion" validate:"max=255"`
	Telefono  string `json:"telefono" validate:"max=50"`
}

func (ns *NewSede) Validate(validate *validator.Validate) error {
	ns.Nombre = core.CleanString(ns.Nombre)
	ns.Direccion = core.CleanString(ns.Direccion)
	ns.Telefono = core.CleanString(ns.Telefono)
	return validate.Struct(ns)
}

// UpdateSede defines what information may be provided to modify an existing Sede.
// Nil fields are left unchanged.
type UpdateSede struct {
	Nombre    *string `json:"nombre" validate:"omitnil,min=1,max=255"`
	Direccion *string `json:"direccion" validate:"omitnil,max=255"`
	Telefono  *string `json:"telefono" validate:"omitnil,max=50"`
}

func (us *UpdateSede) Validate(validate *validator.Validate) error {
	cleanPtr(us.Nombre)
	cleanPtr(us.Direccion)
	cleanPtr(us.Telefono)
	return validate.Struct(us)
}

func (us UpdateSede) apply(s *Sede) {
	if us.Nombre != nil {
		s.Nombre = *us.Nombre
	}
	if us.Direccion != nil {
		s.Direccion = *us.Direccion
	}
	if us.Telefono != nil {
		s.Telefono = *us.Telefono
	}
}

func cleanPtr(s *string) {
	if s != nil {
		*s = core.CleanString(*s)
	}
}
