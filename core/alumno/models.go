package alumno

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
)

// Grados are the ranks a student can hold, from white belt to the highest black belt degree.
var Grados = []string{
	"10° Kup", "9° Kup", "8° Kup", "7° Kup", "6° Kup", "5° Kup", "4° Kup", "3° Kup", "2° Kup", "1° Kup",
	"I Dan", "II Dan", "III Dan", "IV Dan", "V Dan", "VI Dan", "VII Dan", "VIII Dan", "IX Dan",
}

// Alumno is a student of the association.
type Alumno struct {
	ID                int64       `db:"id" json:"id"`
	Nombres           string      `db:"nombres" json:"nombres"`
	Apellidos         string      `db:"apellidos" json:"apellidos"`
	RUT               string      `db:"rut" json:"rut"`
	FechaNacimiento   *core.Date  `db:"fecha_nacimiento" json:"fecha_nacimiento"`
	Telefono          string      `db:"telefono" json:"telefono"`
	Email             string      `db:"email" json:"email"`
	Direccion         string      `db:"direccion" json:"direccion"`
	Grado             null.String `db:"grado" json:"grado"`
	SedeID            null.Int64  `db:"sede_id" json:"sede_id"`
	InstructorID      null.Int64  `db:"instructor_id" json:"instructor_id"`
	FechaUltimoExamen *core.Date  `db:"fecha_ultimo_examen" json:"fecha_ultimo_examen"`
	Activo            bool        `db:"activo" json:"activo"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`

	// joined
	SedeNombre       null.String `db:"sede_nombre" json:"sede_nombre"`
	InstructorNombre null.String `db:"instructor_nombre" json:"instructor_nombre"`
}

func (a Alumno) NombreCompleto() string {
	return strings.TrimSpace(a.Nombres + " " + a.Apellidos)
}

// NewAlumno holds the editable fields of an Alumno, for creation and full updates.
type NewAlumno struct {
	Nombres           string     `json:"nombres" validate:"max=255"`
	Apellidos         string     `json:"apellidos" validate:"max=255"`
	RUT               string     `json:"rut" validate:"omitempty,rut"`
	FechaNacimiento   *core.Date `json:"fecha_nacimiento" validate:"-"`
	Telefono          string     `json:"telefono" validate:"max=50"`
	Email             string     `json:"email" validate:"omitempty,email"`
	Direccion         string     `json:"direccion" validate:"max=255"`
	Grado             string     `json:"grado" validate:"grado"`
	SedeID            int64      `json:"sede_id"`
	InstructorID      int64      `json:"instructor_id"`
	// FechaUltimoExamen is only read on creation; later exams go through RegistrarExamen.
	FechaUltimoExamen *core.Date `json:"fecha_ultimo_examen" validate:"-"`
}

func (na *NewAlumno) Validate(validate *validator.Validate) error {
	na.Nombres = core.CleanString(na.Nombres)
	na.Apellidos = core.CleanString(na.Apellidos)
	na.RUT = core.NormalizeRUT(core.CleanString(na.RUT))
	na.Telefono = core.CleanString(na.Telefono)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Direccion = core.CleanString(na.Direccion)
	na.Grado = core.CleanString(na.Grado)
	return validate.Struct(na)
}

func (na NewAlumno) apply(a *Alumno) {
	a.Nombres = na.Nombres
	a.Apellidos = na.Apellidos
	a.RUT = na.RUT
	a.FechaNacimiento = na.FechaNacimiento
	a.Telefono = na.Telefono
	a.Email = na.Email
	a.Direccion = na.Direccion
	a.Grado = null.NewString(na.Grado, na.Grado != "")
	a.SedeID = null.Int64From(na.SedeID)
	a.InstructorID = null.Int64From(na.InstructorID)
}

// RegistroExamen records a rank exam taken by an Alumno, with the new grado if promoted.
type RegistroExamen struct {
	Fecha core.Date `json:"fecha" validate:"-"`
	Grado string    `json:"grado" validate:"grado"`
}

func (re *RegistroExamen) Validate(validate *validator.Validate) error {
	re.Grado = core.CleanString(re.Grado)
	return validate.Struct(re)
}

type QueryFilter struct {
	// Search does a case-insensitive match on one of nombres, apellidos, rut or email.
	Search       string `query:"search"`
	SedeID       int64  `query:"sede_id"`
	InstructorID int64  `query:"instructor_id"`
	Activo       *bool  `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
