package instructor

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/atuch/dojang/core"
)

const (
	DefaultGrado     = "IV Dan"
	DefaultRolEnSede = "Instructor"
)

// Grados are the black belt degrees an instructor can hold.
var Grados = []string{
	"I Dan", "II Dan", "III Dan", "IV Dan", "V Dan", "VI Dan", "VII Dan", "VIII Dan", "IX Dan",
}

var (
	gradoTag  = "grado_dan"
	gradoText = "el grado no es válido"

	sedesTag  = "sedes"
	sedesText = "Selecciona al menos una sede."
)

// Instructor teaches at one or more sedes.
type Instructor struct {
	ID        int64      `db:"id" json:"id"`
	Nombre    string     `db:"nombre" json:"nombre"`
	Apellido  string     `db:"apellido" json:"apellido"`
	Grado     string     `db:"grado" json:"grado"`
	Correo    string     `db:"correo" json:"correo"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Sedes     []SedeLink `db:"-" json:"sedes"`
}

func (ins Instructor) NombreCompleto() string {
	return strings.TrimSpace(ins.Nombre + " " + ins.Apellido)
}

// SedeIDs returns the ids of the sedes the Instructor is linked to.
func (ins Instructor) SedeIDs() []int64 {
	ids := make([]int64, 0, len(ins.Sedes))
	for _, s := range ins.Sedes {
		ids = append(ids, s.SedeID)
	}
	return ids
}

// SedeLink is a row of the instructores_sedes bridge.
type SedeLink struct {
	InstructorID int64  `db:"instructor_id" json:"-"`
	SedeID       int64  `db:"sede_id" json:"sede_id"`
	Nombre       string `db:"nombre" json:"nombre"`
	RolEnSede    string `db:"rol_en_sede" json:"rol_en_sede"`
}

// InitValidators registers the instructor validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradoTag, gradoValidation)
	core.RegisterCustomTranslation(validate, translator, gradoTag, gradoText)

	_ = validate.RegisterValidation(sedesTag, sedesValidation, true)
	core.RegisterCustomTranslation(validate, translator, sedesTag, sedesText)
}

// gradoValidation accepts an empty grado (defaulted later) or one of Grados.
func gradoValidation(fl validator.FieldLevel) bool {
	grado := fl.Field().String()
	return grado == "" || core.OneOf(grado, Grados)
}

// sedesValidation requires at least one positive sede id.
func sedesValidation(fl validator.FieldLevel) bool {
	ids, ok := fl.Field().Interface().([]int64)
	if !ok || len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if id <= 0 {
			return false
		}
	}
	return true
}

// NewInstructor contains information needed to create a new Instructor.
type NewInstructor struct {
	Nombre   string  `json:"nombre" validate:"required,max=255"`
	Apellido string  `json:"apellido" validate:"required,max=255"`
	Grado    string  `json:"grado" validate:"grado_dan"`
	Correo   string  `json:"correo" validate:"required,email"`
	SedeIDs  []int64 `json:"sede_ids" validate:"sedes"`
}

func (ni *NewInstructor) Validate(validate *validator.Validate) error {
	ni.Nombre = core.CleanString(ni.Nombre)
	ni.Apellido = core.CleanString(ni.Apellido)
	ni.Grado = core.CleanString(ni.Grado)
	if ni.Grado == "" {
		ni.Grado = DefaultGrado
	}
	ni.Correo = core.CleanString(ni.Correo, true /* lower */)
	ni.SedeIDs = uniqueIDs(ni.SedeIDs)
	return validate.Struct(ni)
}

// UpdateInstructor defines what information may be provided to modify an existing Instructor.
// Nil fields are left unchanged; SedeIDs, when given, replace all current links.
type UpdateInstructor struct {
	Nombre   *string `json:"nombre" validate:"omitnil,min=1,max=255"`
	Apellido *string `json:"apellido" validate:"omitnil,min=1,max=255"`
	Grado    *string `json:"grado" validate:"omitnil,min=1,grado_dan"`
	Correo   *string `json:"correo" validate:"omitnil,email"`
	SedeIDs  []int64 `json:"sede_ids" validate:"omitnil,sedes"`
}

func (ui *UpdateInstructor) Validate(validate *validator.Validate) error {
	if ui.Nombre != nil {
		*ui.Nombre = core.CleanString(*ui.Nombre)
	}
	if ui.Apellido != nil {
		*ui.Apellido = core.CleanString(*ui.Apellido)
	}
	if ui.Grado != nil {
		*ui.Grado = core.CleanString(*ui.Grado)
	}
	if ui.Correo != nil {
		*ui.Correo = core.CleanString(*ui.Correo, true /* lower */)
	}
	if ui.SedeIDs != nil {
		ui.SedeIDs = uniqueIDs(ui.SedeIDs)
	}
	return validate.Struct(ui)
}

func (ui UpdateInstructor) apply(ins *Instructor) {
	if ui.Nombre != nil {
		ins.Nombre = *ui.Nombre
	}
	if ui.Apellido != nil {
		ins.Apellido = *ui.Apellido
	}
	if ui.Grado != nil {
		ins.Grado = *ui.Grado
	}
	if ui.Correo != nil {
		ins.Correo = *ui.Correo
	}
}

type QueryFilter struct {
	SedeID int64 `query:"sede_id"`
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
