package pago

import (
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
)

// Meses are the canonical month names, January first.
var Meses = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

var (
	mesTag  = "mes"
	mesText = "el mes no es válido"
)

// Pago is the monthly fee of an Alumno.
type Pago struct {
	ID         int64     `db:"id" json:"id"`
	AlumnoID   int64     `db:"alumno_id" json:"alumno_id"`
	Mes        string    `db:"mes" json:"mes"`
	Anio       int       `db:"anio" json:"anio"`
	Monto      int64     `db:"monto" json:"monto"`
	MetodoPago string    `db:"metodo_pago" json:"metodo_pago"`
	Pagado     bool      `db:"pagado" json:"pagado"`
	PagadoEn   null.Time `db:"pagado_en" json:"pagado_en"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Alumno *AlumnoRef `db:"-" json:"alumno,omitempty"`
}

// AlumnoRef is the alumno data shown next to a Pago.
type AlumnoRef struct {
	Nombres   string     `json:"nombres"`
	Apellidos string     `json:"apellidos"`
	RUT       string     `json:"rut"`
	Email     string     `json:"email"`
	SedeID    null.Int64 `json:"sede_id"`
}

// MesNumero returns the 1-based number of a canonical month name, 0 when unknown.
func MesNumero(mes string) int {
	for i, m := range Meses {
		if m == mes {
			return i + 1
		}
	}
	return 0
}

// NormalizeMes maps a month name (any case) or number (1..12) to its canonical name.
func NormalizeMes(s string) (string, bool) {
	s = core.CleanString(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > len(Meses) {
			return s, false
		}
		return Meses[n-1], true
	}
	if strings.EqualFold(s, "setiembre") {
		return "Septiembre", true
	}
	for _, m := range Meses {
		if strings.EqualFold(s, m) {
			return m, true
		}
	}
	return s, false
}

// InitValidators registers the pago validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(mesTag, func(fl validator.FieldLevel) bool {
		return MesNumero(fl.Field().String()) > 0
	})
	core.RegisterCustomTranslation(validate, translator, mesTag, mesText)
}

// NewPago contains information needed to register a Pago.
type NewPago struct {
	AlumnoID   int64  `json:"alumno_id" validate:"required,gt=0"`
	Mes        string `json:"mes" validate:"required,mes"`
	Anio       int    `json:"anio" validate:"required,min=2000,max=2100"`
	Monto      int64  `json:"monto" validate:"required,gt=0"`
	MetodoPago string `json:"metodo_pago" validate:"max=50"`
	Pagado     bool   `json:"pagado"`
}

func (np *NewPago) Validate(validate *validator.Validate) error {
	if mes, ok := NormalizeMes(np.Mes); ok {
		np.Mes = mes
	}
	np.MetodoPago = core.CleanString(np.MetodoPago)
	return validate.Struct(np)
}

type QueryFilter struct {
	AlumnoID int64  `query:"alumno_id"`
	SedeID   int64  `query:"sede_id"`
	Anio     int    `query:"anio"`
	Mes      string `query:"mes"`
	Pagado   *bool  `query:"-"`
}

func (qf *QueryFilter) Clean() {
	if qf.Mes != "" {
		qf.Mes, _ = NormalizeMes(qf.Mes)
	}
}

// IngresoMensual is the amount collected in a month, keyed "YYYY-MM".
type IngresoMensual struct {
	Mes   string `json:"mes"`
	Total int64  `json:"total"`
}

type Resumen struct {
	TotalRecaudado    int64            `json:"total_recaudado"`
	IngresosMensuales []IngresoMensual `json:"ingresos_mensuales"`
}
