package alumno

import (
	"math"
	"time"

	"github.com/atuch/dojang/core"
)

// Exam status thresholds, in days since the last exam.
const (
	DiasExamenAlDia   = 180
	DiasExamenVencido = 365
)

// Exam statuses
const (
	EstadoSinRegistro = "Sin registro"
	EstadoAlDia       = "Al día"
	EstadoProximo     = "Próximo"
	EstadoAtrasado    = "Atrasado"
)

var nowFunc = time.Now // mockable

// Edad returns the age in whole years at now: the birthday must have been reached this year to count.
// nil when the birth date is unknown or after now.
func Edad(fechaNacimiento *core.Date, now time.Time) *int {
	if fechaNacimiento == nil {
		return nil
	}
	now = now.UTC()
	born := fechaNacimiento.Time

	edad := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		edad--
	}
	if edad < 0 {
		return nil
	}
	return &edad
}

// DiasDesde returns the whole days elapsed between fecha and now (floored). nil when fecha is unknown.
func DiasDesde(fecha *core.Date, now time.Time) *int {
	if fecha == nil {
		return nil
	}
	dias := int(math.Floor(now.Sub(fecha.Time).Hours() / 24))
	return &dias
}

// EstadoExamen classifies the days since the last exam.
func EstadoExamen(dias *int) string {
	switch {
	case dias == nil:
		return EstadoSinRegistro
	case *dias < DiasExamenAlDia:
		return EstadoAlDia
	case *dias < DiasExamenVencido:
		return EstadoProximo
	default:
		return EstadoAtrasado
	}
}

// ExamenPendiente reports whether an exam is due: never examined or examined a year ago or more.
func ExamenPendiente(dias *int) bool {
	return dias == nil || *dias >= DiasExamenVencido
}
