package alumno

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/atuch/dojang/core"
)

var (
	gradoTag  = "grado"
	gradoText = "el grado no es válido"

	nombresTag  = "nombres_apellidos"
	nombresText = "Por favor completa Nombres y Apellidos."

	rutRequiredTag  = "rut_required"
	rutRequiredText = "El RUT es obligatorio."

	sedeInstructorTag  = "sede_instructor"
	sedeInstructorText = "Selecciona Sede e Instructor."

	fechaRequiredTag  = "fecha_required"
	fechaRequiredText = "La fecha es obligatoria."

	fechaFuturaTag  = "fecha_futura"
	fechaFuturaText = "la fecha no puede estar en el futuro"
)

// InitValidators registers the alumno validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradoTag, gradoValidation)
	core.RegisterCustomTranslation(validate, translator, gradoTag, gradoText)

	validate.RegisterStructValidation(alumnoStructValidation, NewAlumno{}, RegistroExamen{})
	core.RegisterCustomTranslation(validate, translator, nombresTag, nombresText)
	core.RegisterCustomTranslation(validate, translator, rutRequiredTag, rutRequiredText)
	core.RegisterCustomTranslation(validate, translator, sedeInstructorTag, sedeInstructorText)
	core.RegisterCustomTranslation(validate, translator, fechaRequiredTag, fechaRequiredText)
	core.RegisterCustomTranslation(validate, translator, fechaFuturaTag, fechaFuturaText)
}

// gradoValidation accepts an empty grado or one of Grados.
func gradoValidation(fl validator.FieldLevel) bool {
	grado := fl.Field().String()
	return grado == "" || core.OneOf(grado, Grados)
}

// alumnoStructValidation reports the required fields of NewAlumno and RegistroExamen, and dates set in the future.
func alumnoStructValidation(sl validator.StructLevel) {
	today := core.NewDate(nowFunc())

	switch data := sl.Current().Interface().(type) {
	case NewAlumno:
		if data.Nombres == "" || data.Apellidos == "" {
			if data.Nombres == "" {
				sl.ReportError(data.Nombres, "nombres", "Nombres", nombresTag, "")
			}
			if data.Apellidos == "" {
				sl.ReportError(data.Apellidos, "apellidos", "Apellidos", nombresTag, "")
			}
		}
		if data.RUT == "" {
			sl.ReportError(data.RUT, "rut", "RUT", rutRequiredTag, "")
		}
		if data.SedeID <= 0 {
			sl.ReportError(data.SedeID, "sede_id", "SedeID", sedeInstructorTag, "")
		}
		if data.InstructorID <= 0 {
			sl.ReportError(data.InstructorID, "instructor_id", "InstructorID", sedeInstructorTag, "")
		}
		if data.FechaNacimiento != nil && data.FechaNacimiento.After(today.Time) {
			sl.ReportError(data.FechaNacimiento, "fecha_nacimiento", "FechaNacimiento", fechaFuturaTag, "")
		}
		if data.FechaUltimoExamen != nil && data.FechaUltimoExamen.After(today.Time) {
			sl.ReportError(data.FechaUltimoExamen, "fecha_ultimo_examen", "FechaUltimoExamen", fechaFuturaTag, "")
		}
	case RegistroExamen:
		if data.Fecha.IsZero() {
			sl.ReportError(data.Fecha, "fecha", "Fecha", fechaRequiredTag, "")
		} else if data.Fecha.After(today.Time) {
			sl.ReportError(data.Fecha, "fecha", "Fecha", fechaFuturaTag, "")
		}
	}
}
