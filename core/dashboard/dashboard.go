package dashboard

import (
	"math"
	"time"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/core/sede"
)

const (
	SinSede  = "Sin sede"
	SinGrado = "-"
)

type (
	Dashboard struct {
		TotalAlumnos       int                   `json:"total_alumnos"`
		AlumnosActivos     int                   `json:"alumnos_activos"`
		TotalInstructores  int                   `json:"total_instructores"`
		TotalSedes         int                   `json:"total_sedes"`
		PromedioEdad       *int                  `json:"promedio_edad"`
		ExamenesPendientes int                   `json:"examenes_pendientes"`
		Distribucion       []SedeCount           `json:"distribucion"`
		Alumnos            []AlumnoExamen        `json:"alumnos"`
		TotalRecaudado     int64                 `json:"total_recaudado"`
		IngresosMensuales  []pago.IngresoMensual `json:"ingresos_mensuales"`
		GeneradoEn         time.Time             `json:"generado_en"`
	}

	SedeCount struct {
		Sede     string `json:"sede"`
		Cantidad int    `json:"cantidad"`
	}

	// AlumnoExamen is a row of the exam status table.
	AlumnoExamen struct {
		ID                int64      `json:"id"`
		NombreCompleto    string     `json:"nombre_completo"`
		Sede              string     `json:"sede"`
		Grado             string     `json:"grado"`
		FechaUltimoExamen *core.Date `json:"fecha_ultimo_examen"`
		DiasDesdeExamen   *int       `json:"dias_desde_examen"`
		Estado            string     `json:"estado"`
	}
)

// Compute derives the dashboard statistics at now, in one pass over each collection.
// Alumnos are grouped by the name of their sede; a missing or unknown sede counts as SinSede.
func Compute(now time.Time, alumnos []alumno.Alumno, sedes []sede.Sede, totalInstructores int, pagos []pago.Pago) Dashboard {
	nombres := make(map[int64]string, len(sedes))
	for _, s := range sedes {
		nombres[s.ID] = s.Nombre
	}

	dash := Dashboard{
		TotalAlumnos:      len(alumnos),
		TotalInstructores: totalInstructores,
		TotalSedes:        len(sedes),
		Distribucion:      []SedeCount{},
		Alumnos:           make([]AlumnoExamen, 0, len(alumnos)),
		GeneradoEn:        now.UTC(),
	}

	var sumaEdades, conEdad int
	posicion := make(map[string]int) // sede name -> index in Distribucion
	for _, a := range alumnos {
		if a.Activo {
			dash.AlumnosActivos++
		}
		if edad := alumno.Edad(a.FechaNacimiento, now); edad != nil {
			sumaEdades += *edad
			conEdad++
		}

		dias := alumno.DiasDesde(a.FechaUltimoExamen, now)
		if alumno.ExamenPendiente(dias) {
			dash.ExamenesPendientes++
		}

		nombreSede := SinSede
		if n, ok := nombres[a.SedeID.Int64]; a.SedeID.Valid && ok && n != "" {
			nombreSede = n
		}
		if i, ok := posicion[nombreSede]; ok {
			dash.Distribucion[i].Cantidad++
		} else {
			posicion[nombreSede] = len(dash.Distribucion)
			dash.Distribucion = append(dash.Distribucion, SedeCount{Sede: nombreSede, Cantidad: 1})
		}

		grado := SinGrado
		if a.Grado.Valid && a.Grado.String != "" {
			grado = a.Grado.String
		}
		dash.Alumnos = append(dash.Alumnos, AlumnoExamen{
			ID:                a.ID,
			NombreCompleto:    a.NombreCompleto(),
			Sede:              nombreSede,
			Grado:             grado,
			FechaUltimoExamen: a.FechaUltimoExamen,
			DiasDesdeExamen:   dias,
			Estado:            alumno.EstadoExamen(dias),
		})
	}

	if conEdad > 0 {
		promedio := int(math.Round(float64(sumaEdades) / float64(conEdad)))
		dash.PromedioEdad = &promedio
	}

	resumen := pago.Resumir(pagos)
	dash.TotalRecaudado = resumen.TotalRecaudado
	dash.IngresosMensuales = resumen.IngresosMensuales
	return dash
}
