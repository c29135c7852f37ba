// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"regexp"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/core/sede"
	"github.com/atuch/dojang/core/user"
	"github.com/atuch/dojang/storage/database"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// NewConfig returns the test configuration, on an in-memory SQLite database.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Env = "TEST"
	conf.TestMode = true
	conf.Debug = true
	conf.RollbarToken = ""
	conf.SendgridApiKey = ""
	conf.Database.Engine = database.EngineSQLite
	conf.Cache.RedisURL = ""
	return conf
}

// NewValidator returns a validator with every custom validation and Spanish translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	instructor.InitValidators(validate, translator)
	alumno.InitValidators(validate, translator)
	pago.InitValidators(validate, translator)
	user.LoadCommonPasswords(nil)
	return validate, translator
}

// PrepareDB opens a private in-memory SQLite database named after the test and runs the migrations.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:" + nonAlnum.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, repo user.Repository, email, pwd string, isActive bool, createdAt ...time.Time) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        newUUID(t),
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// SetRole gives a role to a user, bound to an instructor and a sede when ids are positive.
func SetRole(t *testing.T, repo user.Repository, userID, role string, instructorID, sedeID int64) {
	t.Helper()
	ur := user.UpsertRole{
		UserID:       userID,
		Role:         role,
		InstructorID: null.NewInt64(instructorID, instructorID > 0),
		SedeID:       null.NewInt64(sedeID, sedeID > 0),
	}
	if err := repo.UpsertRole(context.Background(), ur, time.Now().UTC()); err != nil {
		t.Fatalf("SetRole() failed: %v", err)
	}
}

func CreateSede(t *testing.T, repo sede.Repository, nombre string) sede.Sede {
	t.Helper()
	s, err := repo.CreateSede(context.Background(), sede.Sede{
		Nombre:    nombre,
		Direccion: "Av. Siempre Viva 742",
		Telefono:  "+56 9 1234 5678",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSede() failed: %v", err)
	}
	return s
}

func CreateInstructor(t *testing.T, repo instructor.Repository, nombre, apellido, correo string, sedeIDs ...int64) instructor.Instructor {
	t.Helper()
	ins, err := repo.CreateInstructor(context.Background(), instructor.Instructor{
		Nombre:    nombre,
		Apellido:  apellido,
		Grado:     instructor.DefaultGrado,
		Correo:    correo,
		CreatedAt: time.Now().UTC(),
	}, sedeIDs)
	if err != nil {
		t.Fatalf("CreateInstructor() failed: %v", err)
	}
	return ins
}

// CreateAlumno inserts an active alumno; opts may adjust it before insertion.
func CreateAlumno(t *testing.T, repo alumno.Repository, nombres, apellidos, rut string, sedeID, instructorID int64, opts ...func(*alumno.Alumno)) alumno.Alumno {
	t.Helper()
	now := time.Now().UTC()
	a := alumno.Alumno{
		Nombres:      nombres,
		Apellidos:    apellidos,
		RUT:          core.NormalizeRUT(rut),
		SedeID:       null.NewInt64(sedeID, sedeID > 0),
		InstructorID: null.NewInt64(instructorID, instructorID > 0),
		Activo:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(&a)
	}
	a, err := repo.CreateAlumno(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAlumno() failed: %v", err)
	}
	return a
}

// CreatePago inserts a pago, paid at pagadoEn when given.
func CreatePago(t *testing.T, repo pago.Repository, alumnoID int64, mes string, anio int, monto int64, pagadoEn ...time.Time) pago.Pago {
	t.Helper()
	p := pago.Pago{
		AlumnoID:   alumnoID,
		Mes:        mes,
		Anio:       anio,
		Monto:      monto,
		MetodoPago: "Transferencia",
		CreatedAt:  time.Now().UTC(),
	}
	if len(pagadoEn) > 0 {
		p.Pagado = true
		p.PagadoEn = null.TimeFrom(pagadoEn[0].UTC())
	}
	p, err := repo.CreatePago(context.Background(), p)
	if err != nil {
		t.Fatalf("CreatePago() failed: %v", err)
	}
	return p
}

// Date parses a YYYY-MM-DD date or fails the test.
func Date(t *testing.T, s string) *core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("Date(%q) failed: %v", s, err)
	}
	return &d
}

func newUUID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewRandom()
	if err != nil {
		t.Fatalf("newUUID() failed: %v", err)
	}
	return id.String()
}
