package pago_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/pago"
	emailsvc "github.com/atuch/dojang/services/email"
	"github.com/atuch/dojang/storage/database/sqlxrepos"
	"github.com/atuch/dojang/testutil"
)

// racingRepo flips a Pago right after the first read of it, as a concurrent request would.
type racingRepo struct {
	pago.Repository
	raced bool
}

func (r *racingRepo) GetPago(ctx context.Context, id int64) (pago.Pago, error) {
	p, err := r.Repository.GetPago(ctx, id)
	if err == nil && !r.raced {
		r.raced = true
		_, err = r.Repository.SetPagado(ctx, id, !p.Pagado, null.NewTime(time.Now().UTC(), !p.Pagado))
	}
	return p, err
}

// stuckRepo never applies an update.
type stuckRepo struct {
	pago.Repository
}

func (stuckRepo) SetPagado(context.Context, int64, bool, null.Time) (bool, error) {
	return false, nil
}

func TestService_Toggle_concurrent(t *testing.T) {
	ctx := context.Background()
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(conf, nil)
	db := testutil.PrepareDB(t)
	validate, _ := testutil.NewValidator()
	mailSvc := emailsvc.NewServiceMock(conf)
	repo := sqlxrepos.NewPagoRepository(db)

	ana := testutil.CreateAlumno(t, sqlxrepos.NewAlumnoRepository(db), "Ana", "Zúñiga", "12345678-5", 0, 0, func(a *alumno.Alumno) {
		a.Email = "ana@correo.cl"
	})
	p, err := pago.NewService(repo, mailSvc, validate).Create(ctx, pago.NewPago{AlumnoID: ana.ID, Mes: "Mayo", Anio: 2024, Monto: 35000})
	require.NoError(t, err)

	t.Run("both flips apply", func(t *testing.T) {
		svc := pago.NewService(&racingRepo{Repository: repo}, mailSvc, validate)
		got, err := svc.Toggle(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, got.Pagado)
		assert.False(t, got.PagadoEn.Valid)
		assert.Empty(t, mailSvc.SentMessages())

		stored, err := repo.GetPago(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, stored.Pagado)
	})

	t.Run("gives up", func(t *testing.T) {
		svc := pago.NewService(stuckRepo{Repository: repo}, mailSvc, validate)
		_, err := svc.Toggle(ctx, p.ID)
		assert.Equal(t, pago.ErrConflict, errors.Cause(err))
	})

	t.Run("unknown", func(t *testing.T) {
		svc := pago.NewService(repo, mailSvc, validate)
		_, err := svc.Toggle(ctx, 999)
		assert.Equal(t, pago.ErrNotFound, err)
		_, err = svc.SetPagado(ctx, 999, true)
		assert.Equal(t, pago.ErrNotFound, err)
	})
}

func TestService(t *testing.T) {
	ctx := context.Background()
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(conf, nil)
	db := testutil.PrepareDB(t)
	validate, translator := testutil.NewValidator()
	mailSvc := emailsvc.NewServiceMock(conf)
	svc := pago.NewService(sqlxrepos.NewPagoRepository(db), mailSvc, validate)

	alumnoRepo := sqlxrepos.NewAlumnoRepository(db)
	ana := testutil.CreateAlumno(t, alumnoRepo, "Ana", "Zúñiga", "12345678-5", 0, 0, func(a *alumno.Alumno) {
		a.Email = "ana@correo.cl"
	})
	beto := testutil.CreateAlumno(t, alumnoRepo, "Beto", "Araya", "11111111-1", 0, 0)

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			np   pago.NewPago
			want map[string]string
		}{
			{"empty", pago.NewPago{}, map[string]string{
				"alumno_id": "este campo es obligatorio",
				"mes":       "este campo es obligatorio",
				"anio":      "este campo es obligatorio",
				"monto":     "este campo es obligatorio",
			}},
			{"bad mes", pago.NewPago{AlumnoID: ana.ID, Mes: "Brumario", Anio: 2024, Monto: 30000}, map[string]string{
				"mes": "el mes no es válido",
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tt.np)
				flds, ok := core.FieldErrors(err, translator)
				require.True(t, ok)
				assert.Equal(t, tt.want, flds)
			})
		}
	})

	t.Run("unknown alumno", func(t *testing.T) {
		_, err := svc.Create(ctx, pago.NewPago{AlumnoID: 999, Mes: "Enero", Anio: 2024, Monto: 30000})
		flds, ok := core.FieldErrors(err, translator)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"alumno_id": pago.ErrAlumnoNotFound.Error()}, flds)
	})

	var marzo pago.Pago
	t.Run("create paid sends a receipt", func(t *testing.T) {
		mailSvc.Reset()
		p, err := svc.Create(ctx, pago.NewPago{
			AlumnoID:   ana.ID,
			Mes:        "marzo",
			Anio:       2024,
			Monto:      35000,
			MetodoPago: " Efectivo ",
			Pagado:     true,
		})
		require.NoError(t, err)
		assert.Equal(t, "Marzo", p.Mes)
		assert.Equal(t, "Efectivo", p.MetodoPago)
		assert.True(t, p.PagadoEn.Valid)
		require.NotNil(t, p.Alumno)
		assert.Equal(t, "Ana", p.Alumno.Nombres)

		sent := mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "ana@correo.cl", sent[0].To[0].Address)
		assert.Equal(t, "Recibo de pago Marzo 2024", sent[0].Subject)
		assert.Contains(t, sent[0].TextContent, "Monto: $35.000")
		assert.Contains(t, sent[0].TextContent, "Método de pago: Efectivo")
		marzo = p
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := svc.Create(ctx, pago.NewPago{AlumnoID: ana.ID, Mes: "3", Anio: 2024, Monto: 35000})
		flds, ok := core.FieldErrors(err, translator)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"mes": pago.ErrPagoExists.Error()}, flds)
	})

	var abril pago.Pago
	t.Run("create unpaid", func(t *testing.T) {
		mailSvc.Reset()
		p, err := svc.Create(ctx, pago.NewPago{AlumnoID: ana.ID, Mes: "Abril", Anio: 2024, Monto: 35000})
		require.NoError(t, err)
		assert.False(t, p.Pagado)
		assert.False(t, p.PagadoEn.Valid)
		assert.Empty(t, mailSvc.SentMessages())
		abril = p
	})

	t.Run("toggle", func(t *testing.T) {
		mailSvc.Reset()
		p, err := svc.Toggle(ctx, abril.ID)
		require.NoError(t, err)
		assert.True(t, p.Pagado)
		assert.True(t, p.PagadoEn.Valid)
		assert.Len(t, mailSvc.SentMessages(), 1)

		p, err = svc.Toggle(ctx, abril.ID)
		require.NoError(t, err)
		assert.False(t, p.Pagado)
		assert.False(t, p.PagadoEn.Valid)
		assert.Len(t, mailSvc.SentMessages(), 1)

		got, err := svc.Get(ctx, abril.ID)
		require.NoError(t, err)
		assert.False(t, got.Pagado)
		assert.False(t, got.PagadoEn.Valid)
	})

	t.Run("set pagado unchanged", func(t *testing.T) {
		mailSvc.Reset()
		p, err := svc.SetPagado(ctx, marzo.ID, true)
		require.NoError(t, err)
		assert.Equal(t, marzo.PagadoEn.Time.Unix(), p.PagadoEn.Time.Unix())
		assert.Empty(t, mailSvc.SentMessages())
	})

	t.Run("no receipt without email", func(t *testing.T) {
		mailSvc.Reset()
		_, err := svc.Create(ctx, pago.NewPago{AlumnoID: beto.ID, Mes: "Marzo", Anio: 2024, Monto: 30000, Pagado: true})
		require.NoError(t, err)
		assert.Empty(t, mailSvc.SentMessages())
	})

	t.Run("resumen", func(t *testing.T) {
		res, err := svc.Resumen(ctx, pago.QueryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(65000), res.TotalRecaudado)
		require.Len(t, res.IngresosMensuales, 1)
		assert.Equal(t, time.Now().UTC().Format("2006-01"), res.IngresosMensuales[0].Mes)

		res, err = svc.Resumen(ctx, pago.QueryFilter{AlumnoID: ana.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(35000), res.TotalRecaudado)
	})

	t.Run("query by mes", func(t *testing.T) {
		pagos, err := svc.Query(ctx, pago.QueryFilter{Mes: "marzo"})
		require.NoError(t, err)
		assert.Len(t, pagos, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, abril.ID))
		_, err := svc.Get(ctx, abril.ID)
		assert.Equal(t, pago.ErrNotFound, err)
		assert.Equal(t, pago.ErrNotFound, svc.Delete(ctx, abril.ID))
	})
}
