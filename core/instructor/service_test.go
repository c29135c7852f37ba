package instructor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/storage/database/sqlxrepos"
	"github.com/atuch/dojang/testutil"
)

func strPtr(s string) *string { return &s }

func TestService(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	validate, translator := testutil.NewValidator()
	svc := instructor.NewService(sqlxrepos.NewInstructorRepository(db), validate)

	sedeRepo := sqlxrepos.NewSedeRepository(db)
	centro := testutil.CreateSede(t, sedeRepo, "Centro")
	sur := testutil.CreateSede(t, sedeRepo, "Sur")

	t.Run("create invalid", func(t *testing.T) {
		tests := []struct {
			name string
			ni   instructor.NewInstructor
			want map[string]string
		}{
			{"empty", instructor.NewInstructor{}, map[string]string{
				"nombre":   "este campo es obligatorio",
				"apellido": "este campo es obligatorio",
				"correo":   "este campo es obligatorio",
				"sede_ids": "Selecciona al menos una sede.",
			}},
			{"bad grado and correo", instructor.NewInstructor{
				Nombre: "Juan", Apellido: "Pérez", Grado: "3° Kup", Correo: "juan", SedeIDs: []int64{centro.ID},
			}, map[string]string{
				"grado":  "el grado no es válido",
				"correo": "el correo no es válido",
			}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tt.ni)
				flds, ok := core.FieldErrors(err, translator)
				require.True(t, ok)
				assert.Equal(t, tt.want, flds)
			})
		}
	})

	juan, err := svc.Create(ctx, instructor.NewInstructor{
		Nombre:   "Juan",
		Apellido: "Pérez",
		Correo:   " Juan@ATUCH.cl",
		SedeIDs:  []int64{centro.ID, sur.ID, centro.ID},
	})
	require.NoError(t, err)

	t.Run("create defaults", func(t *testing.T) {
		assert.Equal(t, instructor.DefaultGrado, juan.Grado)
		assert.Equal(t, "juan@atuch.cl", juan.Correo)
		assert.ElementsMatch(t, []int64{centro.ID, sur.ID}, juan.SedeIDs())
		for _, s := range juan.Sedes {
			assert.Equal(t, instructor.DefaultRolEnSede, s.RolEnSede)
		}
	})

	t.Run("create conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, instructor.NewInstructor{
			Nombre: "Otro", Apellido: "Juan", Correo: "juan@atuch.cl", SedeIDs: []int64{centro.ID},
		})
		flds, ok := core.FieldErrors(err, translator)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"correo": instructor.ErrCorreoExists.Error()}, flds)

		_, err = svc.Create(ctx, instructor.NewInstructor{
			Nombre: "Pedro", Apellido: "Soto", Correo: "pedro@atuch.cl", SedeIDs: []int64{999},
		})
		flds, ok = core.FieldErrors(err, translator)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"sede_ids": instructor.ErrSedeNotFound.Error()}, flds)

		n, err := svc.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("update", func(t *testing.T) {
		got, err := svc.Update(ctx, juan.ID, instructor.UpdateInstructor{Grado: strPtr("V Dan")})
		require.NoError(t, err)
		assert.Equal(t, "V Dan", got.Grado)
		assert.ElementsMatch(t, []int64{centro.ID, sur.ID}, got.SedeIDs())

		got, err = svc.Update(ctx, juan.ID, instructor.UpdateInstructor{SedeIDs: []int64{sur.ID}})
		require.NoError(t, err)
		assert.Equal(t, []int64{sur.ID}, got.SedeIDs())

		_, err = svc.Update(ctx, juan.ID, instructor.UpdateInstructor{SedeIDs: []int64{}})
		flds, ok := core.FieldErrors(err, translator)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"sede_ids": "Selecciona al menos una sede."}, flds)

		_, err = svc.Update(ctx, 999, instructor.UpdateInstructor{Grado: strPtr("V Dan")})
		assert.Equal(t, instructor.ErrNotFound, err)
	})

	t.Run("query by sede", func(t *testing.T) {
		ins, err := svc.Query(ctx, instructor.QueryFilter{SedeID: centro.ID})
		require.NoError(t, err)
		assert.Empty(t, ins)

		ins, err = svc.Query(ctx, instructor.QueryFilter{SedeID: sur.ID})
		require.NoError(t, err)
		require.Len(t, ins, 1)
		assert.Equal(t, "Juan Pérez", ins[0].NombreCompleto())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, juan.ID))
		_, err := svc.Get(ctx, juan.ID)
		assert.Equal(t, instructor.ErrNotFound, err)
	})
}
