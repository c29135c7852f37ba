package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/testutil"
)

func TestInstructorRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := NewInstructorRepository(db)
	sedeRepo := NewSedeRepository(db)

	centro := testutil.CreateSede(t, sedeRepo, "Centro")
	norte := testutil.CreateSede(t, sedeRepo, "Norte")

	juan := testutil.CreateInstructor(t, repo, "Juan", "Pérez", "juan@atuch.cl", norte.ID, centro.ID)
	maria := testutil.CreateInstructor(t, repo, "María", "Soto", "maria@atuch.cl", centro.ID)

	t.Run("links are created with the instructor", func(t *testing.T) {
		assert.Equal(t, []int64{centro.ID, norte.ID}, juan.SedeIDs())
		assert.Equal(t, "Centro", juan.Sedes[0].Nombre)
		assert.Equal(t, instructor.DefaultRolEnSede, juan.Sedes[0].RolEnSede)
	})

	t.Run("query", func(t *testing.T) {
		all, err := repo.QueryInstructores(ctx, instructor.QueryFilter{})
		require.NoError(t, err)
		if assert.Len(t, all, 2) {
			assert.Equal(t, maria.ID, all[0].ID) // newest first
			assert.Equal(t, juan.ID, all[1].ID)
		}

		inNorte, err := repo.QueryInstructores(ctx, instructor.QueryFilter{SedeID: norte.ID})
		require.NoError(t, err)
		if assert.Len(t, inNorte, 1) {
			assert.Equal(t, juan.ID, inNorte[0].ID)
			assert.Len(t, inNorte[0].Sedes, 2)
		}

		n, err := repo.CountInstructores(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("update replaces links", func(t *testing.T) {
		juan.Grado = "V Dan"
		got, err := repo.UpdateInstructor(ctx, juan, []int64{norte.ID})
		require.NoError(t, err)
		assert.Equal(t, "V Dan", got.Grado)
		assert.Equal(t, []int64{norte.ID}, got.SedeIDs())

		// nil keeps the links
		got, err = repo.UpdateInstructor(ctx, got, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{norte.ID}, got.SedeIDs())
	})

	t.Run("failed update rolls back", func(t *testing.T) {
		juan.Nombre = "Juan Carlos"
		_, err := repo.UpdateInstructor(ctx, juan, []int64{norte.ID, 999})
		assert.Equal(t, instructor.ErrSedeNotFound, err)

		got, err := repo.GetInstructor(ctx, juan.ID)
		require.NoError(t, err)
		assert.Equal(t, "Juan", got.Nombre)
		assert.Equal(t, []int64{norte.ID}, got.SedeIDs())
	})

	t.Run("constraint errors", func(t *testing.T) {
		ins := instructor.Instructor{Nombre: "Otro", Apellido: "Más", Grado: "I Dan", Correo: "juan@atuch.cl", CreatedAt: time.Now().UTC()}
		_, err := repo.CreateInstructor(ctx, ins, []int64{centro.ID})
		assert.Equal(t, instructor.ErrCorreoExists, err)

		ins.Correo = "otro@atuch.cl"
		_, err = repo.CreateInstructor(ctx, ins, []int64{999})
		assert.Equal(t, instructor.ErrSedeNotFound, err)

		n, err := repo.CountInstructores(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteInstructor(ctx, maria.ID))
		_, err := repo.GetInstructor(ctx, maria.ID)
		assert.Equal(t, instructor.ErrNotFound, err)
		assert.Equal(t, instructor.ErrNotFound, repo.DeleteInstructor(ctx, maria.ID))
	})
}
