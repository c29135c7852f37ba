package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core/user"
	"github.com/atuch/dojang/testutil"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := NewUserRepository(db)

	usr := testutil.CreateUser(t, repo, "ana@atuch.cl", "Secreta123!", true)

	t.Run("get by id and email", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "ana@atuch.cl", got.Email)
		assert.True(t, got.IsActive)
		assert.NoError(t, got.CheckPassword("Secreta123!"))
		assert.False(t, got.LastLogin.Valid)

		got, err = repo.GetUserByEmail(ctx, "ana@atuch.cl")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)

		_, err = repo.GetUserByEmail(ctx, "nadie@atuch.cl")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := usr
		dup.ID = "5f0c5f5e-8f6b-4a8a-9c55-2f8e3c1c2a10"
		_, err := repo.CreateUser(ctx, dup)
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("update", func(t *testing.T) {
		usr.IsActive = false
		usr.LastLogin = null.TimeFrom(time.Now().UTC())
		_, err := repo.UpdateUser(ctx, usr)
		require.NoError(t, err)

		got, err := repo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
		assert.True(t, got.LastLogin.Valid)

		missing := usr
		missing.ID = "5f0c5f5e-8f6b-4a8a-9c55-2f8e3c1c2a11"
		missing.Email = "otra@atuch.cl"
		_, err = repo.UpdateUser(ctx, missing)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestUserRepository_Roles(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	repo := NewUserRepository(db)
	centro := testutil.CreateSede(t, NewSedeRepository(db), "Centro")
	ins := testutil.CreateInstructor(t, NewInstructorRepository(db), "Juan", "Pérez", "juan@atuch.cl", centro.ID)

	admin := testutil.CreateUser(t, repo, "admin@atuch.cl", "Secreta123!", true)
	profe := testutil.CreateUser(t, repo, "profe@atuch.cl", "Secreta123!", true)
	nuevo := testutil.CreateUser(t, repo, "nuevo@atuch.cl", "Secreta123!", true)

	testutil.SetRole(t, repo, admin.ID, user.RoleAdmin, 0, 0)
	testutil.SetRole(t, repo, profe.ID, user.RoleInstructor, ins.ID, centro.ID)

	t.Run("get role", func(t *testing.T) {
		ur, err := repo.GetRole(ctx, profe.ID)
		require.NoError(t, err)
		assert.True(t, ur.IsInstructor())
		assert.Equal(t, null.StringFrom("Juan Pérez"), ur.InstructorNombre)
		assert.Equal(t, null.StringFrom("Centro"), ur.SedeNombre)
		sedeID, ok := ur.ScopedSedeID()
		assert.True(t, ok)
		assert.Equal(t, centro.ID, sedeID)

		ur, err = repo.GetRole(ctx, nuevo.ID)
		require.NoError(t, err)
		assert.False(t, ur.HasRole())
		assert.False(t, ur.InstructorNombre.Valid)

		_, err = repo.GetRole(ctx, "5f0c5f5e-8f6b-4a8a-9c55-2f8e3c1c2a12")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("query roles", func(t *testing.T) {
		tests := []struct {
			search string
			want   []string
		}{
			{"", []string{"admin@atuch.cl", "nuevo@atuch.cl", "profe@atuch.cl"}},
			{"CENTRO", []string{"profe@atuch.cl"}},
			{"pérez", []string{"profe@atuch.cl"}},
			{"admin", []string{"admin@atuch.cl"}},
			{"nada", []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.search, func(t *testing.T) {
				roles, err := repo.QueryRoles(ctx, user.RoleFilter{Search: tt.search})
				require.NoError(t, err)
				emails := make([]string, 0, len(roles))
				for _, r := range roles {
					emails = append(emails, r.Email)
				}
				assert.Equal(t, tt.want, emails)
			})
		}
	})

	t.Run("upsert replaces the role", func(t *testing.T) {
		err := repo.UpsertRole(ctx, user.UpsertRole{UserID: profe.ID, Role: user.RoleAdmin}, time.Now().UTC())
		require.NoError(t, err)
		ur, err := repo.GetRole(ctx, profe.ID)
		require.NoError(t, err)
		assert.True(t, ur.IsAdmin())
		assert.False(t, ur.SedeID.Valid)
		assert.False(t, ur.InstructorID.Valid)
	})

	t.Run("unknown references", func(t *testing.T) {
		err := repo.UpsertRole(ctx, user.UpsertRole{
			UserID: nuevo.ID,
			Role:   user.RoleInstructor,
			SedeID: null.Int64From(999),
		}, time.Now().UTC())
		assert.Equal(t, user.ErrInvalidReference, err)
	})
}
