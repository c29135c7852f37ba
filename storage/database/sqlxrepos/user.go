package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core/user"
	"github.com/atuch/dojang/storage/database"
)

var userColumns = []string{"id", "email", "is_active", "password_hash", "created_at", "updated_at", "last_login"}

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{baseRepository: newBaseRepository(db)}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Insert("users").
		Columns(userColumns...).
		Values(usr.ID, usr.Email, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin)
	if _, err := execute(ctx, repo.db, q); err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, where sq.Eq, msg string) (user.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var usr user.User
	q := repo.sb.Select(userColumns...).From("users").Where(where)
	if err := getOne(ctx, repo.db, &usr, q); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, msg)
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"id": id}, "finding user by ID")
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"email": email}, "finding user by email")
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Update("users").
		Set("email", usr.Email).
		Set("is_active", usr.IsActive).
		Set("password_hash", usr.PasswordHash).
		Set("updated_at", usr.UpdatedAt).
		Set("last_login", usr.LastLogin).
		Where(sq.Eq{"id": usr.ID})
	res, err := execute(ctx, repo.db, q)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

var roleColumns = []string{
	"user_id", "email", "role", "instructor_id", "sede_id", "instructor_nombre", "sede_nombre", "role_created_at",
}

func (repo userRepository) QueryRoles(ctx context.Context, filter user.RoleFilter) ([]user.UserRole, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Select(roleColumns...).From("v_users_roles").OrderBy("email ASC")
	if filter.Search != "" {
		q = q.Where(repo.likeAny(filter.Search,
			"email", "COALESCE(instructor_nombre, '')", "COALESCE(sede_nombre, '')", "COALESCE(role, '')"))
	}

	roles := make([]user.UserRole, 0)
	if err := selectAll(ctx, repo.db, &roles, q); err != nil {
		return nil, errors.Wrap(err, "querying user roles")
	}
	return roles, nil
}

func (repo userRepository) GetRole(ctx context.Context, userID string) (user.UserRole, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var ur user.UserRole
	q := repo.sb.Select(roleColumns...).From("v_users_roles").Where(sq.Eq{"user_id": userID})
	if err := getOne(ctx, repo.db, &ur, q); err != nil {
		return user.UserRole{}, trapNoRowsErr(err, user.ErrNotFound, "getting user role")
	}
	return ur, nil
}

// UpsertRole replaces the role assignment of a user; created_at is kept on updates.
func (repo userRepository) UpsertRole(ctx context.Context, ur user.UpsertRole, at time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := repo.sb.Insert("user_roles").
		Columns("user_id", "role", "instructor_id", "sede_id", "created_at").
		Values(ur.UserID, ur.Role, ur.InstructorID, ur.SedeID, at).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET " +
			"role = excluded.role, instructor_id = excluded.instructor_id, sede_id = excluded.sede_id")
	if _, err := execute(ctx, repo.db, q); err != nil {
		if database.IsForeignKeyViolation(err) {
			return user.ErrInvalidReference
		}
		return errors.Wrap(err, "upserting user role")
	}
	return nil
}
