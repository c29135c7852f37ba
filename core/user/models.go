package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/atuch/dojang/core"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

var AllRoles = []string{RoleAdmin, RoleInstructor}

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"` // UTC
	LastLogin    null.Time `db:"last_login" json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// UserRole is a row of the v_users_roles view: a user with its optional role assignment.
type UserRole struct {
	UserID           string      `db:"user_id" json:"user_id"`
	Email            string      `db:"email" json:"email"`
	Role             null.String `db:"role" json:"role"`
	InstructorID     null.Int64  `db:"instructor_id" json:"instructor_id"`
	SedeID           null.Int64  `db:"sede_id" json:"sede_id"`
	InstructorNombre null.String `db:"instructor_nombre" json:"instructor_nombre"`
	SedeNombre       null.String `db:"sede_nombre" json:"sede_nombre"`
	RoleCreatedAt    null.Time   `db:"role_created_at" json:"role_created_at"`
}

func (ur UserRole) HasRole() bool      { return ur.Role.Valid && ur.Role.String != "" }
func (ur UserRole) IsAdmin() bool      { return ur.Role.Valid && ur.Role.String == RoleAdmin }
func (ur UserRole) IsInstructor() bool { return ur.Role.Valid && ur.Role.String == RoleInstructor }

// ScopedSedeID returns the sede an instructor is restricted to, if any.
func (ur UserRole) ScopedSedeID() (int64, bool) {
	if ur.IsInstructor() && ur.SedeID.Valid {
		return ur.SedeID.Int64, true
	}
	return 0, false
}

// NewUser contains information needed to sign up.
type NewUser struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// UpsertRole assigns a role to a user, replacing any previous assignment.
type UpsertRole struct {
	UserID       string     `json:"-"`
	Role         string     `json:"role" validate:"role"`
	InstructorID null.Int64 `json:"instructor_id"`
	SedeID       null.Int64 `json:"sede_id"`
}

func (ur *UpsertRole) Validate(validate *validator.Validate) error {
	ur.Role = core.CleanString(ur.Role, true /* lower */)
	if ur.Role == RoleAdmin {
		// admins are not bound to an instructor nor a sede
		ur.InstructorID = null.Int64{}
		ur.SedeID = null.Int64{}
	}
	return validate.Struct(ur)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type RoleFilter struct {
	Search string `query:"search"`
}

func (rf *RoleFilter) Clean() {
	rf.Search = core.CleanString(rf.Search)
}
