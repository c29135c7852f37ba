package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
)

var (
	// errors
	ErrNotFound           = errors.New("usuario no encontrado")
	ErrEmailExists        = errors.New("ya existe un usuario con este correo")
	ErrInvalidCredentials = errors.New("correo o contraseña incorrectos")
	ErrAccountDeactivated = errors.New("cuenta desactivada")
	ErrInvalidReference   = errors.New("el instructor o la sede seleccionada no existe")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// QueryRoles lists v_users_roles ordered by email.
		// RoleFilter.Search does a case-insensitive match on one of email, instructor name, sede name or role.
		QueryRoles(ctx context.Context, filter RoleFilter) ([]UserRole, error)
		GetRole(ctx context.Context, userID string) (UserRole, error)
		UpsertRole(ctx context.Context, ur UpsertRole, at time.Time) error
	}

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
		tokens   tokenGenerator
	}
)

func NewService(repo Repository, mailSvc core.EmailService, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		mailSvc:  mailSvc,
		validate: validate,
		tokens: tokenGenerator{
			secretKey: conf.SecretKey,
			timeout:   conf.PasswordResetTimeoutDelta,
		},
	}
}

func (svc *Service) checkUniqueness(err error) error {
	if errors.Cause(err) == ErrEmailExists {
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	}
	return err
}

// Signup creates an active User without any role; an admin must assign one.
func (svc *Service) Signup(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.NewString(),
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, svc.checkUniqueness(err)
	}
	return usr, nil
}

// Authenticate checks the credentials of a User and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// GetRole returns the role assignment of a User; UserRole.Role is null when none was given.
func (svc *Service) GetRole(ctx context.Context, userID string) (UserRole, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return UserRole{}, ErrNotFound
	}
	return svc.repo.GetRole(ctx, userID)
}

func (svc *Service) QueryRoles(ctx context.Context, filter RoleFilter) ([]UserRole, error) {
	filter.Clean()
	return svc.repo.QueryRoles(ctx, filter)
}

// UpsertRole gives a role to a User. Admins lose any instructor and sede binding.
func (svc *Service) UpsertRole(ctx context.Context, ur UpsertRole) (UserRole, error) {
	if err := ur.Validate(svc.validate); err != nil {
		return UserRole{}, err
	}
	if _, err := svc.GetByID(ctx, ur.UserID); err != nil {
		return UserRole{}, err
	}

	if err := svc.repo.UpsertRole(ctx, ur, time.Now().UTC()); err != nil {
		if errors.Cause(err) == ErrInvalidReference {
			return UserRole{}, core.NewValidationError(ErrInvalidReference)
		}
		return UserRole{}, errors.Wrap(err, "upserting user role")
	}
	return svc.repo.GetRole(ctx, ur.UserID)
}

// SetPassword sets the password of a User without applying the password policy.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetActive activates or deactivates a User. Deactivated users can't log in.
func (svc *Service) SetActive(ctx context.Context, email string, active bool) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	usr.IsActive = active
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// AddUser updates or creates an active User with the given password. Used by the admin CLI.
func (svc *Service) AddUser(ctx context.Context, email, pwd string, isAdmin bool) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if err := svc.validate.Var(email, "required,email"); err != nil {
		return User{}, err
	}

	usr, err := svc.repo.GetUserByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		usr.IsActive = true
		if usr, err = svc.SetPassword(ctx, usr, pwd); err != nil {
			return User{}, err
		}
	case ErrNotFound:
		now := time.Now().UTC()
		usr = User{ID: uuid.NewString(), Email: email, IsActive: true, CreatedAt: now, UpdatedAt: now}
		if err = usr.SetPassword(pwd); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
		if usr, err = svc.repo.CreateUser(ctx, usr); err != nil {
			return User{}, errors.Wrap(err, "creating user")
		}
	default:
		return User{}, errors.Wrap(err, "finding user by email")
	}

	if isAdmin {
		if _, err = svc.UpsertRole(ctx, UpsertRole{UserID: usr.ID, Role: RoleAdmin}); err != nil {
			return User{}, err
		}
	}
	return usr, nil
}

// RequestPasswordReset mails a password reset link to an active User.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrAccountDeactivated
	}
	return svc.sendPasswordResetMail(usr)
}

func (svc *Service) sendPasswordResetMail(usr User) error {
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: usr.Email}},
		Subject:      "Restablece tu contraseña",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Email": usr.Email,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
	return nil
}

// ResetPassword sets a new password after checking the reset token.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	if err := rp.Validate(svc.validate); err != nil {
		return User{}, err
	}

	uid, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, uid)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, core.NewValidationError(errInvalidToken)
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return User{}, core.NewValidationError(err)
	}
	return svc.SetPassword(ctx, usr, rp.Password)
}
