package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/user"
)

type userApi struct {
	svc      *user.Service
	tokens   *TokenIssuer
	validate *validator.Validate
	logger   core.Logger
}

func registerUserAPI(g *echo.Group, jwt, rateLimit, roles, admin echo.MiddlewareFunc, s *Server) {
	api := userApi{
		svc:      s.svcs.User,
		tokens:   s.tokens,
		validate: s.validate,
		logger:   s.logger,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/signup", api.signup, rateLimit)
	ag.POST("/login", api.login, rateLimit)
	ag.POST("/password-reset", api.resetPassword, rateLimit)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset, rateLimit)

	// authed endpoints
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.GET("/me", api.me, jwt)

	rg := g.Group("/admin/roles", jwt, roles, admin)
	rg.GET("", api.queryRoles)
	rg.PUT("/:user_id", api.upsertRole)
}

// Handlers

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}

	usr, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return errAuthenticationFailed
		case user.ErrAccountDeactivated:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}
	ur, err := api.svc.GetRole(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "finding user role")
	}

	token, err := api.tokens.GenerateToken(api.tokens.UserClaims(usr, ur))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email)
	switch errors.Cause(err) {
	case nil, user.ErrNotFound, user.ErrAccountDeactivated:
	default:
		// do not return errors to attackers
		api.logger.Error("requesting password reset", err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "Si el correo ingresado pertenece a una cuenta activa, " +
			"recibirás en breve un mensaje con instrucciones para restablecer tu contraseña.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}

	if _, err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Tu contraseña fue restablecida."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc, api.tokens)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	ur, err := getContextRole(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context role")
	}
	return ctx.JSON(http.StatusOK, MeResponse{User: usr, Role: ur.Role, InstructorID: ur.InstructorID, SedeID: ur.SedeID})
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	var filter user.RoleFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.UserRole{})
	}

	roles, err := api.svc.QueryRoles(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying roles")
	}
	if roles == nil {
		roles = []user.UserRole{}
	}
	return ctx.JSON(http.StatusOK, roles)
}

func (api *userApi) upsertRole(ctx echo.Context) error {
	var data user.UpsertRole
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertRole")
	}
	data.UserID = ctx.Param("user_id")

	ur, err := api.svc.UpsertRole(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting role")
	}
	return ctx.JSON(http.StatusOK, ur)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	MeResponse struct {
		user.User
		Role         null.String `json:"role"`
		InstructorID null.Int64  `json:"instructor_id"`
		SedeID       null.Int64  `json:"sede_id"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
