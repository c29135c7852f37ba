package echoapi

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/user"
)

const (
	audience = "dojang"

	contextClaimsKey = "userClaims"
	contextUserKey   = "user"
	contextRoleKey   = "userRole"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	SedeID       int64  `json:"sede_id,omitempty"`
}

// TokenIssuer signs and verifies the HS256 JWTs of the API.
type TokenIssuer struct {
	issuer                 string
	secretKey              []byte
	expirationDelta        time.Duration
	refreshExpirationDelta time.Duration
}

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{
		issuer:                 conf.AppName,
		secretKey:              []byte(conf.SecretKey),
		expirationDelta:        conf.JWTExpirationDelta,
		refreshExpirationDelta: conf.JWTRefreshExpirationDelta,
	}
}

// UserClaims returns the Claims of usr. origIat is kept across refreshes.
func (ti *TokenIssuer) UserClaims(usr user.User, ur user.UserRole, origIat ...int64) *Claims {
	now := time.Now()

	oriat := now.Unix()
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   usr.ID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         ur.Role.String,
	}
	if sedeID, ok := ur.ScopedSedeID(); ok {
		claims.SedeID = sedeID
	}
	return claims
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (ti *TokenIssuer) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(ti.secretKey)
	return ss, errors.Wrap(err, "signing token")
}

func (ti *TokenIssuer) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, new(Claims), func(*jwt.Token) (interface{}, error) {
		return ti.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// jwtMiddleware authenticates requests carrying an "Authorization: Bearer <token>" header.
func jwtMiddleware(ti *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			scheme, tokenStr, ok := strings.Cut(ctx.Request().Header.Get(echo.HeaderAuthorization), " ")
			tokenStr = strings.TrimSpace(tokenStr)
			if !ok || !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
				return errJWTMissing
			}
			claims, err := ti.parse(tokenStr)
			if err != nil {
				return errInvalidToken(err)
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

// getContextUser loads the authenticated User once per request.
func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

// getContextRole loads the role of the authenticated User once per request.
// Roles are read from the database so that changes apply without a new token.
func getContextRole(ctx echo.Context, svc *user.Service) (user.UserRole, error) {
	if ur, ok := ctx.Get(contextRoleKey).(user.UserRole); ok {
		return ur, nil
	}

	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return user.UserRole{}, err
	}
	ur, err := svc.GetRole(ctx.Request().Context(), usr.ID)
	if err != nil {
		return user.UserRole{}, errors.Wrap(err, "finding user role")
	}
	ctx.Set(contextRoleKey, ur)
	return ur, nil
}

// contextSedeScope returns the sede the authenticated instructor is restricted to, if any.
// Only valid behind roleMiddleware.
func contextSedeScope(ctx echo.Context) (int64, bool) {
	if ur, ok := ctx.Get(contextRoleKey).(user.UserRole); ok {
		return ur.ScopedSedeID()
	}
	return 0, false
}

func refreshToken(ctx echo.Context, svc *user.Service, ti *TokenIssuer) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}

	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return "", err
	}
	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(ti.refreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	ur, err := getContextRole(ctx, svc)
	if err != nil {
		return "", err
	}
	return ti.GenerateToken(ti.UserClaims(usr, ur, claims.OrigIssuedAt))
}
