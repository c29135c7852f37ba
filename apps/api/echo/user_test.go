package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/atuch/dojang/apps/api/echo"
	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/user"
	"github.com/atuch/dojang/testutil"
)

func Test_userApi_signupAndLogin(t *testing.T) {
	f := setup(t)

	rec := f.do(http.MethodPost, "/v1/auth/signup", "", marshal(t, map[string]string{
		"email": "Ana@Atuch.cl", "password": pwd, "password_confirm": pwd,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var usr user.User
	unmarshal(t, rec, &usr)
	assert.Equal(t, "ana@atuch.cl", usr.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	runHTTPTests(t, f, []httpTest{
		{
			name:     "signup duplicate",
			method:   http.MethodPost,
			path:     "/v1/auth/signup",
			body:     marshal(t, map[string]string{"email": "ana@atuch.cl", "password": pwd, "password_confirm": pwd}),
			wantCode: http.StatusBadRequest,
			wantData: marshal(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name:     "login wrong password",
			method:   http.MethodPost,
			path:     "/v1/auth/login",
			body:     marshal(t, map[string]string{"email": "ana@atuch.cl", "password": "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: errBody(user.ErrInvalidCredentials.Error()),
		},
		{
			name:     "login unknown",
			method:   http.MethodPost,
			path:     "/v1/auth/login",
			body:     marshal(t, map[string]string{"email": "nadie@atuch.cl", "password": pwd}),
			wantCode: http.StatusBadRequest,
			wantData: errBody(user.ErrInvalidCredentials.Error()),
		},
		{
			name:     "login missing fields",
			method:   http.MethodPost,
			path:     "/v1/auth/login",
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("login", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/auth/login", "", marshal(t, map[string]string{"email": " ANA@atuch.cl", "password": pwd}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res echoapi.LoginResponse
		unmarshal(t, rec, &res)
		require.NotEmpty(t, res.Token)

		rec = f.do(http.MethodGet, "/v1/auth/me", res.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		var me map[string]interface{}
		unmarshal(t, rec, &me)
		assert.Equal(t, usr.ID, me["id"])
		assert.Equal(t, "ana@atuch.cl", me["email"])
		assert.Nil(t, me["role"])

		// no role yet
		rec = f.do(http.MethodGet, "/v1/alumnos", res.Token)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("login deactivated", func(t *testing.T) {
		_, err := f.userSvc.SetActive(context.Background(), "ana@atuch.cl", false)
		require.NoError(t, err)
		rec := f.do(http.MethodPost, "/v1/auth/login", "", marshal(t, map[string]string{"email": "ana@atuch.cl", "password": pwd}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	f := setup(t)
	usr, token := f.newUser(t, "ana@atuch.cl", user.RoleAdmin, 0)
	ur, err := f.userSvc.GetRole(context.Background(), usr.ID)
	require.NoError(t, err)

	t.Run("refresh", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/auth/token-refresh", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res echoapi.LoginResponse
		unmarshal(t, rec, &res)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("refresh expired", func(t *testing.T) {
		oriat := time.Now().Add(-f.conf.JWTRefreshExpirationDelta - time.Hour).Unix()
		old, err := f.tokens.GenerateToken(f.tokens.UserClaims(usr, ur, oriat))
		require.NoError(t, err)
		rec := f.do(http.MethodPost, "/v1/auth/token-refresh", old)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		ok, err := jsonBytesEqual(t, rec.Body.Bytes(), errBody("la renovación del token expiró"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := f.tokens.UserClaims(usr, ur)
		claims.ExpiresAt.Time = time.Now().Add(-time.Minute)
		old, err := f.tokens.GenerateToken(claims)
		require.NoError(t, err)
		rec := f.do(http.MethodPost, "/v1/auth/token-refresh", old)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	f := setup(t)
	f.newUser(t, "ana@atuch.cl", user.RoleAdmin, 0)
	newPwd := "Nq4!zR8%Tb"

	t.Run("unknown email", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/auth/password-reset", "", marshal(t, map[string]string{"email": "nadie@atuch.cl"}))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.mail.SentMessages())
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/auth/password-reset", "", marshal(t, map[string]string{"email": "nope"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec := f.do(http.MethodPost, "/v1/auth/password-reset", "", marshal(t, map[string]string{"email": "Ana@atuch.cl"}))
	require.Equal(t, http.StatusOK, rec.Code)
	sent := f.mail.SentMessages()
	require.Len(t, sent, 1)
	data := sent[0].TemplateData.(map[string]string)

	t.Run("bad token", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/auth/password-reset-confirm", "", marshal(t, map[string]string{
			"uid": data["UID"], "token": "1-abc", "password": newPwd, "password_confirm": newPwd,
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("confirm", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/auth/password-reset-confirm", "", marshal(t, map[string]string{
			"uid": data["UID"], "token": data["Token"], "password": newPwd, "password_confirm": newPwd,
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = f.do(http.MethodPost, "/v1/auth/login", "", marshal(t, map[string]string{"email": "ana@atuch.cl", "password": newPwd}))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_userApi_roles(t *testing.T) {
	f := setup(t)
	_, adminToken := f.newUser(t, "admin@atuch.cl", user.RoleAdmin, 0)
	centro := testutil.CreateSede(t, f.sedes, "Centro")
	_, insToken := f.newUser(t, "profe@atuch.cl", user.RoleInstructor, centro.ID)
	nuevo := testutil.CreateUser(t, f.users, "nuevo@atuch.cl", pwd, true)

	runHTTPTests(t, f, []httpTest{
		{name: "instructor forbidden", method: http.MethodGet, path: "/v1/admin/roles", token: insToken, wantCode: http.StatusForbidden},
		{
			name:     "missing role",
			method:   http.MethodPut,
			path:     "/v1/admin/roles/" + nuevo.ID,
			token:    adminToken,
			body:     []byte(`{"role": ""}`),
			wantCode: http.StatusBadRequest,
			wantData: marshal(t, map[string]string{"role": "Selecciona un rol para guardar."}),
		},
		{
			name:     "unknown user",
			method:   http.MethodPut,
			path:     "/v1/admin/roles/0b7c8a6e-3f51-4b8e-9d3a-2c6f1e0a9b77",
			token:    adminToken,
			body:     []byte(`{"role": "admin"}`),
			wantCode: http.StatusNotFound,
			wantData: errBody(user.ErrNotFound.Error()),
		},
	})

	t.Run("assign instructor", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/v1/admin/roles/"+nuevo.ID, adminToken, marshal(t, map[string]interface{}{
			"role": "Instructor", "sede_id": centro.ID,
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var ur user.UserRole
		unmarshal(t, rec, &ur)
		assert.Equal(t, user.RoleInstructor, ur.Role.String)
		assert.Equal(t, centro.ID, ur.SedeID.Int64)
		assert.Equal(t, "Centro", ur.SedeNombre.String)
	})

	t.Run("query", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/admin/roles", adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var roles []user.UserRole
		unmarshal(t, rec, &roles)
		assert.Len(t, roles, 3)

		rec = f.do(http.MethodGet, "/v1/admin/roles?search=centro", adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		unmarshal(t, rec, &roles)
		emails := make([]string, 0, len(roles))
		for _, ur := range roles {
			emails = append(emails, ur.Email)
		}
		assert.Equal(t, []string{"nuevo@atuch.cl", "profe@atuch.cl"}, emails)
	})
}

func Test_userApi_rateLimit(t *testing.T) {
	f := setup(t, func(conf *core.Config) { conf.Server.RateLimit = 2 })
	body := marshal(t, map[string]string{"email": "nadie@atuch.cl", "password": pwd})

	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPost, "/v1/auth/login", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := f.do(http.MethodPost, "/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
