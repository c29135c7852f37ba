package echoapi_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/core/sede"
	"github.com/atuch/dojang/core/user"
	"github.com/atuch/dojang/testutil"
)

func Test_sedeApi(t *testing.T) {
	f := setup(t)
	_, adminToken := f.newUser(t, "admin@atuch.cl", user.RoleAdmin, 0)
	_, insToken := f.newUser(t, "profe@atuch.cl", user.RoleInstructor, 0)
	norte := testutil.CreateSede(t, f.sedes, "Norte")

	var centro sede.Sede
	t.Run("create", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/sedes", adminToken, []byte(`{"nombre": " Centro ", "direccion": "Alameda 123"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &centro)
		assert.Equal(t, "Centro", centro.Nombre)
		assert.Equal(t, "Alameda 123", centro.Direccion)
	})

	detail := "/v1/sedes/" + strconv.FormatInt(norte.ID, 10)
	runHTTPTests(t, f, []httpTest{
		{name: "create as instructor", method: http.MethodPost, path: "/v1/sedes", token: insToken, body: []byte(`{"nombre": "Sur"}`), wantCode: http.StatusForbidden},
		{
			name:     "create invalid",
			method:   http.MethodPost,
			path:     "/v1/sedes",
			token:    adminToken,
			body:     []byte(`{"nombre": ""}`),
			wantCode: http.StatusBadRequest,
			wantData: marshal(t, map[string]string{"nombre": "este campo es obligatorio"}),
		},
				{name: "retrieve unknown", method: http.MethodGet, path: "/v1/sedes/999", token: insToken, wantCode: http.StatusNotFound, wantData: errBody(sede.ErrNotFound.Error())},
		{name: "retrieve bad id", method: http.MethodGet, path: "/v1/sedes/abc", token: insToken, wantCode: http.StatusNotFound},
		{name: "update as instructor", method: http.MethodPut, path: detail, token: insToken, body: []byte(`{"nombre": "X"}`), wantCode: http.StatusForbidden},
	})

	t.Run("retrieve", func(t *testing.T) {
		rec := f.do(http.MethodGet, detail, insToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var s sede.Sede
		unmarshal(t, rec, &s)
		assert.Equal(t, norte.ID, s.ID)
		assert.Equal(t, "Norte", s.Nombre)
	})

	t.Run("query", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/sedes", insToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var sedes []sede.Sede
		unmarshal(t, rec, &sedes)
		require.Len(t, sedes, 2)
		assert.Equal(t, "Centro", sedes[0].Nombre)
		assert.Equal(t, "Norte", sedes[1].Nombre)
	})

	t.Run("update", func(t *testing.T) {
		rec := f.do(http.MethodPut, detail, adminToken, []byte(`{"telefono": "+56 2 2222 2222"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var s sede.Sede
		unmarshal(t, rec, &s)
		assert.Equal(t, "Norte", s.Nombre)
		assert.Equal(t, "+56 2 2222 2222", s.Telefono)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(http.MethodDelete, detail, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(http.MethodGet, detail, adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_instructorApi(t *testing.T) {
	f := setup(t)
	_, adminToken := f.newUser(t, "admin@atuch.cl", user.RoleAdmin, 0)
	_, insToken := f.newUser(t, "profe@atuch.cl", user.RoleInstructor, 0)
	centro := testutil.CreateSede(t, f.sedes, "Centro")
	sur := testutil.CreateSede(t, f.sedes, "Sur")

	runHTTPTests(t, f, []httpTest{
		{name: "grados", method: http.MethodGet, path: "/v1/instructores/grados", token: insToken, wantCode: http.StatusOK, wantData: marshal(t, instructor.Grados)},
		{
			name:     "create without sede",
			method:   http.MethodPost,
			path:     "/v1/instructores",
			token:    adminToken,
			body:     []byte(`{"nombre": "Juan", "apellido": "Pérez", "correo": "juan@atuch.cl"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshal(t, map[string]string{"sede_ids": "Selecciona al menos una sede."}),
		},
		{
			name:     "create as instructor",
			method:   http.MethodPost,
			path:     "/v1/instructores",
			token:    insToken,
			body:     marshal(t, map[string]interface{}{"nombre": "Juan", "apellido": "Pérez", "correo": "juan@atuch.cl", "sede_ids": []int64{centro.ID}}),
			wantCode: http.StatusForbidden,
		},
	})

	var juan instructor.Instructor
	t.Run("create", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/instructores", adminToken, marshal(t, map[string]interface{}{
			"nombre": "Juan", "apellido": "Pérez", "correo": "juan@atuch.cl", "sede_ids": []int64{centro.ID},
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &juan)
		assert.Equal(t, instructor.DefaultGrado, juan.Grado)
		require.Len(t, juan.Sedes, 1)
		assert.Equal(t, "Centro", juan.Sedes[0].Nombre)
		assert.Equal(t, instructor.DefaultRolEnSede, juan.Sedes[0].RolEnSede)
	})
	detail := "/v1/instructores/" + strconv.FormatInt(juan.ID, 10)

	t.Run("update sedes", func(t *testing.T) {
		rec := f.do(http.MethodPut, detail, adminToken, marshal(t, map[string]interface{}{"grado": "V Dan", "sede_ids": []int64{sur.ID}}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var in instructor.Instructor
		unmarshal(t, rec, &in)
		assert.Equal(t, "V Dan", in.Grado)
		require.Len(t, in.Sedes, 1)
		assert.Equal(t, sur.ID, in.Sedes[0].SedeID)
	})

	t.Run("query by sede", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/instructores?sede_id="+strconv.FormatInt(centro.ID, 10), insToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())

		rec = f.do(http.MethodGet, "/v1/instructores?sede_id="+strconv.FormatInt(sur.ID, 10), insToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var ins []instructor.Instructor
		unmarshal(t, rec, &ins)
		require.Len(t, ins, 1)
		assert.Equal(t, juan.ID, ins[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.do(http.MethodDelete, detail, insToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = f.do(http.MethodDelete, detail, adminToken)
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = f.do(http.MethodGet, detail, adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		ok, err := jsonBytesEqual(t, rec.Body.Bytes(), errBody(instructor.ErrNotFound.Error()))
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
