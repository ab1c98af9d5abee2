package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/dao/inmem"
	"github.com/dekarrin/koto/server/middle"
	"github.com/dekarrin/koto/server/svc"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI() (API, dao.Store) {
	db := inmem.NewDatastore()
	return API{
		Backend: svc.Service{DB: db},
		Secret:  []byte("test-secret"),
	}, db
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withAuthUser(req *http.Request, u dao.User, loggedIn bool) *http.Request {
	ctx := context.WithValue(req.Context(), middle.AuthUser, u)
	ctx = context.WithValue(ctx, middle.AuthLoggedIn, loggedIn)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody writes result's body via the public Result/response API and
// unmarshals it into v, since Result's marshaled payload is private.
func decodeBody(t *testing.T, res interface {
	WriteResponse(http.ResponseWriter)
}, v interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	res.WriteResponse(w)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func Test_epCreateLogin_validCredentials_returnsToken(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "rose", "lalondepw", "")
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/api/v1/login", LoginRequest{Username: "rose", Password: "lalondepw"})
	result := a.epCreateLogin(req)
	require.Equal(t, http.StatusCreated, result.Status)

	var resp LoginResponse
	decodeBody(t, &result, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID.String(), resp.UserID)
}

func Test_epCreateLogin_badCredentials_isUnauthorized(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	req := jsonRequest(http.MethodPost, "/api/v1/login", LoginRequest{Username: "nobody", Password: "x"})
	result := a.epCreateLogin(req)

	assert.Equal(t, http.StatusUnauthorized, result.Status)
}

func Test_epCreateLogin_missingUsername_isBadRequest(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	req := jsonRequest(http.MethodPost, "/api/v1/login", LoginRequest{Password: "x"})
	result := a.epCreateLogin(req)

	assert.Equal(t, http.StatusBadRequest, result.Status)
}

func Test_epCreateRegistration_createsUnverifiedUser(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	req := jsonRequest(http.MethodPost, "/api/v1/register", RegisterRequest{Username: "dave", Password: "pw123456"})
	result := a.epCreateRegistration(req)
	require.Equal(t, http.StatusCreated, result.Status)

	var resp UserModel
	decodeBody(t, &result, &resp)
	assert.Equal(t, "dave", resp.Username)
	assert.Equal(t, dao.Unverified.String(), resp.Role)
}

func Test_epCreateRegistration_duplicateUsername_isConflict(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	_, err := a.Backend.Register(context.Background(), "dave", "pw123456", "")
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/api/v1/register", RegisterRequest{Username: "dave", Password: "pw123456"})
	result := a.epCreateRegistration(req)

	assert.Equal(t, http.StatusConflict, result.Status)
}

func Test_epDeleteLogin_logsOutAuthedUser(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "jade", "pw123456", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/login", nil)
	req = withAuthUser(req, user, true)
	result := a.epDeleteLogin(req)

	assert.Equal(t, http.StatusNoContent, result.Status)
}

func Test_epGetInfo_unauthedClient(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	req = withAuthUser(req, dao.User{}, false)
	result := a.epGetInfo(req)
	require.Equal(t, http.StatusOK, result.Status)

	var resp InfoModel
	decodeBody(t, &result, &resp)
	assert.NotEmpty(t, resp.Version.Koto)
}

func Test_epCreateScript_andEpGetScript_roundTrip(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)

	createReq := jsonRequest(http.MethodPost, "/api/v1/scripts", CreateScriptRequest{Name: "greet", Source: `print "hi"`})
	createReq = withAuthUser(createReq, user, true)
	createResult := a.epCreateScript(createReq)
	require.Equal(t, http.StatusCreated, createResult.Status)

	var created ScriptModel
	decodeBody(t, &createResult, &created)

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/scripts/"+created.ID, nil)
	getReq = withURLParam(getReq, "id", created.ID)
	getReq = withAuthUser(getReq, user, true)
	getResult := a.epGetScript(getReq)
	require.Equal(t, http.StatusOK, getResult.Status)

	var got ScriptModel
	decodeBody(t, &getResult, &got)
	assert.Equal(t, `print "hi"`, got.Source)
}

func Test_epGetScript_otherUsersScript_isForbidden(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	owner, err := a.Backend.Register(context.Background(), "owner", "pw123456", "")
	require.NoError(t, err)
	intruder, err := a.Backend.Register(context.Background(), "intruder", "pw123456", "")
	require.NoError(t, err)

	script, err := a.Backend.CreateScript(context.Background(), owner.ID, "s", "1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scripts/"+script.ID.String(), nil)
	req = withURLParam(req, "id", script.ID.String())
	req = withAuthUser(req, intruder, true)
	result := a.epGetScript(req)

	assert.Equal(t, http.StatusForbidden, result.Status)
}

func Test_epGetScript_adminCanAccessOthersScript(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	owner, err := a.Backend.Register(context.Background(), "owner", "pw123456", "")
	require.NoError(t, err)
	admin, err := a.Backend.CreateUser(context.Background(), "admin", "pw123456", "", dao.Admin)
	require.NoError(t, err)

	script, err := a.Backend.CreateScript(context.Background(), owner.ID, "s", "1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scripts/"+script.ID.String(), nil)
	req = withURLParam(req, "id", script.ID.String())
	req = withAuthUser(req, admin, true)
	result := a.epGetScript(req)

	assert.Equal(t, http.StatusOK, result.Status)
}

func Test_epGetScript_unknownID_isNotFound(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scripts/00000000-0000-0000-0000-000000000000", nil)
	req = withURLParam(req, "id", "00000000-0000-0000-0000-000000000000")
	req = withAuthUser(req, user, true)
	result := a.epGetScript(req)

	assert.Equal(t, http.StatusNotFound, result.Status)
}

func Test_epGetAllScripts_listsOnlyOwnScripts(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)
	_, err = a.Backend.CreateScript(context.Background(), user.ID, "a", "1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scripts", nil)
	req = withAuthUser(req, user, true)
	result := a.epGetAllScripts(req)
	require.Equal(t, http.StatusOK, result.Status)

	var scripts []ScriptModel
	decodeBody(t, &result, &scripts)
	require.Len(t, scripts, 1)
	assert.Empty(t, scripts[0].Source)
}

func Test_epUpdateScript_updatesNameAndSource(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)
	script, err := a.Backend.CreateScript(context.Background(), user.ID, "a", "1")
	require.NoError(t, err)

	req := jsonRequest(http.MethodPut, "/api/v1/scripts/"+script.ID.String(), UpdateScriptRequest{Name: "renamed"})
	req = withURLParam(req, "id", script.ID.String())
	req = withAuthUser(req, user, true)
	result := a.epUpdateScript(req)
	require.Equal(t, http.StatusOK, result.Status)

	var updated ScriptModel
	decodeBody(t, &result, &updated)
	assert.Equal(t, "renamed", updated.Name)
}

func Test_epDeleteScript_removesScript(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)
	script, err := a.Backend.CreateScript(context.Background(), user.ID, "a", "1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/scripts/"+script.ID.String(), nil)
	req = withURLParam(req, "id", script.ID.String())
	req = withAuthUser(req, user, true)
	result := a.epDeleteScript(req)

	assert.Equal(t, http.StatusNoContent, result.Status)
}

func Test_epRunScript_returnsValue(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)
	script, err := a.Backend.CreateScript(context.Background(), user.ID, "a", "1 + 1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scripts/"+script.ID.String()+"/run", nil)
	req = withURLParam(req, "id", script.ID.String())
	req = withAuthUser(req, user, true)
	result := a.epRunScript(req)
	require.Equal(t, http.StatusOK, result.Status)

	var resp RunResponse
	decodeBody(t, &result, &resp)
	assert.Equal(t, "2", resp.Value)
	assert.Empty(t, resp.Error)
}

func Test_epRunAdHoc_returnsValue(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/api/v1/run", RunRequest{Source: "3 + 4"})
	req = withAuthUser(req, user, true)
	result := a.epRunAdHoc(req)
	require.Equal(t, http.StatusOK, result.Status)

	var resp RunResponse
	decodeBody(t, &result, &resp)
	assert.Equal(t, "7", resp.Value)
}

func Test_epRunAdHoc_missingSource_isBadRequest(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	user, err := a.Backend.Register(context.Background(), "john", "pw123456", "")
	require.NoError(t, err)

	req := jsonRequest(http.MethodPost, "/api/v1/run", RunRequest{})
	req = withAuthUser(req, user, true)
	result := a.epRunAdHoc(req)

	assert.Equal(t, http.StatusBadRequest, result.Status)
}

func Test_HTTPGetInfo_viaHandlerFunc_writesJSONResponse(t *testing.T) {
	a, db := newTestAPI()
	defer db.Close()

	handler := a.HTTPGetInfo()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	req = withAuthUser(req, dao.User{}, false)
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp InfoModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Version.Koto)
}
