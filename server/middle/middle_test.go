package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/dao/inmem"
	"github.com/dekarrin/koto/server/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthedRequest(t *testing.T, db dao.UserRepository, secret []byte, u dao.User) *http.Request {
	t.Helper()
	tok, err := token.Generate(secret, u)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func Test_RequireAuth_validToken_populatesContextAndCallsNext(t *testing.T) {
	db := inmem.NewDatastore()
	defer db.Close()
	secret := []byte("secret")

	u, err := db.Users().Create(context.Background(), dao.User{Username: "rose", Password: "x"})
	require.NoError(t, err)

	var gotUser dao.User
	var gotLoggedIn bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Context().Value(AuthUser).(dao.User)
		gotLoggedIn = r.Context().Value(AuthLoggedIn).(bool)
		w.WriteHeader(http.StatusOK)
	})

	handler := RequireAuth(db.Users(), secret, 0, dao.User{})(next)
	req := newAuthedRequest(t, db.Users(), secret, u)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotLoggedIn)
	assert.Equal(t, u.ID, gotUser.ID)
}

func Test_RequireAuth_missingToken_isUnauthorized(t *testing.T) {
	db := inmem.NewDatastore()
	defer db.Close()

	handler := RequireAuth(db.Users(), []byte("secret"), 0, dao.User{})(echoHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_RequireAuth_invalidToken_isUnauthorized(t *testing.T) {
	db := inmem.NewDatastore()
	defer db.Close()

	handler := RequireAuth(db.Users(), []byte("secret"), 0, dao.User{})(echoHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_OptionalAuth_missingToken_usesDefaultUserAndCallsNext(t *testing.T) {
	db := inmem.NewDatastore()
	defer db.Close()
	defaultUser := dao.User{Username: "anonymous"}

	var gotUser dao.User
	var gotLoggedIn bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Context().Value(AuthUser).(dao.User)
		gotLoggedIn = r.Context().Value(AuthLoggedIn).(bool)
		w.WriteHeader(http.StatusOK)
	})

	handler := OptionalAuth(db.Users(), []byte("secret"), 0, defaultUser)(next)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotLoggedIn)
	assert.Equal(t, "anonymous", gotUser.Username)
}

func Test_OptionalAuth_validToken_marksLoggedIn(t *testing.T) {
	db := inmem.NewDatastore()
	defer db.Close()
	secret := []byte("secret")

	u, err := db.Users().Create(context.Background(), dao.User{Username: "kanaya", Password: "x"})
	require.NoError(t, err)

	var gotLoggedIn bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLoggedIn = r.Context().Value(AuthLoggedIn).(bool)
		w.WriteHeader(http.StatusOK)
	})

	handler := OptionalAuth(db.Users(), secret, 0, dao.User{})(next)
	req := newAuthedRequest(t, db.Users(), secret, u)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, gotLoggedIn)
}

func Test_OptionalAuth_unauthedDelay_isApplied(t *testing.T) {
	db := inmem.NewDatastore()
	defer db.Close()

	delay := 10 * time.Millisecond
	handler := RequireAuth(db.Users(), []byte("secret"), delay, dao.User{})(echoHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	start := time.Now()
	handler.ServeHTTP(w, req)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, delay)
}

func Test_DontPanic_recoversAndWrites500(t *testing.T) {
	handler := DontPanic()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() { handler.ServeHTTP(w, req) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func Test_DontPanic_passesThroughWithoutPanic(t *testing.T) {
	handler := DontPanic()(echoHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
