package svc

import (
	"context"
	"testing"

	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/dao/inmem"
	"github.com/dekarrin/koto/server/serr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (Service, func()) {
	db := inmem.NewDatastore()
	return Service{DB: db}, func() { db.Close() }
}

func Test_Register_andLogin_roundTrip(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	created, err := svc.Register(ctx, "vriska", "hunter2", "vriska@example.com")
	require.NoError(t, err)
	assert.Equal(t, dao.Unverified, created.Role)

	got, err := svc.Login(ctx, "vriska", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func Test_Login_wrongPassword_isBadCredentials(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	_, err := svc.Register(ctx, "vriska", "hunter2", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "vriska", "wrong")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)
}

func Test_Login_unknownUsername_isBadCredentials(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.Login(context.Background(), "nobody", "x")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)
}

func Test_CreateUser_duplicateUsername_isAlreadyExists(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "terezi", "pw12345", "", dao.Normal)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "terezi", "otherpw", "", dao.Normal)
	assert.ErrorIs(t, err, serr.ErrAlreadyExists)
}

func Test_CreateUser_blankUsername_isBadArgument(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.CreateUser(context.Background(), "", "pw", "", dao.Normal)
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_CreateUser_invalidEmail_isBadArgument(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.CreateUser(context.Background(), "nepeta", "pw12345", "not-an-email", dao.Normal)
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_GetUser_unknownID_isNotFound(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_UpdatePassword_allowsSubsequentLogin(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	u, err := svc.Register(ctx, "kanaya", "oldpass1", "")
	require.NoError(t, err)

	_, err = svc.UpdatePassword(ctx, u.ID, "newpass1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "kanaya", "oldpass1")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)

	_, err = svc.Login(ctx, "kanaya", "newpass1")
	assert.NoError(t, err)
}

func Test_UpdatePassword_blank_isBadArgument(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	u, err := svc.Register(ctx, "kanaya", "oldpass1", "")
	require.NoError(t, err)

	_, err = svc.UpdatePassword(ctx, u.ID, "")
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_Logout_invalidatesPriorToken(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	u, err := svc.Register(ctx, "aradia", "pw123456", "")
	require.NoError(t, err)
	require.True(t, u.LastLogoutTime.IsZero())

	updated, err := svc.Logout(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, updated.LastLogoutTime.IsZero())
}

func Test_Logout_unknownUser_isNotFound(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.Logout(context.Background(), uuid.New())
	assert.ErrorIs(t, err, serr.ErrNotFound)
}
