package sqlite

import (
	"context"
	"testing"

	"github.com/dekarrin/koto/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) dao.Store {
	t.Helper()
	db, err := NewDatastore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func Test_NewDatastore_createsUsableTables(t *testing.T) {
	db := newTestStore(t)
	assert.NotNil(t, db.Users())
	assert.NotNil(t, db.Scripts())
}

func Test_Users_Create_andGetByID(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	u, err := db.Users().Create(ctx, dao.User{Username: "terezi", Password: "hash", Role: dao.Normal})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)

	got, err := db.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "terezi", got.Username)
	assert.Equal(t, dao.Normal, got.Role)
}

func Test_Users_Create_duplicateUsername_isConstraintViolation(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	_, err := db.Users().Create(ctx, dao.User{Username: "terezi", Password: "hash"})
	require.NoError(t, err)

	_, err = db.Users().Create(ctx, dao.User{Username: "terezi", Password: "hash2"})
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func Test_Users_GetByUsername(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	created, err := db.Users().Create(ctx, dao.User{Username: "nepeta", Password: "hash"})
	require.NoError(t, err)

	got, err := db.Users().GetByUsername(ctx, "nepeta")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func Test_Users_GetByID_unknown_isNotFound(t *testing.T) {
	db := newTestStore(t)

	_, err := db.Users().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_Users_Update_roundTrip(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	created, err := db.Users().Create(ctx, dao.User{Username: "aradia", Password: "hash"})
	require.NoError(t, err)

	updated := created
	updated.Password = "new-hash"
	saved, err := db.Users().Update(ctx, created.ID, updated)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", saved.Password)
}

func Test_Users_Update_unknownID_isNotFound(t *testing.T) {
	db := newTestStore(t)

	_, err := db.Users().Update(context.Background(), uuid.New(), dao.User{Username: "ghost"})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_Users_Delete(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	created, err := db.Users().Create(ctx, dao.User{Username: "kanaya", Password: "hash"})
	require.NoError(t, err)

	_, err = db.Users().Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = db.Users().GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_Users_GetAll(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	_, err := db.Users().Create(ctx, dao.User{Username: "a", Password: "x"})
	require.NoError(t, err)
	_, err = db.Users().Create(ctx, dao.User{Username: "b", Password: "x"})
	require.NoError(t, err)

	all, err := db.Users().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func Test_Scripts_Create_andGetByID(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	owner := uuid.New()
	s, err := db.Scripts().Create(ctx, dao.Script{UserID: owner, Name: "greet", Source: `print "hi"`})
	require.NoError(t, err)

	got, err := db.Scripts().GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "greet", got.Name)
	assert.Equal(t, owner, got.UserID)
}

func Test_Scripts_ASTCache_roundTripsThroughBase64Encoding(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	s, err := db.Scripts().Create(ctx, dao.Script{UserID: uuid.New(), Name: "s", Source: "1"})
	require.NoError(t, err)

	withCache := s
	withCache.ASTCache = []byte{0x01, 0x02, 0xFF, 0x00}
	updated, err := db.Scripts().Update(ctx, s.ID, withCache)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xFF, 0x00}, updated.ASTCache)

	got, err := db.Scripts().GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0xFF, 0x00}, got.ASTCache)
}

func Test_Scripts_GetAllByUser(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	owner := uuid.New()
	_, err := db.Scripts().Create(ctx, dao.Script{UserID: owner, Name: "a", Source: "1"})
	require.NoError(t, err)
	_, err = db.Scripts().Create(ctx, dao.Script{UserID: owner, Name: "b", Source: "2"})
	require.NoError(t, err)
	_, err = db.Scripts().Create(ctx, dao.Script{UserID: uuid.New(), Name: "other", Source: "3"})
	require.NoError(t, err)

	owned, err := db.Scripts().GetAllByUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func Test_Scripts_GetAllByUser_none_isNotFound(t *testing.T) {
	db := newTestStore(t)

	_, err := db.Scripts().GetAllByUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_Scripts_Delete(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	s, err := db.Scripts().Create(ctx, dao.Script{UserID: uuid.New(), Name: "s", Source: "1"})
	require.NoError(t, err)

	_, err = db.Scripts().Delete(ctx, s.ID)
	require.NoError(t, err)

	_, err = db.Scripts().GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
