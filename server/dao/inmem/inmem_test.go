package inmem

import (
	"context"
	"testing"

	"github.com/dekarrin/koto/server/dao"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewDatastore_providesIndependentRepositories(t *testing.T) {
	db := NewDatastore()
	defer db.Close()

	assert.NotNil(t, db.Users())
	assert.NotNil(t, db.Scripts())
}

func Test_UsersRepository_Create_assignsIDAndTimestamps(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, dao.User{Username: "jade"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.False(t, u.Created.IsZero())
	assert.Equal(t, u.Created, u.Modified)
}

func Test_UsersRepository_Create_duplicateUsername_isConstraintViolation(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, dao.User{Username: "jade"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, dao.User{Username: "jade"})
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func Test_UsersRepository_GetByUsername(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.User{Username: "jade"})
	require.NoError(t, err)

	got, err := repo.GetByUsername(ctx, "jade")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_UsersRepository_Update_renamingUpdatesIndex(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.User{Username: "jade"})
	require.NoError(t, err)

	renamed := created
	renamed.Username = "jadeharley"
	_, err = repo.Update(ctx, created.ID, renamed)
	require.NoError(t, err)

	_, err = repo.GetByUsername(ctx, "jade")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	got, err := repo.GetByUsername(ctx, "jadeharley")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func Test_UsersRepository_Update_toExistingUsername_isConstraintViolation(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, dao.User{Username: "jade"})
	require.NoError(t, err)
	john, err := repo.Create(ctx, dao.User{Username: "john"})
	require.NoError(t, err)

	conflicting := john
	conflicting.Username = "jade"
	_, err = repo.Update(ctx, john.ID, conflicting)
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func Test_UsersRepository_Update_unknownID_isNotFound(t *testing.T) {
	repo := NewUsersRepository()

	_, err := repo.Update(context.Background(), uuid.New(), dao.User{Username: "ghost"})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_UsersRepository_Delete(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.User{Username: "jade"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = repo.GetByUsername(ctx, "jade")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_UsersRepository_GetAll_sortedByID(t *testing.T) {
	repo := NewUsersRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, dao.User{Username: "a"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.User{Username: "b"})
	require.NoError(t, err)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].ID.String() < all[1].ID.String())
}

func Test_ScriptsRepository_Create_andGetByID(t *testing.T) {
	repo := NewScriptsRepository()
	ctx := context.Background()

	owner := uuid.New()
	s, err := repo.Create(ctx, dao.Script{UserID: owner, Name: "s", Source: "1"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, s.ID)

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Source, got.Source)
}

func Test_ScriptsRepository_GetAllByUser(t *testing.T) {
	repo := NewScriptsRepository()
	ctx := context.Background()

	owner := uuid.New()
	_, err := repo.Create(ctx, dao.Script{UserID: owner, Name: "a", Source: "1"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Script{UserID: owner, Name: "b", Source: "2"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Script{UserID: uuid.New(), Name: "other", Source: "3"})
	require.NoError(t, err)

	owned, err := repo.GetAllByUser(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func Test_ScriptsRepository_GetAllByUser_noneOwned_isNotFound(t *testing.T) {
	repo := NewScriptsRepository()

	_, err := repo.GetAllByUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_ScriptsRepository_Update_changingOwnerMovesIndex(t *testing.T) {
	repo := NewScriptsRepository()
	ctx := context.Background()

	origOwner := uuid.New()
	newOwner := uuid.New()
	s, err := repo.Create(ctx, dao.Script{UserID: origOwner, Name: "s", Source: "1"})
	require.NoError(t, err)

	moved := s
	moved.UserID = newOwner
	_, err = repo.Update(ctx, s.ID, moved)
	require.NoError(t, err)

	_, err = repo.GetAllByUser(ctx, origOwner)
	assert.ErrorIs(t, err, dao.ErrNotFound)

	owned, err := repo.GetAllByUser(ctx, newOwner)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func Test_ScriptsRepository_Delete_removesFromUserIndex(t *testing.T) {
	repo := NewScriptsRepository()
	ctx := context.Background()

	owner := uuid.New()
	s, err := repo.Create(ctx, dao.Script{UserID: owner, Name: "s", Source: "1"})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, s.ID)
	require.NoError(t, err)

	_, err = repo.GetAllByUser(ctx, owner)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func Test_ScriptsRepository_Update_unknownID_isNotFound(t *testing.T) {
	repo := NewScriptsRepository()

	_, err := repo.Update(context.Background(), uuid.New(), dao.Script{})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
