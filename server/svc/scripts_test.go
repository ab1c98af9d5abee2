package svc

import (
	"context"
	"testing"

	"github.com/dekarrin/koto/server/serr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateScript_andGetScript_roundTrip(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	created, err := svc.CreateScript(ctx, uuid.New(), "greet", `print "hi"`)
	require.NoError(t, err)
	assert.Empty(t, created.ASTCache)

	got, err := svc.GetScript(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Source, got.Source)
}

func Test_CreateScript_blankName_isBadArgument(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.CreateScript(context.Background(), uuid.New(), "", `1`)
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_CreateScript_blankSource_isBadArgument(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.CreateScript(context.Background(), uuid.New(), "empty", "")
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func Test_GetScript_unknownID_isNotFound(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.GetScript(context.Background(), uuid.New())
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_ListScripts_returnsOnlyOwnedScripts(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	owner := uuid.New()
	_, err := svc.CreateScript(ctx, owner, "a", "1")
	require.NoError(t, err)
	_, err = svc.CreateScript(ctx, owner, "b", "2")
	require.NoError(t, err)
	_, err = svc.CreateScript(ctx, uuid.New(), "other", "3")
	require.NoError(t, err)

	scripts, err := svc.ListScripts(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, scripts, 2)
}

func Test_UpdateScript_changingSourceClearsASTCache(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	created, err := svc.CreateScript(ctx, uuid.New(), "s", "1 + 1")
	require.NoError(t, err)

	withCache := created
	withCache.ASTCache = []byte("pretend-cache-blob")
	_, err = svc.DB.Scripts().Update(ctx, created.ID, withCache)
	require.NoError(t, err)

	updated, err := svc.UpdateScript(ctx, created.ID, "", "2 + 2")
	require.NoError(t, err)
	assert.Equal(t, "2 + 2", updated.Source)
	assert.Empty(t, updated.ASTCache)
}

func Test_UpdateScript_sameSourceKeepsASTCache(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	created, err := svc.CreateScript(ctx, uuid.New(), "s", "1 + 1")
	require.NoError(t, err)

	withCache := created
	withCache.ASTCache = []byte("pretend-cache-blob")
	_, err = svc.DB.Scripts().Update(ctx, created.ID, withCache)
	require.NoError(t, err)

	updated, err := svc.UpdateScript(ctx, created.ID, "renamed", "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, []byte("pretend-cache-blob"), updated.ASTCache)
}

func Test_UpdateScript_unknownID_isNotFound(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.UpdateScript(context.Background(), uuid.New(), "x", "1")
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_DeleteScript_removesScript(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	created, err := svc.CreateScript(ctx, uuid.New(), "s", "1")
	require.NoError(t, err)

	deleted, err := svc.DeleteScript(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.GetScript(ctx, created.ID)
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func Test_RunAdHoc_returnsRenderedValue(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	result := svc.RunAdHoc(context.Background(), "1 + 2", nil)
	assert.Empty(t, result.Error)
	assert.Equal(t, "3", result.Value)
}

func Test_RunAdHoc_parseErrorReportedAsRunResult(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	result := svc.RunAdHoc(context.Background(), "(((", nil)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.Value)
}

func Test_RunAdHoc_scriptArgsExposedAsEnvArgs(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	result := svc.RunAdHoc(context.Background(), "env.args[0]", []string{"hello"})
	assert.Empty(t, result.Error)
	assert.Equal(t, "hello", result.Value)
}

func Test_RunScript_populatesRowASTCacheOnFirstRun(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()
	ctx := context.Background()

	created, err := svc.CreateScript(ctx, uuid.New(), "s", "1 + 1")
	require.NoError(t, err)
	require.Empty(t, created.ASTCache)

	result, err := svc.RunScript(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Error)
	assert.Equal(t, "2", result.Value)

	stored, err := svc.DB.Scripts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ASTCache)
}

func Test_RunScript_unknownID_isNotFound(t *testing.T) {
	svc, closeDB := newTestService()
	defer closeDB()

	_, err := svc.RunScript(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, serr.ErrNotFound)
}
