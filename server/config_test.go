package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseDBConnString_inmem(t *testing.T) {
	db, err := ParseDBConnString("inmem")
	require.NoError(t, err)
	assert.Equal(t, DatabaseInMemory, db.Type)
}

func Test_ParseDBConnString_sqliteWithPath(t *testing.T) {
	db, err := ParseDBConnString("sqlite:/var/lib/koto")
	require.NoError(t, err)
	assert.Equal(t, DatabaseSQLite, db.Type)
	assert.Equal(t, "/var/lib/koto", db.DataDir)
}

func Test_ParseDBConnString_sqliteMissingPath_isError(t *testing.T) {
	_, err := ParseDBConnString("sqlite")
	assert.Error(t, err)
}

func Test_ParseDBConnString_inmemWithExtraParams_isError(t *testing.T) {
	_, err := ParseDBConnString("inmem:something")
	assert.Error(t, err)
}

func Test_ParseDBConnString_none_isError(t *testing.T) {
	_, err := ParseDBConnString("none")
	assert.Error(t, err)
}

func Test_ParseDBConnString_unknownEngine_isError(t *testing.T) {
	_, err := ParseDBConnString("postgres:whatever")
	assert.Error(t, err)
}

func Test_Database_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		db      Database
		wantErr bool
	}{
		{name: "inmem is valid", db: Database{Type: DatabaseInMemory}, wantErr: false},
		{name: "sqlite with dir is valid", db: Database{Type: DatabaseSQLite, DataDir: "/data"}, wantErr: false},
		{name: "sqlite without dir is invalid", db: Database{Type: DatabaseSQLite}, wantErr: true},
		{name: "none is invalid", db: Database{Type: DatabaseNone}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.db.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_Config_UnauthDelay(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, Config{UnauthDelayMillis: 500}.UnauthDelay())
	assert.Equal(t, time.Duration(0), Config{UnauthDelayMillis: 0}.UnauthDelay())
	assert.Equal(t, time.Duration(0), Config{UnauthDelayMillis: -1}.UnauthDelay())
}

func Test_Config_FillDefaults(t *testing.T) {
	filled := Config{}.FillDefaults()

	assert.NotEmpty(t, filled.TokenSecret)
	assert.Equal(t, DatabaseInMemory, filled.DB.Type)
	assert.Equal(t, 1000, filled.UnauthDelayMillis)
}

func Test_Config_FillDefaults_doesNotOverrideSetValues(t *testing.T) {
	cfg := Config{
		TokenSecret:       []byte("already-set-secret-value-00000000000000000000000000"),
		DB:                Database{Type: DatabaseSQLite, DataDir: "/data"},
		UnauthDelayMillis: 250,
	}

	filled := cfg.FillDefaults()
	assert.Equal(t, cfg.TokenSecret, filled.TokenSecret)
	assert.Equal(t, cfg.DB, filled.DB)
	assert.Equal(t, 250, filled.UnauthDelayMillis)
}

func Test_Config_Validate_secretTooShort_isError(t *testing.T) {
	cfg := Config{TokenSecret: []byte("short"), DB: Database{Type: DatabaseInMemory}}
	assert.Error(t, cfg.Validate())
}

func Test_Config_Validate_secretTooLong_isError(t *testing.T) {
	secret := make([]byte, MaxSecretSize+1)
	cfg := Config{TokenSecret: secret, DB: Database{Type: DatabaseInMemory}}
	assert.Error(t, cfg.Validate())
}

func Test_Config_Validate_validConfig(t *testing.T) {
	secret := make([]byte, MinSecretSize)
	cfg := Config{TokenSecret: secret, DB: Database{Type: DatabaseInMemory}}
	assert.NoError(t, cfg.Validate())
}

func Test_LoadConfigFile_parsesAllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "koto-server.toml")
	contents := `
token_secret = "a-token-secret-value"
db = "sqlite:/var/lib/koto"
unauth_delay_millis = 2000
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("a-token-secret-value"), cfg.TokenSecret)
	assert.Equal(t, DatabaseSQLite, cfg.DB.Type)
	assert.Equal(t, "/var/lib/koto", cfg.DB.DataDir)
	assert.Equal(t, 2000, cfg.UnauthDelayMillis)
}

func Test_LoadConfigFile_missingFieldsLeftUnset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "koto-server.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.TokenSecret)
	assert.Equal(t, DBType(""), cfg.DB.Type)
}

func Test_LoadConfigFile_invalidDBString_isError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "koto-server.toml")
	require.NoError(t, os.WriteFile(path, []byte(`db = "sqlite"`), 0600))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func Test_LoadConfigFile_missingFile_isError(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}
