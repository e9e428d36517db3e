package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestConfig_Reload(t *testing.T) {
	path := writeConfigFile(t, `
salt: "s3cr3t"
salt_length: 24

server:
  port: 9090
  read_timeout: 10s

logging:
  level: debug

security:
  jwt:
    issuer: liveconfig
    ttl: 5m

database:
  host: db.internal
  port: 5432
  user: app
  password: pw
  name: appdb
`)

	cfg := New()
	cfg.BindPath(path)
	require.NoError(t, cfg.Reload())

	assert.Equal(t, "s3cr3t", cfg.Salt)
	assert.Equal(t, 24, cfg.SaltLength)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "liveconfig", cfg.Security.JWT.Issuer)
	assert.Equal(t, path, cfg.Path())

	assert.Nil(t, cfg.Redis.Client)
	assert.Nil(t, cfg.ObjectStore.Client)
	assert.Nil(t, cfg.Identity.Client)
}

func TestConfig_ReloadAppliesDefaultSaltLength(t *testing.T) {
	path := writeConfigFile(t, `salt: "abc"`)

	cfg := New()
	cfg.BindPath(path)
	require.NoError(t, cfg.Reload())

	assert.Equal(t, DefaultSaltLength, cfg.SaltLength)
}

func TestConfig_ReloadValidation_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{
			name:     "missing salt",
			contents: `salt_length: 16`,
			wantErr:  "salt must not be empty",
		},
		{
			name:     "negative salt length",
			contents: "salt: \"abc\"\nsalt_length: -1",
			wantErr:  "salt_length must not be negative",
		},
		{
			name:     "malformed yaml",
			contents: "salt: [unclosed",
			wantErr:  "failed to read",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			cfg.BindPath(writeConfigFile(t, tc.contents))

			err := cfg.Reload()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConfig_ReloadFailureKeepsPreviousContents(t *testing.T) {
	path := writeConfigFile(t, `salt: "original"`)

	cfg := New()
	cfg.BindPath(path)
	require.NoError(t, cfg.Reload())
	require.Equal(t, "original", cfg.Salt)

	require.NoError(t, os.WriteFile(path, []byte(`salt_length: 16`), 0o600))
	require.Error(t, cfg.Reload())

	assert.Equal(t, "original", cfg.Salt, "a failed reload must not alter the previous value")
	assert.Equal(t, DefaultSaltLength, cfg.SaltLength)
}

func TestConfig_ReloadMissingFile(t *testing.T) {
	cfg := New()
	cfg.BindPath(filepath.Join(t.TempDir(), "nope.yaml"))

	err := cfg.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file found")
}

func TestConfig_ReloadRejectsDirectory(t *testing.T) {
	cfg := New()
	cfg.BindPath(t.TempDir())

	err := cfg.Reload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestConfig_ReloadUnboundPath(t *testing.T) {
	cfg := New()
	require.Error(t, cfg.Reload())
}

func TestConfig_ReloadBindsIdentityClient(t *testing.T) {
	path := writeConfigFile(t, `
salt: "abc"
identity:
  addr: "http://kratos:4433/"
`)

	cfg := New()
	cfg.BindPath(path)
	require.NoError(t, cfg.Reload())

	require.NotNil(t, cfg.Identity.Client)
	assert.Equal(t, "http://kratos:4433", cfg.Identity.Client.Addr())
}

func TestConfig_ReloadBindsObjectStoreWithInjectedCredentials(t *testing.T) {
	t.Setenv("LIVECONFIG_TEST_ACCESS_KEY", "AKIATEST")
	t.Setenv("LIVECONFIG_TEST_SECRET_KEY", "sekrit")

	path := writeConfigFile(t, `
salt: "abc"
objectstore:
  endpoint: "minio.internal:9000"
  bucket: uploads
  access_key_env: LIVECONFIG_TEST_ACCESS_KEY
  secret_key_env: LIVECONFIG_TEST_SECRET_KEY
`)

	cfg := New()
	cfg.BindPath(path)
	require.NoError(t, cfg.Reload())

	require.NotNil(t, cfg.ObjectStore.Client)
	assert.Equal(t, "uploads", cfg.ObjectStore.Bucket)
}

func TestConfig_ReloadBindsRedisClient(t *testing.T) {
	path := writeConfigFile(t, `
salt: "abc"
redis:
  addr: "localhost:6379"
  db: 2
`)

	cfg := New()
	cfg.BindPath(path)
	require.NoError(t, cfg.Reload())
	defer cfg.Close()

	require.NotNil(t, cfg.Redis.Client)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "app",
		Password: "pw",
		Name:     "appdb",
	}.DSN()

	assert.Equal(t, "host=db.internal port=5432 user=app password=pw dbname=appdb sslmode=disable", dsn)
}
