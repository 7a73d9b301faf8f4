package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(`
Env = "test"

[Database]
Driver = "postgres"
Host = "db"

[Auth]
TokenSecret = "from-file"

[Auth.AccessToken]
Expiration = 3600000000000

[Reward]
DistributeConcurrency = 2
`), 0600)
	require.NoError(t, err)

	t.Setenv("DB_PORT", "5432")
	t.Setenv("REWARD_DISTRIBUTE_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "test", cfg.Env)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "5432", cfg.Database.Port)
	require.Equal(t, "from-file", cfg.Auth.TokenSecret)
	require.Equal(t, time.Hour, cfg.Auth.AccessToken.Expiration)
	require.Equal(t, 8, cfg.Reward.DistributeConcurrency)
	require.Equal(t, 50, cfg.ApiServer.MaxLimit)
	require.Equal(t,
		"host=db port=5432 user=mysql password=mysql dbname=impact sslmode=disable TimeZone=UTC",
		cfg.Database.ConnectionString())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
}
