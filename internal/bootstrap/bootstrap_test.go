package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/commander-rater/internal/config"
)

func TestOpenStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "cards.db")}

	store, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.Repo.Probe(ctx), "schema is created on demand, not on open")
	require.NoError(t, store.Provisioner.Provision(ctx))
	assert.NoError(t, store.Repo.Probe(ctx))
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestNewService(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "cards.db")

	store, err := OpenStore(ctx, cfg.Database)
	require.NoError(t, err)
	defer store.Close()

	svc, err := NewService(cfg, store, nil)
	require.NoError(t, err)

	result := svc.InitializeDatabase(ctx)
	assert.True(t, result.Success, result.Message)
}

func TestNewScryfallClient_InvalidDurations(t *testing.T) {
	cfg := config.DefaultConfig().Scryfall
	cfg.PageDelay = "later"

	_, err := NewScryfallClient(cfg, nil)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Server.Port = 9000
	require.NoError(t, cfg.SaveTo(path))

	t.Setenv(config.EnvPort, "9100")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, loaded.Server.Port)
	assert.NoError(t, loaded.Validate())
}
