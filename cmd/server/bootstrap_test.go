package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medrec/medrec/internal/app"
)

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.Driver = " Postgres "
	cfg.Database.Postgres = app.DBAuthConfig{
		Host:     " db.example.com ",
		Port:     5433,
		Database: "medrec",
		Username: "medrec",
		Password: "secret",
	}

	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.example.com", dbCfg.Host)
	require.Equal(t, 5433, dbCfg.Port)
	require.Equal(t, "medrec", dbCfg.Name)
	require.Equal(t, "medrec", dbCfg.User)
	require.Equal(t, "secret", dbCfg.Password)
}

func TestConvertDatabaseConfigDefaultsToSQLite(t *testing.T) {
	cfg := &app.Config{}
	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "sqlite", dbCfg.Driver)
}

func TestLoadApplicationConfigRejectsMissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/does/not/exist")
	require.Error(t, err)
}
