package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "be-pg-salaries", cfg.Service.Name)
	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 2020, cfg.Salary.MinYear)
	assert.Equal(t, 2030, cfg.Salary.MaxYear)
	assert.Equal(t, 4*time.Hour, cfg.Salary.EditWindow)
	assert.Equal(t, "reject", cfg.Salary.NumericPolicy)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("SALARY_EDIT_WINDOW", "2h")
	t.Setenv("SALARY_NUMERIC_POLICY", "coerce")
	t.Setenv("SALARY_TIME_ZONE", "Asia/Kolkata")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 2*time.Hour, cfg.Salary.EditWindow)
	assert.Equal(t, "coerce", cfg.Salary.NumericPolicy)
	assert.Equal(t, "postgres://postgres:@db.internal:6543/pg_salaries?sslmode=disable", cfg.Database.DSN())
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SALARY_NUMERIC_POLICY", "guess")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric_policy")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTimeZone(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SALARY_TIME_ZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time_zone")
}
