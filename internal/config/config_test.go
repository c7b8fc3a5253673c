package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/verification-api/pkg/logger"
)

func init() {
	logger.Discard()
}

const sampleYAML = `
server:
  port: "9090"
database:
  host: db
  user: verifier
  password: secret
  dbname: verification
redis:
  addr: "redis:6379"
verification:
  code_ttl_minutes: 15
  enforce_user_scope: false
email:
  provider: smtp
  from: noreply@example.com
  smtp_host: mail
auth:
  jwt_secret: test-secret
purposes:
  - id: 6f1c1c9e-8d43-4d37-9c4e-0a4c0f4a1b01
    code: REGISTRATION
    name: Registration
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FromFileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 15*time.Minute, cfg.Verification.CodeTTL())
	assert.False(t, cfg.Verification.EnforceUserScope)
	assert.Equal(t, "smtp", cfg.Email.Provider)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, "log", cfg.SMS.Provider)
	assert.Equal(t, "verification.completed", cfg.Events.Channel)
	assert.Equal(t, 5*time.Second, cfg.Events.RelayInterval())
	require.Len(t, cfg.Purposes, 1)
	assert.Equal(t, "REGISTRATION", cfg.Purposes[0].Code)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DATABASE_HOST", "env-db")
	t.Setenv("VERIFICATION_CODE_TTL_MINUTES", "3")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "env-db", cfg.Database.Host)
	assert.Equal(t, 3, cfg.Verification.CodeTTLMinutes)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_USER", "postgres")
	t.Setenv("DATABASE_DBNAME", "verification")
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Verification.EnforceUserScope)
	assert.Equal(t, 10, cfg.Verification.CodeTTLMinutes)
	assert.Equal(t, "log", cfg.Email.Provider)
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load(writeConfig(t, "database:\n  host: db\n"))
	assert.Error(t, err)
}

func TestLoad_ProviderRequirements(t *testing.T) {
	base := func(extra string) string {
		return "database:\n  host: db\n  user: u\n  dbname: d\nauth:\n  jwt_secret: s\n" + extra
	}

	_, err := Load(writeConfig(t, base("email:\n  provider: resend\n")))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, base("sms:\n  provider: twilio\n")))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, base("email:\n  provider: carrier_pigeon\n")))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, base("")))
	assert.NoError(t, err)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "db", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=db sslmode=disable", d.PostgresConnectionString())
}
