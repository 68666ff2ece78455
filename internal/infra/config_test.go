package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
	"github.com/xela07ax/claims-authz-harness/internal/policy"
)

const testConfig = `
server:
  port: 9001
  rate_limit: 50
auth:
  override_identity: tester
  override_claims:
    - type: a
      value: "1"
    - type: b
      value: "2"
policies:
  - name: AdminPolicy
    requirements:
      - kind: claim_equals
        type: role
        value: Admin
  - name: Staff
    requirements:
      - kind: claim_one_of
        type: role
        values: [Admin, Editor]
protections:
  - type: User
    policy: AdminPolicy
directory:
  users:
    - id: "1"
      name: Alice
`

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 50.0, cfg.Server.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "tester", cfg.Auth.OverrideIdentity)
	assert.Equal(t, []domain.Claim{{Type: "a", Value: "1"}, {Type: "b", Value: "2"}}, cfg.Auth.OverrideClaims)

	require.Len(t, cfg.Policies, 2)
	assert.Equal(t, "Staff", cfg.Policies[1].Name)
	assert.Equal(t, policy.KindClaimOneOf, cfg.Policies[1].Requirements[0].Kind)
	assert.Equal(t, []string{"Admin", "Editor"}, cfg.Policies[1].Requirements[0].Values)

	assert.Equal(t, []ProtectionConfig{{Type: "User", Policy: "AdminPolicy"}}, cfg.Protections)
	assert.Equal(t, []DirectoryUser{{ID: "1", Name: "Alice"}}, cfg.Directory.Users)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Server.GraphiQL)

	require.Len(t, cfg.Policies, 1)
	assert.Equal(t, "AdminPolicy", cfg.Policies[0].Name)
	assert.Equal(t, []policy.RequirementDefinition{
		{Kind: policy.KindClaimEquals, Type: "role", Value: "Admin"},
	}, cfg.Policies[0].Requirements)
	assert.Equal(t, []ProtectionConfig{{Type: "User", Policy: "AdminPolicy"}}, cfg.Protections)

	reg, err := policy.BuildRegistry(cfg.Policies)
	require.NoError(t, err)
	assert.Equal(t, []string{"AdminPolicy"}, reg.Names())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("AUTH_PUBLIC_KEY_DATA", "pem-data")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []byte("pem-data"), cfg.Auth.PublicKey)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LoggerConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = NewLogger(LoggerConfig{Format: "xml"})
	assert.Error(t, err)
}
