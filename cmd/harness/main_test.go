package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
	"github.com/xela07ax/claims-authz-harness/internal/infra"
	"github.com/xela07ax/claims-authz-harness/internal/infra/auth"
	"github.com/xela07ax/claims-authz-harness/internal/policy"
)

func TestNewContextBuilder(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		b, err := newContextBuilder(infra.AuthConfig{
			OverrideIdentity: "",
			OverrideClaims:   []domain.Claim{{Type: "a", Value: "1"}},
			PublicKey:        []byte("ignored"),
		}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &auth.StaticContextBuilder{}, b)
	})

	t.Run("anonymous without key", func(t *testing.T) {
		b, err := newContextBuilder(infra.AuthConfig{}, zap.NewNop())
		require.NoError(t, err)
		uc, err := b.Build(nil)
		require.NoError(t, err)
		assert.False(t, uc.IsAuthenticated())
	})

	t.Run("token with key", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err)

		b, err := newContextBuilder(infra.AuthConfig{
			PublicKey: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}),
		}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &auth.TokenContextBuilder{}, b)
	})

	t.Run("broken key", func(t *testing.T) {
		_, err := newContextBuilder(infra.AuthConfig{PublicKey: []byte("garbage")}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestBuildRegistry_FromConfigOnly(t *testing.T) {
	cfg := &infra.Config{Policies: []policy.Definition{
		{Name: "AdminPolicy", Requirements: []policy.RequirementDefinition{{Kind: policy.KindClaimEquals, Type: "role", Value: "Admin"}}},
	}}

	reg, err := buildRegistry(t.Context(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, reg.Sealed())
	assert.Equal(t, []string{"AdminPolicy"}, reg.Names())

	cfg.Policies = append(cfg.Policies, cfg.Policies[0])
	_, err = buildRegistry(t.Context(), cfg, zap.NewNop())
	var dup *policy.DuplicatePolicyError
	assert.ErrorAs(t, err, &dup)
}
