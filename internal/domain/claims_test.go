package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserContext_CopiesClaims(t *testing.T) {
	src := []Claim{{Type: "role", Value: "Admin"}}
	uc := NewUserContext("alice", src)

	src[0].Value = "User"
	assert.True(t, uc.HasClaim("role", "Admin"))
	assert.False(t, uc.HasClaim("role", "User"))

	out := uc.Claims()
	out[0].Value = "Hacker"
	assert.Equal(t, []Claim{{Type: "role", Value: "Admin"}}, uc.Claims())
}

func TestUserContext_HasClaimIsCaseSensitive(t *testing.T) {
	uc := NewUserContext("", []Claim{{Type: "role", Value: "Admin"}})

	assert.True(t, uc.HasClaim("role", "Admin"))
	assert.False(t, uc.HasClaim("role", "admin"))
	assert.False(t, uc.HasClaim("Role", "Admin"))
}

func TestUserContext_Accessors(t *testing.T) {
	uc := NewUserContext("bob", []Claim{
		{Type: "a", Value: "1"},
		{Type: "b", Value: "2"},
		{Type: "a", Value: "3"},
	})

	assert.Equal(t, "bob", uc.Identity())
	assert.Equal(t, []string{"1", "3"}, uc.FindAll("a"))
	assert.Nil(t, uc.FindAll("c"))

	v, ok := uc.FindFirst("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	assert.Equal(t, "a=1, b=2, a=3", uc.String())
	assert.True(t, uc.IsAuthenticated())
}

func TestAnonymous(t *testing.T) {
	uc := Anonymous()

	assert.False(t, uc.IsAuthenticated())
	assert.Empty(t, uc.Claims())
	assert.Equal(t, "", uc.String())

	var nilCtx *UserContext
	assert.False(t, nilCtx.HasClaim("role", "Admin"))
	assert.Equal(t, "", nilCtx.Identity())
}

func TestUserContextFromContext(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		uc, ok := UserContextFrom(context.Background())
		assert.False(t, ok)
		require.NotNil(t, uc)
		assert.False(t, uc.IsAuthenticated())
	})

	t.Run("present", func(t *testing.T) {
		want := NewUserContext("alice", []Claim{{Type: "role", Value: "Admin"}})
		ctx := WithUserContext(context.Background(), want)

		got, ok := UserContextFrom(ctx)
		assert.True(t, ok)
		assert.Same(t, want, got)
	})
}
