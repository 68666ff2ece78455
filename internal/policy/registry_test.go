package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/claims-authz-harness/internal/domain"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	values := []string{"gold", "platinum"}
	reqs := []Requirement{
		ClaimEquals{Type: "role", Value: "Admin"},
		ClaimOneOf{Type: "tier", Values: values},
	}

	require.NoError(t, reg.Register("AdminPolicy", reqs...))
	reg.Seal()

	want := []Requirement{
		ClaimEquals{Type: "role", Value: "Admin"},
		ClaimOneOf{Type: "tier", Values: []string{"gold", "platinum"}},
	}

	// Изменение исходных слайсов не должно затрагивать зарегистрированную политику.
	reqs[0] = ClaimExists{Type: "x"}
	values[0] = "bronze"

	p, err := reg.Lookup("AdminPolicy")
	require.NoError(t, err)
	assert.Equal(t, "AdminPolicy", p.Name)
	assert.Equal(t, want, p.Requirements)

	// Как и изменение результата Lookup.
	p.Requirements[1].(ClaimOneOf).Values[0] = "bronze"
	p.Requirements[0] = Authenticated{}

	again, err := reg.Lookup("AdminPolicy")
	require.NoError(t, err)
	assert.Equal(t, want, again.Requirements)

	d, err := NewGate(reg).Evaluate("AdminPolicy", domain.NewUserContext("", []domain.Claim{{Type: "tier", Value: "bronze"}}))
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, want, d.FailedRequirements)

	// Decision тоже не дает доступа к памяти реестра.
	d.FailedRequirements[1].(ClaimOneOf).Values[0] = "bronze"
	again, err = reg.Lookup("AdminPolicy")
	require.NoError(t, err)
	assert.Equal(t, want, again.Requirements)
}

func TestRegistry_RejectsNilRequirement(t *testing.T) {
	reg := NewRegistry()

	assert.ErrorIs(t, reg.Register("Broken", ClaimExists{Type: "role"}, nil), ErrInvalidPolicy)
	_, err := reg.Lookup("Broken")
	var unknown *UnknownPolicyError
	assert.ErrorAs(t, err, &unknown)
}

func TestRegistry_DuplicateFailsFast(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("AdminPolicy", ClaimEquals{Type: "role", Value: "Admin"}))

	err := reg.Register("AdminPolicy", ClaimExists{Type: "role"})
	var dup *DuplicatePolicyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "AdminPolicy", dup.Name)

	// Первая регистрация осталась нетронутой.
	p, err := reg.Lookup("AdminPolicy")
	require.NoError(t, err)
	assert.Equal(t, []Requirement{ClaimEquals{Type: "role", Value: "Admin"}}, p.Requirements)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	_, err := NewRegistry().Lookup("NoSuchPolicy")

	var unknown *UnknownPolicyError
	require.True(t, errors.As(err, &unknown))
	assert.EqualError(t, err, `unknown authorization policy "NoSuchPolicy"`)
}

func TestRegistry_SealedAndInvalid(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.Register(""), ErrInvalidPolicy)

	require.NoError(t, reg.Register("B"))
	require.NoError(t, reg.Register("A"))
	reg.Seal()

	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.Register("C"), ErrRegistrySealed)
	assert.Equal(t, []string{"A", "B"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
}
