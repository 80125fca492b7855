package oidc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromClaims(t *testing.T) {
	id, err := identityFromClaims(claims{
		Sub:     "1234",
		Email:   "  Ann@Example.COM ",
		Name:    "Ann",
		Picture: "https://pic",
	})
	require.NoError(t, err)
	assert.Equal(t, "1234", id.ProviderID)
	assert.Equal(t, "ann@example.com", id.Email)
	assert.Equal(t, "Ann", id.Name)
	assert.Equal(t, "https://pic", id.AvatarURL)
}

func TestIdentityFromClaimsFallsBackToEmailForName(t *testing.T) {
	id, err := identityFromClaims(claims{Sub: "1", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", id.Name)
}

func TestIdentityFromClaimsRequiresSubjectAndEmail(t *testing.T) {
	_, err := identityFromClaims(claims{Email: "a@b.c"})
	assert.Error(t, err)

	_, err = identityFromClaims(claims{Sub: "1"})
	assert.Error(t, err)
}

func TestMergeClaimsKeepsPrimary(t *testing.T) {
	got := mergeClaims(
		claims{Sub: "1", Email: "a@b.c"},
		claims{Sub: "other", Email: "x@y.z", Name: "Ann", Picture: "p"},
	)
	assert.Equal(t, claims{Sub: "1", Email: "a@b.c", Name: "Ann", Picture: "p"}, got)
}
