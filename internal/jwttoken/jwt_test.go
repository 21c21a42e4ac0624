package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("signing-key", "custodia", "custodia-api")
	principal := domain.NewPrincipal()

	token, err := svc.GenerateToken(principal, time.Hour)
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewService("signing-key", "custodia", "custodia-api")

	token, err := svc.GenerateToken(domain.NewPrincipal(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTokenSignedWithDifferentKeyRejected(t *testing.T) {
	minter := NewService("key-one", "custodia", "custodia-api")
	verifier := NewService("key-two", "custodia", "custodia-api")

	token, err := minter.GenerateToken(domain.NewPrincipal(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := NewService("signing-key", "custodia", "custodia-api")

	_, err := svc.ValidateToken("not.a.jwt")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
