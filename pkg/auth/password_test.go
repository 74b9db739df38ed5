package auth

import (
	"testing"

	"github.com/aydintok/gatehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	v := BcryptVerifier{}
	assert.NoError(t, v.Verify(hash, "correct horse battery staple"))
	assert.ErrorIs(t, v.Verify(hash, "wrong password"), models.ErrBadCredentials)
	assert.ErrorIs(t, v.Verify("not-a-hash", "anything"), models.ErrBadCredentials)
}

func TestPlaintextVerifier(t *testing.T) {
	v := PlaintextVerifier{}
	assert.NoError(t, v.Verify("hunter2", "hunter2"))
	assert.ErrorIs(t, v.Verify("hunter2", "hunter3"), models.ErrBadCredentials)
	assert.ErrorIs(t, v.Verify("hunter2", ""), models.ErrBadCredentials)
}

func TestNewVerifier(t *testing.T) {
	v, err := NewVerifier("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptVerifier{}, v)

	v, err = NewVerifier("plaintext")
	require.NoError(t, err)
	assert.IsType(t, PlaintextVerifier{}, v)

	_, err = NewVerifier("scrypt")
	assert.Error(t, err)
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}
