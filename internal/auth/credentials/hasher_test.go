package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Params{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashTokenVerify(t *testing.T) {
	hash, version, err := HashToken("s3cret", testParams)
	require.NoError(t, err)

	assert.Equal(t, HashVersionArgon2id, version)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)
	assert.NotContains(t, hash, "s3cret")

	ok, err := VerifyToken(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyToken(hash, "s3cres")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashTokenIsSalted(t *testing.T) {
	a, _, err := HashToken("same", testParams)
	require.NoError(t, err)
	b, _, err := HashToken("same", testParams)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestHashTokenRejectsEmptySecret(t *testing.T) {
	_, _, err := HashToken("", testParams)
	assert.Error(t, err)
}

func TestVerifyTokenMalformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdA$",
	} {
		ok, err := VerifyToken(encoded, "x")
		assert.False(t, ok, encoded)
		assert.ErrorIs(t, err, errMalformedHash, encoded)
	}
}
