package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheap parameters keep the suite fast; production defaults are much heavier.
func testParams() Params {
	return Params{Algorithm: AlgorithmArgon2id, Memory: 1024, Iterations: 1, Threads: 1, BcryptCost: bcrypt.MinCost}
}

func newHasher(t *testing.T, p Params) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(p)
	require.NoError(t, err)
	return h
}

func TestHash_SaltedAndVerifiable(t *testing.T) {
	h := newHasher(t, testParams())

	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)
	c, err := h.Hash("secret2")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "same plaintext must hash differently (salt)")
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a, "secret1")
	assert.True(t, strings.HasPrefix(a, "$argon2id$v=19$m=1024,t=1,p=1$"), a)

	for _, enc := range []string{a, b} {
		ok, err := h.Verify("secret1", enc)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := h.Verify("secret2", a)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_OldParametersStillVerify(t *testing.T) {
	old := newHasher(t, testParams())
	enc, err := old.Hash("correct horse")
	require.NoError(t, err)

	p := testParams()
	p.Memory = 2048
	p.Iterations = 2
	current := newHasher(t, p)

	ok, err := current.Verify("correct horse", enc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, current.NeedsRehash(enc))
	assert.False(t, old.NeedsRehash(enc))
}

func TestBcrypt_HashVerifyAndRehash(t *testing.T) {
	p := testParams()
	p.Algorithm = AlgorithmBcrypt
	h := newHasher(t, p)

	enc, err := h.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(enc, "$2a$"), enc)

	ok, err := h.Verify("secret1", enc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("nope", enc)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, h.NeedsRehash(enc))

	argon := newHasher(t, testParams())
	assert.True(t, argon.NeedsRehash(enc), "switching algorithm must request a rehash")

	ok, err = argon.Verify("secret1", enc)
	require.NoError(t, err)
	assert.True(t, ok, "bcrypt hashes stay verifiable after switching to argon2id")
}

func TestBcrypt_RejectsLongPasswords(t *testing.T) {
	p := testParams()
	p.Algorithm = AlgorithmBcrypt
	h := newHasher(t, p)

	_, err := h.Hash(strings.Repeat("a", MaxBcryptPasswordLength))
	assert.NoError(t, err)

	_, err = h.Hash(strings.Repeat("a", MaxBcryptPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = h.Hash(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong, "the limit counts bytes, not characters")

	_, err = newHasher(t, testParams()).Hash(strings.Repeat("a", 200))
	assert.NoError(t, err, "argon2id has no such limit")
}

func TestVerify_MalformedHashes(t *testing.T) {
	h := newHasher(t, testParams())

	cases := map[string]error{
		"":                                         ErrInvalidHash,
		"plaintext":                                ErrInvalidHash,
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5": ErrInvalidHash,
		"$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5": ErrIncompatibleVersion,
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5":    ErrInvalidHash,
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$a2V5":    ErrInvalidHash,
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5":    ErrInvalidHash,
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$":     ErrInvalidHash,
	}

	for enc, want := range cases {
		ok, err := h.Verify("whatever", enc)
		assert.False(t, ok, enc)
		assert.ErrorIs(t, err, want, enc)
		assert.True(t, h.NeedsRehash(enc), enc)
	}
}

func TestNewPasswordHasher_RejectsBadParams(t *testing.T) {
	_, err := NewPasswordHasher(Params{Algorithm: "md5"})
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = NewPasswordHasher(Params{Algorithm: AlgorithmArgon2id})
	assert.Error(t, err)

	_, err = NewPasswordHasher(Params{Algorithm: AlgorithmBcrypt, BcryptCost: 99})
	assert.Error(t, err)

	_, err = NewPasswordHasher(DefaultParams())
	assert.NoError(t, err)
}
