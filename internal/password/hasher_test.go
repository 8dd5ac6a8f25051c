package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testArgon2Params = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func hashers() map[string]Hasher {
	return map[string]Hasher{
		"bcrypt":   NewBcryptHasher(bcrypt.MinCost),
		"argon2id": NewArgon2idHasher(testArgon2Params),
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			digest, err := h.Hash("correct horse battery staple")
			require.NoError(t, err)
			assert.NotContains(t, digest, "correct horse")

			ok, err := h.Verify(digest, "correct horse battery staple")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify(digest, "wrong password")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestHasher_SaltsDiffer(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			a, err := h.Hash("same")
			require.NoError(t, err)
			b, err := h.Hash("same")
			require.NoError(t, err)
			assert.NotEqual(t, a, b)
		})
	}
}

func TestHasher_MalformedDigest(t *testing.T) {
	for name, h := range hashers() {
		t.Run(name, func(t *testing.T) {
			ok, err := h.Verify("garbage", "whatever")
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedDigest)
		})
	}
}

func TestNewHasher(t *testing.T) {
	for _, name := range []string{"", "bcrypt", "argon2id"} {
		h, err := NewHasher(name)
		require.NoError(t, err, name)
		assert.NotNil(t, h)
	}

	_, err := NewHasher("md5")
	assert.ErrorIs(t, err, ErrUnknownHasher)
}

func TestDispatchingHasher_VerifiesEitherAlgorithm(t *testing.T) {
	bcryptOnly := NewBcryptHasher(bcrypt.MinCost)
	argonOnly := NewArgon2idHasher(testArgon2Params)

	bcryptDigest, err := bcryptOnly.Hash("s3cret-passw0rd")
	require.NoError(t, err)
	argonDigest, err := argonOnly.Hash("s3cret-passw0rd")
	require.NoError(t, err)

	for name, primary := range hashers() {
		t.Run(name, func(t *testing.T) {
			h := NewDispatchingHasher(primary)

			for _, digest := range []string{bcryptDigest, argonDigest} {
				ok, err := h.Verify(digest, "s3cret-passw0rd")
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = h.Verify(digest, "wrong-passw0rd")
				require.NoError(t, err)
				assert.False(t, ok)
			}

			_, err := h.Verify("$1$legacy$md5", "s3cret-passw0rd")
			assert.ErrorIs(t, err, ErrMalformedDigest)
		})
	}
}

func TestDispatchingHasher_HashesWithPrimary(t *testing.T) {
	digest, err := NewDispatchingHasher(NewArgon2idHasher(testArgon2Params)).Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$"))

	digest, err = NewDispatchingHasher(NewBcryptHasher(bcrypt.MinCost)).Hash("pw")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))
}

func TestArgon2id_RejectsUnusableParams(t *testing.T) {
	h := NewArgon2idHasher(testArgon2Params)
	const tail = "$c29tZXNhbHRzb21lc2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5"

	for name, params := range map[string]string{
		"zero time":        "m=1024,t=0,p=1",
		"zero threads":     "m=1024,t=1,p=0",
		"zero memory":      "m=0,t=1,p=1",
		"absurd memory":    "m=4294967295,t=1,p=1",
		"threads overflow": "m=1024,t=1,p=300",
	} {
		t.Run(name, func(t *testing.T) {
			var (
				ok  bool
				err error
			)
			require.NotPanics(t, func() {
				ok, err = h.Verify("$argon2id$v=19$"+params+tail, "whatever")
			})
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedDigest)
		})
	}
}
