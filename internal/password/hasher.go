// Package password hashes and verifies user passwords. Raw passwords never
// leave this package in any form other than a one-way digest.
package password

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownHasher   = errors.New("unknown password hasher")
	ErrMalformedDigest = errors.New("malformed password digest")
)

// Hasher turns a password into a digest and checks a password against one.
// Verify returns false with a nil error on a plain mismatch.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) (bool, error)
}

// NewHasher returns a hasher that hashes with the algorithm registered under
// name ("bcrypt" or "argon2id") and verifies digests of either algorithm.
func NewHasher(name string) (Hasher, error) {
	switch name {
	case "", "bcrypt":
		return NewDispatchingHasher(NewBcryptHasher(0)), nil
	case "argon2id":
		return NewDispatchingHasher(NewArgon2idHasher(DefaultArgon2Params)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
	}
}

type dispatchingHasher struct {
	primary  Hasher
	bcrypt   Hasher
	argon2id Hasher
}

// NewDispatchingHasher hashes with primary and picks the verifier from the
// digest prefix, so accounts survive a change of PASSWORD_HASHER.
func NewDispatchingHasher(primary Hasher) Hasher {
	return &dispatchingHasher{
		primary: primary,
		// verification reads cost and params from the digest itself
		bcrypt:   NewBcryptHasher(0),
		argon2id: NewArgon2idHasher(DefaultArgon2Params),
	}
}

func (h *dispatchingHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *dispatchingHasher) Verify(digest, password string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return h.argon2id.Verify(digest, password)
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return h.bcrypt.Verify(digest, password)
	default:
		return false, ErrMalformedDigest
	}
}
