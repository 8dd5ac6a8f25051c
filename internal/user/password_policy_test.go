package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, CheckPassword("abcdefg1"))
	assert.NoError(t, CheckPassword("pässwört9"))
	assert.ErrorIs(t, CheckPassword("abc1"), ErrPasswordTooShort)
	assert.ErrorIs(t, CheckPassword("abcdefgh"), ErrPasswordTooWeak)
	assert.ErrorIs(t, CheckPassword("12345678"), ErrPasswordTooWeak)
}

func TestCheckPassword_ByteLimit(t *testing.T) {
	assert.NoError(t, CheckPassword(strings.Repeat("a1", 36)))
	assert.ErrorIs(t, CheckPassword(strings.Repeat("a1", 40)), ErrPasswordTooLong)

	// 50 runes but 75 bytes
	assert.ErrorIs(t, CheckPassword(strings.Repeat("é1", 25)), ErrPasswordTooLong)
}
