package utils

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/mehmetcc/session-rotation-service/internal/apperror"
)

var ErrInvalidExpiration = apperror.New(apperror.BadRequest, "invalid token expiration format")

// one digit run followed by exactly one unit character
var expirationPattern = regexp.MustCompile(`^([0-9]+)([a-zA-Z])$`)

var expirationUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
}

// ParseExpiration converts compact strings such as "30m" or "7d" into a duration.
// Fractions, signs, compound forms, zero and unknown units are rejected.
func ParseExpiration(expiration string) (time.Duration, error) {
	m := expirationPattern.FindStringSubmatch(expiration)
	if m == nil {
		return 0, ErrInvalidExpiration
	}
	unit, ok := expirationUnits[m[2]]
	if !ok {
		return 0, ErrInvalidExpiration
	}
	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || value == 0 || value > math.MaxInt64/int64(unit) {
		return 0, ErrInvalidExpiration
	}
	return time.Duration(value) * unit, nil
}
