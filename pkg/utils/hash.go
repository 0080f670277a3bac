package utils

import (
	"crypto/sha256"
	"crypto/subtle"
)

// TokenEquals compares two secrets in constant time. Both values are hashed first
// so the comparison does not depend on the length of the expected token.
func TokenEquals(got, want string) bool {
	a := sha256.Sum256([]byte(got))
	b := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
