package quiz

import "crypto/subtle"

// VerifySecret compares a provided shared secret against the expected
// one in constant time.
func VerifySecret(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
