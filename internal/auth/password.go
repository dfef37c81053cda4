package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// bcryptCost is used for all newly produced hashes.
const bcryptCost = 12

const legacyMaxIterations = 1_000_000

// VerifyPassword checks a raw password against a stored hash. The stored
// value is format-tagged: a bcrypt prefix selects the modern scheme, two
// colons select the legacy pre-migration scheme ("hexdigest:salt:iterations",
// PBKDF2-HMAC-SHA256). Anything else fails closed: the function returns
// false and never an error, so an unrecognized or corrupted hash can never
// authenticate anyone.
func VerifyPassword(password, storedHash string) bool {
	switch {
	case isBcryptHash(storedHash):
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
	case strings.Count(storedHash, ":") == 2:
		return verifyLegacy(password, storedHash)
	default:
		return false
	}
}

// HashPassword produces a hash in the modern scheme. The legacy scheme is
// verify-only and is never written.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}

// verifyLegacy re-derives the PBKDF2-HMAC-SHA256 digest with the stored salt
// and iteration count and compares it in constant time.
func verifyLegacy(password, storedHash string) bool {
	parts := strings.SplitN(storedHash, ":", 3)
	if len(parts) != 3 {
		return false
	}

	expected, err := hex.DecodeString(parts[0])
	if err != nil || len(expected) == 0 {
		return false
	}

	salt := parts[1]
	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations <= 0 || iterations > legacyMaxIterations {
		return false
	}

	derived := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(expected), sha256.New)

	return subtle.ConstantTimeCompare(derived, expected) == 1
}
