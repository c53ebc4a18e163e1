// Package auth holds password hashing, server-side sessions and the access predicates
// used by route guards and services.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultPBKDF2Iterations is the work factor for new PBKDF2 hashes.
	DefaultPBKDF2Iterations = 600000

	pbkdf2Prefix = "pbkdf2:sha256"
	saltLength   = 16
	saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength    = 32
)

// Hasher turns a plaintext password into a self-describing encoded hash.
type Hasher interface {
	Hash(password string) (string, error)
}

// PBKDF2Hasher encodes hashes as pbkdf2:sha256:<iterations>$<salt>$<hex digest>.
type PBKDF2Hasher struct {
	Iterations int
}

// Hash salts and stretches password.
func (h PBKDF2Hasher) Hash(password string) (string, error) {
	iterations := h.Iterations
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	salt, err := randomSalt(saltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Prefix, iterations, salt, hex.EncodeToString(digest)), nil
}

// BcryptHasher produces standard $2a$ bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

// Hash runs bcrypt at the configured cost.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// NewHasher returns the hasher named by kind ("pbkdf2" or "bcrypt").
func NewHasher(kind string, iterations int) Hasher {
	if kind == "bcrypt" {
		return BcryptHasher{}
	}
	return PBKDF2Hasher{Iterations: iterations}
}

// VerifyPassword reports whether password matches encoded. Both PBKDF2 and bcrypt
// encodings are accepted so an installation can switch hashers without resets.
func VerifyPassword(encoded, password string) bool {
	if strings.HasPrefix(encoded, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	}

	method, rest, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}
	salt, want, ok := strings.Cut(rest, "$")
	if !ok || salt == "" || want == "" {
		return false
	}

	iterations := DefaultPBKDF2Iterations
	switch {
	case method == pbkdf2Prefix:
	case strings.HasPrefix(method, pbkdf2Prefix+":"):
		n, err := strconv.Atoi(strings.TrimPrefix(method, pbkdf2Prefix+":"))
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	default:
		return false
	}

	wantBytes, err := hex.DecodeString(want)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(wantBytes), sha256.New)
	return subtle.ConstantTimeCompare(got, wantBytes) == 1
}

func randomSalt(n int) (string, error) {
	limit := big.NewInt(int64(len(saltAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
