package login

import "golang.org/x/crypto/bcrypt"

const (
	// PasswordCost is the bcrypt work factor used for every hash
	PasswordCost = 10
	// MaxPasswordBytes is the longest input bcrypt accepts
	MaxPasswordBytes = 72
)

// PasswordHasher hashes and checks plaintext passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Hasher is the bcrypt PasswordHasher
type Hasher struct{}

// Hash returns a salted bcrypt hash of password
func (Hasher) Hash(password string) (string, error) {
	return HashPassword(password)
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (Hasher) Verify(password, hash string) bool {
	return ComparePasswordAndHash(password, hash) == nil
}

var _ PasswordHasher = Hasher{}

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", internalError(err, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	// malformed hashes are reported as a mismatch too
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
