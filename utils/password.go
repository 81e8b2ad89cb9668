package utils

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost for new hashes. Tests lower it.
var PasswordCost = bcrypt.DefaultCost

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares in constant time.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyPasswordHash is compared against when a login names an unknown user,
// so both paths pay for one bcrypt comparison.
func DummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), PasswordCost)
		if err == nil {
			dummyHash = string(hash)
		}
	})
	return dummyHash
}
