// Package hasher wraps bcrypt so password hashing stays an explicit,
// testable call in the user save path instead of a persistence hook.
package hasher

import "golang.org/x/crypto/bcrypt"

// Cost 10 keeps login latency acceptable while staying expensive
// enough against offline brute force.
const cost = 10

func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
