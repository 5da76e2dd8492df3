package common

import "crypto/rand"

// NoteIDLength is the length of the public note identifier handed out to
// clients. Collisions across 62^8 values are not checked for.
const NoteIDLength = 8

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// MakeRandAlphanumString generates a random alphanumeric string of the given
// length using the 62-symbol alphabet [A-Za-z0-9]. It returns an error if the
// random number generator fails.
func MakeRandAlphanumString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b), nil
}

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system randomness source fails.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
