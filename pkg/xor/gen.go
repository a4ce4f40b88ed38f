package xor

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// MaxSaltLength is the longest salt GenSalt will produce.
const MaxSaltLength = 4096

// GenSalt will generate a random salt with the given length.
// The result is suitable for NewObfuscator, and is usually printed once and compiled into the program.
func GenSalt(length int) ([]byte, error) {
	if length <= 0 {
		return nil, errors.New("asked to generate a 0-length salt")
	}
	if length > MaxSaltLength {
		return nil, fmt.Errorf("salt length cannot exceed %d", MaxSaltLength)
	}
	buf := make([]byte, length)
	n, err := rand.Read(buf)
	if n < length {
		return nil, fmt.Errorf("failed to read requested bytes: %v", err)
	}
	return buf, nil
}
