package cell

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	gcmNonceSize = 12
	gcmTagSize   = 16
)

var ErrShortPayload = errors.New("payload is too short")

// gcmFor creates an AES-GCM AEAD for the given AES key.
func gcmFor(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// lock will seal data under the AES key, then frame it with the generator header and the salt.
func lock(gen *KeyGenerator, aead cipher.AEAD, salt, data []byte, random io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if err := gen.mapper().Write(&buf, binary.BigEndian); err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(random, nonce); err != nil {
		return nil, err
	}

	buf.Write(aead.Seal(nonce, nonce, data, nil))
	buf.Write(salt)
	return buf.Bytes(), nil
}

// readHeader parses the generator settings that prefix a sealed payload, and returns the remaining bytes.
func readHeader(data []byte) (*KeyGenerator, []byte, error) {
	if len(data) < headerLen {
		return nil, nil, fmt.Errorf("%w: payload is too short to contain a header", ErrInvalidHeader)
	}
	gen := new(KeyGenerator)
	if err := gen.mapper().Read(bytes.NewReader(data[:headerLen]), binary.BigEndian); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if err := gen.validate(); err != nil {
		return nil, nil, err
	}
	return gen, data[headerLen:], nil
}

// splitBody separates nonce, sealed ciphertext, and salt.
func splitBody(body []byte, nonceSize, overhead, saltSize int) (nonce, sealed, salt []byte, err error) {
	if len(body) < nonceSize+overhead+saltSize {
		return nil, nil, nil, ErrShortPayload
	}
	nonce = body[:nonceSize]
	sealed = body[nonceSize : len(body)-saltSize]
	salt = body[len(body)-saltSize:]
	return nonce, sealed, salt, nil
}
