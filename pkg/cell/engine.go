package cell

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saylorsolutions/secretcell/pkg/secret"
)

var (
	ErrEncryptorInit = errors.New("unable to initialize encryptor with the given key")
	ErrEncryption    = errors.New("unable to encrypt message")
	ErrDecryption    = errors.New("unable to decrypt message")
	ErrOutputNotUTF8 = errors.New("decrypted message is not valid UTF-8 text")
)

// Engine encrypts and decrypts messages under caller-supplied keys.
// An Engine is safe for concurrent use.
type Engine struct {
	gen    *KeyGenerator
	random io.Reader
}

type EngineOpt = func(*Engine)

// WithRandom replaces the source of salts and nonces, which is crypto/rand by default.
func WithRandom(random io.Reader) EngineOpt {
	return func(e *Engine) {
		e.random = random
	}
}

// NewEngine creates an Engine that seals new payloads with the settings of gen.
// A nil gen uses NewKeyGenerator defaults.
func NewEngine(gen *KeyGenerator, opts ...EngineOpt) *Engine {
	if gen == nil {
		gen, _ = NewKeyGenerator()
	}
	e := &Engine{
		gen:    gen,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encrypt seals message under key.
func (e *Engine) Encrypt(message string, key secret.Key) (secret.EncryptedData, error) {
	sealed, err := e.Seal([]byte(message), key)
	if err != nil {
		return secret.EncryptedData{}, err
	}
	return secret.NewEncryptedData(sealed), nil
}

// Decrypt opens data with key and returns the message as text.
// ErrDecryption is returned for a wrong key or a modified payload.
func (e *Engine) Decrypt(data secret.EncryptedData, key secret.Key) (string, error) {
	plain, err := e.Open(data.Bytes(), key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", ErrOutputNotUTF8
	}
	return string(plain), nil
}

// Seal encrypts arbitrary bytes under key, returning the framed payload.
func (e *Engine) Seal(plain []byte, key secret.Key) ([]byte, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("%w: %v", ErrEncryptorInit, ErrEmptyKey)
	}
	aesKey, salt, err := e.gen.GenerateKey(key.Bytes(), e.random)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	aead, err := gcmFor(aesKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptorInit, err)
	}
	sealed, err := lock(e.gen, aead, salt, plain, e.random)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	return sealed, nil
}

// Open reverses Seal.
// The KDF settings are taken from the payload, not from the Engine.
func (e *Engine) Open(sealed []byte, key secret.Key) ([]byte, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("%w: %v", ErrEncryptorInit, ErrEmptyKey)
	}
	gen, body, err := readHeader(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	saltSize := gen.SaltSize()
	// Checked before the key is derived.
	if len(body) < gcmNonceSize+gcmTagSize+saltSize {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, ErrShortPayload)
	}
	aesKey, err := gen.DeriveKey(key.Bytes(), body[len(body)-saltSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	aead, err := gcmFor(aesKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptorInit, err)
	}
	nonce, cipherText, _, err := splitBody(body, aead.NonceSize(), aead.Overhead(), saltSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	plain, err := aead.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plain, nil
}
