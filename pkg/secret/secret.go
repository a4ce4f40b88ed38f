// Package secret defines the immutable value types exchanged between the encryption engine and the key store.
package secret

import (
	"errors"
	"unicode/utf8"

	"github.com/saylorsolutions/secretcell/pkg/textcodec"
)

var (
	ErrEmptyKey = errors.New("cannot create a key from an empty string")
)

// Key is either a user password or a symmetric encryption key.
// The underlying bytes are copied in and out, so only Wipe can change a Key after construction.
// Copies of a Key value share one buffer, and Wipe on any of them zeroes them all.
type Key struct {
	data []byte
}

// NewKey creates a Key holding a copy of data.
func NewKey(data []byte) Key {
	return Key{data: clone(data)}
}

// KeyFromString creates a Key from the UTF-8 bytes of s.
// An empty s is rejected with ErrEmptyKey.
func KeyFromString(s string) (Key, error) {
	if len(s) == 0 {
		return Key{}, ErrEmptyKey
	}
	return Key{data: []byte(s)}, nil
}

// KeyFromText creates a Key from its canonical text form, as returned by Key.Text.
func KeyFromText(text string) (Key, error) {
	data, err := textcodec.Decode(text)
	if err != nil {
		return Key{}, err
	}
	return Key{data: data}, nil
}

// Bytes returns a copy of the key material.
func (k Key) Bytes() []byte {
	return clone(k.data)
}

// Len returns the number of bytes in the key.
func (k Key) Len() int {
	return len(k.data)
}

// IsZero reports whether the key holds no bytes.
func (k Key) IsZero() bool {
	return len(k.data) == 0
}

// Text returns the canonical (percent-encoded base64) text form.
func (k Key) Text() string {
	return textcodec.Encode(k.data)
}

// UTF8 returns the key interpreted as text.
// The second return value is false if the key isn't valid UTF-8.
func (k Key) UTF8() (string, bool) {
	if !utf8.Valid(k.data) {
		return "", false
	}
	return string(k.data), true
}

// Equal reports whether both keys hold the same bytes.
func (k Key) Equal(other Key) bool {
	return string(k.data) == string(other.data)
}

// Wipe zeroes the key bytes, including for every copy of this Key value.
// Slices previously returned from Bytes are not affected.
func (k Key) Wipe() {
	for i := range k.data {
		k.data[i] = 0
	}
}

// String keeps key material out of formatted output and logs.
func (k Key) String() string {
	return "secret.Key(redacted)"
}

// EncryptedData is a sealed payload produced by the encryption engine.
// It carries no record of the Key used to produce it.
type EncryptedData struct {
	data []byte
}

// NewEncryptedData creates an EncryptedData holding a copy of data.
func NewEncryptedData(data []byte) EncryptedData {
	return EncryptedData{data: clone(data)}
}

// EncryptedDataFromText creates an EncryptedData from its canonical text form.
func EncryptedDataFromText(text string) (EncryptedData, error) {
	data, err := textcodec.Decode(text)
	if err != nil {
		return EncryptedData{}, err
	}
	return EncryptedData{data: data}, nil
}

// Bytes returns a copy of the sealed payload.
func (d EncryptedData) Bytes() []byte {
	return clone(d.data)
}

func (d EncryptedData) Len() int {
	return len(d.data)
}

// Text returns the canonical (percent-encoded base64) text form.
func (d EncryptedData) Text() string {
	return textcodec.Encode(d.data)
}

func clone(data []byte) []byte {
	if data == nil {
		return nil
	}
	return append(make([]byte, 0, len(data)), data...)
}
