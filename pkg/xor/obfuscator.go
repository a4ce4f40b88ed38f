package xor

import (
	"errors"
	"unicode/utf8"
)

var (
	ErrNotUTF8 = errors.New("revealed bytes are not valid UTF-8 text")
)

// Obfuscator applies a fixed salt to values with a repeating XOR.
// An Obfuscator is immutable and safe for concurrent use.
type Obfuscator struct {
	salt []byte
}

// NewObfuscator creates an Obfuscator that uses a copy of the given salt.
// An empty salt is rejected with ErrEmptySalt.
func NewObfuscator(salt []byte) (*Obfuscator, error) {
	if len(salt) == 0 {
		return nil, ErrEmptySalt
	}
	return &Obfuscator{salt: append([]byte(nil), salt...)}, nil
}

// Obfuscate screens plain with the salt, starting from the first salt byte.
func (o *Obfuscator) Obfuscate(plain []byte) []byte {
	scr, _ := newXorScreen(o.salt)
	return scr.apply(plain)
}

// ObfuscateString is a convenience for Obfuscate([]byte(s)).
func (o *Obfuscator) ObfuscateString(s string) []byte {
	return o.Obfuscate([]byte(s))
}

// RevealBytes reverses Obfuscate.
func (o *Obfuscator) RevealBytes(obfuscated []byte) []byte {
	return o.Obfuscate(obfuscated)
}

// Reveal reverses Obfuscate and interprets the result as UTF-8 text.
// ErrNotUTF8 is returned if the result isn't valid text, which usually means the salt is wrong or the payload was altered.
func (o *Obfuscator) Reveal(obfuscated []byte) (string, error) {
	plain := o.RevealBytes(obfuscated)
	if !utf8.Valid(plain) {
		return "", ErrNotUTF8
	}
	return string(plain), nil
}
