/*
Package textcodec converts binary blobs to and from a text form that is safe to store in text-only configuration.

The text form is standard base64, with every character outside of [A-Za-z0-9] percent-escaped.
This means that '+', '/', and '=' in the base64 output are written as %2B, %2F, and %3D respectively.

Decoding reverses the process: the text is percent-decoded first, then any character that is not part of the base64 alphabet (such as line feeds) is ignored before base64 decoding.
*/
package textcodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

var (
	ErrDecode = errors.New("unable to decode text")
)

const upperHex = "0123456789ABCDEF"

// Encode returns the percent-encoded base64 form of data.
func Encode(data []byte) string {
	return escape(base64.StdEncoding.EncodeToString(data))
}

// Decode returns the bytes represented by text, which is expected to be in the form produced by Encode.
// An error wrapping ErrDecode is returned if either the percent or base64 layer is malformed.
func Decode(text string) ([]byte, error) {
	unescaped, err := url.PathUnescape(text)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid percent encoding: %v", ErrDecode, err)
	}
	if !utf8.ValidString(unescaped) {
		return nil, fmt.Errorf("%w: percent encoding does not decode to valid text", ErrDecode)
	}
	data, err := base64.StdEncoding.DecodeString(stripUnknown(unescaped))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrDecode, err)
	}
	return data, nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isBase64(c byte) bool {
	return isAlphanumeric(c) || c == '+' || c == '/' || c == '='
}

func escape(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAlphanumeric(c) {
			buf.WriteByte(c)
			continue
		}
		buf.WriteByte('%')
		buf.WriteByte(upperHex[c>>4])
		buf.WriteByte(upperHex[c&0x0f])
	}
	return buf.String()
}

func stripUnknown(s string) string {
	var buf strings.Builder
	buf.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if isBase64(s[i]) {
			buf.WriteByte(s[i])
		}
	}
	return buf.String()
}
