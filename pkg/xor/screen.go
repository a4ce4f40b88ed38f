package xor

import (
	"errors"
)

var (
	ErrEmptySalt = errors.New("cannot use empty salt")
)

type xorScreen struct {
	salt []byte
	cur  int
}

func newXorScreen(salt []byte) (*xorScreen, error) {
	if len(salt) == 0 {
		return nil, ErrEmptySalt
	}
	return &xorScreen{salt: salt}, nil
}

func (s *xorScreen) screen(b byte) byte {
	b ^= s.salt[s.cur]
	s.cur = (s.cur + 1) % len(s.salt)
	return b
}

// apply screens every byte of in, returning a new slice.
func (s *xorScreen) apply(in []byte) []byte {
	out := make([]byte, len(in))
	for i := 0; i < len(in); i++ {
		out[i] = s.screen(in[i])
	}
	return out
}
