package keystore

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/saylorsolutions/secretcell/internal/logger"
	"github.com/saylorsolutions/secretcell/pkg/cell"
	"github.com/saylorsolutions/secretcell/pkg/credstore"
	"github.com/saylorsolutions/secretcell/pkg/resource"
	"github.com/saylorsolutions/secretcell/pkg/settings"
	"github.com/saylorsolutions/secretcell/pkg/xor"
)

const (
	HasRunSettingsKey  = "appHasRunBefore"
	UserKeySettingsKey = "encryptionKey"
	DefaultIdentifier  = "datasecurityworkshop"
	UserKeySecureKey   = "encryptionkey"
	DefaultSection     = "Info"

	DefaultObfuscationSalt = "secretcell:token-obfuscation"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrTokenUnreadable = errors.New("token is unreadable")
	ErrMissingBackend  = errors.New("missing required backend")
)

// Store coordinates the encryption engine with settings, secure storage, and configuration.
type Store struct {
	engine     *cell.Engine
	settings   settings.Store
	secure     credstore.Store
	source     resource.Source
	obfuscator *xor.Obfuscator
	log        zerolog.Logger
	section    string
	identifier string
}

// Option customizes a Store created with New.
type Option = func(*Store) error

// WithLogger sets the logger, which discards everything by default.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) error {
		s.log = log
		return nil
	}
}

// WithObfuscationSalt replaces DefaultObfuscationSalt.
// Tokens must be revealed with the salt they were obfuscated with.
func WithObfuscationSalt(salt []byte) Option {
	return func(s *Store) error {
		obf, err := xor.NewObfuscator(salt)
		if err != nil {
			return err
		}
		s.obfuscator = obf
		return nil
	}
}

// WithSection sets the configuration section that tokens are read from, which is DefaultSection by default.
func WithSection(section string) Option {
	return func(s *Store) error {
		if len(section) == 0 {
			return errors.New("empty section name")
		}
		s.section = section
		return nil
	}
}

// WithSecureIdentifier sets the identifier used to group values in the secure store, which is DefaultIdentifier by default.
func WithSecureIdentifier(identifier string) Option {
	return func(s *Store) error {
		if len(identifier) == 0 {
			return errors.New("empty secure store identifier")
		}
		s.identifier = identifier
		return nil
	}
}

// New creates a Store. All backends are required.
func New(engine *cell.Engine, plain settings.Store, secure credstore.Store, source resource.Source, opts ...Option) (*Store, error) {
	switch {
	case engine == nil:
		return nil, fmt.Errorf("%w: encryption engine", ErrMissingBackend)
	case plain == nil:
		return nil, fmt.Errorf("%w: settings store", ErrMissingBackend)
	case secure == nil:
		return nil, fmt.Errorf("%w: secure store", ErrMissingBackend)
	case source == nil:
		return nil, fmt.Errorf("%w: config source", ErrMissingBackend)
	}
	obf, err := xor.NewObfuscator([]byte(DefaultObfuscationSalt))
	if err != nil {
		return nil, err
	}
	s := &Store{
		engine:     engine,
		settings:   plain,
		secure:     secure,
		source:     source,
		obfuscator: obf,
		log:        logger.Nop(),
		section:    DefaultSection,
		identifier: DefaultIdentifier,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}
