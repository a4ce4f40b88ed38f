package keystore

import (
	"fmt"

	"github.com/saylorsolutions/secretcell/pkg/credstore"
	"github.com/saylorsolutions/secretcell/pkg/secret"
)

// SaveUserKey writes key to plain settings and then to the secure store, and finally marks the application as having run.
// Writing stops at the first failure.
func (s *Store) SaveUserKey(key secret.Key) error {
	if err := s.settings.SetBytes(UserKeySettingsKey, key.Bytes()); err != nil {
		return fmt.Errorf("failed to save user key to settings: %w", err)
	}
	if err := s.secure.Set(key.Bytes(), UserKeySecureKey, s.identifier, credstore.WhenUnlocked); err != nil {
		return fmt.Errorf("failed to save user key to secure store: %w", err)
	}
	if err := s.settings.SetBool(HasRunSettingsKey, true); err != nil {
		return fmt.Errorf("failed to record first run: %w", err)
	}
	s.log.Debug().Str("identifier", s.identifier).Msg("Saved user key")
	return nil
}

// ReadUserKeyFromSettings returns the user key from plain settings, or ErrKeyNotFound.
func (s *Store) ReadUserKeyFromSettings() (secret.Key, error) {
	data, ok, err := s.settings.Bytes(UserKeySettingsKey)
	if err != nil {
		return secret.Key{}, fmt.Errorf("failed to read user key from settings: %w", err)
	}
	if !ok {
		return secret.Key{}, ErrKeyNotFound
	}
	return secret.NewKey(data), nil
}

// ReadUserKeyFromSecureStore returns the user key from the secure store, or ErrKeyNotFound.
// A value found before this installation has saved a key is left over from a previous installation, and is ignored.
func (s *Store) ReadUserKeyFromSecureStore() (secret.Key, error) {
	data, ok, err := s.secure.Get(UserKeySecureKey, s.identifier)
	if err != nil {
		return secret.Key{}, fmt.Errorf("failed to read user key from secure store: %w", err)
	}
	if !ok {
		return secret.Key{}, ErrKeyNotFound
	}
	firstRun, err := s.IsFirstRun()
	if err != nil {
		return secret.Key{}, err
	}
	if firstRun {
		s.log.Warn().Str("identifier", s.identifier).Msg("Ignoring user key left in the secure store by a previous installation")
		return secret.Key{}, ErrKeyNotFound
	}
	return secret.NewKey(data), nil
}

// IsFirstRun reports whether no key has been saved by this installation yet.
func (s *Store) IsFirstRun() (bool, error) {
	hasRun, err := s.settings.Bool(HasRunSettingsKey)
	if err != nil {
		return false, fmt.Errorf("failed to read first run flag: %w", err)
	}
	return !hasRun, nil
}

// ClearUserKey removes the user key from both backends.
// The first run flag is kept, so a later save and read behave normally.
func (s *Store) ClearUserKey() error {
	if err := s.settings.Remove(UserKeySettingsKey); err != nil {
		return fmt.Errorf("failed to remove user key from settings: %w", err)
	}
	if err := s.secure.Remove(UserKeySecureKey, s.identifier); err != nil {
		return fmt.Errorf("failed to remove user key from secure store: %w", err)
	}
	return nil
}
