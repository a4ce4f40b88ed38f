// Package credstore provides secret storage backed by the operating system's credential store.
//
// Values are grouped by an identifier (the keyring service name), and addressed by key within that identifier.
// Binary values are stored in their canonical text form, since OS keyrings generally store strings.
//
// Note that OS credential stores may retain values after the owning application is removed.
package credstore

import (
	"errors"
	"fmt"

	"github.com/saylorsolutions/secretcell/pkg/textcodec"
	"github.com/zalando/go-keyring"
)

var (
	ErrUnsupportedAccessibility = errors.New("unsupported accessibility")
)

// Accessibility describes when a stored value may be read.
type Accessibility int

const (
	// WhenUnlocked values are only readable while the user's session is unlocked.
	// This is the only behavior that desktop keyrings provide.
	WhenUnlocked Accessibility = iota
	// AfterFirstUnlock values are readable any time after the first unlock following boot.
	AfterFirstUnlock
	// Always values are readable regardless of lock state.
	Always
)

func (a Accessibility) String() string {
	switch a {
	case WhenUnlocked:
		return "whenUnlocked"
	case AfterFirstUnlock:
		return "afterFirstUnlock"
	case Always:
		return "always"
	default:
		return fmt.Sprintf("Accessibility(%d)", int(a))
	}
}

// Store is the interface for secure credential storage.
type Store interface {
	// Set stores value under key for the given identifier.
	Set(value []byte, key, identifier string, access Accessibility) error
	// Get returns the value stored under key for the given identifier. The second return value is false if nothing is stored.
	Get(key, identifier string) ([]byte, bool, error)
	// Remove deletes the value, which is not an error if it doesn't exist.
	Remove(key, identifier string) error
}

// Keyring is a Store that uses the OS keyring (Keychain, Secret Service, or Windows Credential Manager).
type Keyring struct{}

var _ Store = (*Keyring)(nil)

func NewKeyring() *Keyring {
	return new(Keyring)
}

func (k *Keyring) Set(value []byte, key, identifier string, access Accessibility) error {
	if access != WhenUnlocked {
		return fmt.Errorf("%w: %s", ErrUnsupportedAccessibility, access)
	}
	if err := keyring.Set(identifier, key, textcodec.Encode(value)); err != nil {
		return fmt.Errorf("failed to store '%s' in keyring '%s': %w", key, identifier, err)
	}
	return nil
}

func (k *Keyring) Get(key, identifier string) ([]byte, bool, error) {
	text, err := keyring.Get(identifier, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read '%s' from keyring '%s': %w", key, identifier, err)
	}
	value, err := textcodec.Decode(text)
	if err != nil {
		return nil, false, fmt.Errorf("value of '%s' in keyring '%s' is corrupt: %w", key, identifier, err)
	}
	return value, true, nil
}

func (k *Keyring) Remove(key, identifier string) error {
	if err := keyring.Delete(identifier, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to remove '%s' from keyring '%s': %w", key, identifier, err)
	}
	return nil
}
