package keystore

import (
	"fmt"

	"github.com/saylorsolutions/secretcell/pkg/secret"
	"github.com/saylorsolutions/secretcell/pkg/textcodec"
)

const (
	PlaintextTokenField  = "SECRET_API_TOKEN"
	EncryptedTokenField  = "ENCRYPTED_API_TOKEN"
	ObfuscatedTokenField = "OBFUSCATED_API_TOKEN"

	// tokenPassphrase seals encrypted tokens. It ships with the program, so it only hides tokens from configuration readers.
	tokenPassphrase = "some 11510199114101116"
)

// Tier is the level of protection applied to a token in configuration.
type Tier int

const (
	Plaintext Tier = iota
	Obfuscated
	Encrypted
)

// Tiers lists every Tier, weakest first.
var Tiers = []Tier{Plaintext, Obfuscated, Encrypted}

func (t Tier) String() string {
	switch t {
	case Plaintext:
		return "plaintext"
	case Obfuscated:
		return "obfuscated"
	case Encrypted:
		return "encrypted"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Field is the configuration key that holds a token of this tier.
func (t Tier) Field() string {
	switch t {
	case Plaintext:
		return PlaintextTokenField
	case Obfuscated:
		return ObfuscatedTokenField
	case Encrypted:
		return EncryptedTokenField
	default:
		return ""
	}
}

// TokenResult is the outcome of reading one tier.
type TokenResult struct {
	Tier  Tier
	Token secret.Key
	Err   error
}

// GeneratedTokens holds the configuration values that represent a token in the protected tiers.
type GeneratedTokens struct {
	Obfuscated string
	Encrypted  string
}

func tokenKey() secret.Key {
	key, _ := secret.KeyFromString(tokenPassphrase)
	return key
}

// ReadToken reads the token stored for the given tier.
func (s *Store) ReadToken(tier Tier) (secret.Key, error) {
	switch tier {
	case Plaintext:
		return s.ReadPlaintextToken()
	case Obfuscated:
		return s.ReadObfuscatedToken()
	case Encrypted:
		return s.ReadEncryptedToken()
	default:
		return secret.Key{}, fmt.Errorf("unknown token tier: %s", tier)
	}
}

// ReadAPITokens reads every tier, so that one unreadable tier doesn't hide the others.
func (s *Store) ReadAPITokens() []TokenResult {
	results := make([]TokenResult, 0, len(Tiers))
	for _, tier := range Tiers {
		token, err := s.ReadToken(tier)
		results = append(results, TokenResult{Tier: tier, Token: token, Err: err})
	}
	return results
}

func (s *Store) field(tier Tier) (string, error) {
	return s.source.String(s.section, tier.Field())
}

func (s *Store) unreadable(tier Tier, err error) error {
	s.log.Debug().Err(err).Stringer("tier", tier).Msg("Unable to read token")
	return fmt.Errorf("%w: %s token: %w", ErrTokenUnreadable, tier, err)
}

// ReadPlaintextToken returns the unprotected token as it appears in configuration.
func (s *Store) ReadPlaintextToken() (secret.Key, error) {
	text, err := s.field(Plaintext)
	if err != nil {
		return secret.Key{}, err
	}
	token, err := secret.KeyFromString(text)
	if err != nil {
		return secret.Key{}, s.unreadable(Plaintext, err)
	}
	return token, nil
}

// ReadObfuscatedToken decodes and reveals the obfuscated token.
func (s *Store) ReadObfuscatedToken() (secret.Key, error) {
	text, err := s.field(Obfuscated)
	if err != nil {
		return secret.Key{}, err
	}
	screened, err := textcodec.Decode(text)
	if err != nil {
		return secret.Key{}, s.unreadable(Obfuscated, err)
	}
	revealed, err := s.obfuscator.Reveal(screened)
	if err != nil {
		return secret.Key{}, s.unreadable(Obfuscated, err)
	}
	token, err := secret.KeyFromString(revealed)
	if err != nil {
		return secret.Key{}, s.unreadable(Obfuscated, err)
	}
	return token, nil
}

// ReadEncryptedToken decodes and decrypts the encrypted token.
func (s *Store) ReadEncryptedToken() (secret.Key, error) {
	text, err := s.field(Encrypted)
	if err != nil {
		return secret.Key{}, err
	}
	sealed, err := secret.EncryptedDataFromText(text)
	if err != nil {
		return secret.Key{}, s.unreadable(Encrypted, err)
	}
	decrypted, err := s.engine.Decrypt(sealed, tokenKey())
	if err != nil {
		return secret.Key{}, s.unreadable(Encrypted, err)
	}
	token, err := secret.KeyFromString(decrypted)
	if err != nil {
		return secret.Key{}, s.unreadable(Encrypted, err)
	}
	return token, nil
}

// ObfuscateToken returns the configuration value for token in the Obfuscated tier.
func (s *Store) ObfuscateToken(token string) string {
	return textcodec.Encode(s.obfuscator.ObfuscateString(token))
}

// EncryptToken returns the configuration value for token in the Encrypted tier.
func (s *Store) EncryptToken(token string) (string, error) {
	sealed, err := s.engine.Encrypt(token, tokenKey())
	if err != nil {
		return "", err
	}
	return sealed.Text(), nil
}

// GenerateAPITokens produces the obfuscated and encrypted configuration values for token.
// Values are only meant to be generated while authoring configuration.
func (s *Store) GenerateAPITokens(token string) (GeneratedTokens, error) {
	if len(token) == 0 {
		return GeneratedTokens{}, secret.ErrEmptyKey
	}
	encrypted, err := s.EncryptToken(token)
	if err != nil {
		return GeneratedTokens{}, err
	}
	return GeneratedTokens{
		Obfuscated: s.ObfuscateToken(token),
		Encrypted:  encrypted,
	}, nil
}
