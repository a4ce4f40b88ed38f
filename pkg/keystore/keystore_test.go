package keystore

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/saylorsolutions/secretcell/pkg/cell"
	"github.com/saylorsolutions/secretcell/pkg/credstore"
	"github.com/saylorsolutions/secretcell/pkg/resource"
	"github.com/saylorsolutions/secretcell/pkg/secret"
	"github.com/saylorsolutions/secretcell/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

type testEnv struct {
	store    *Store
	settings *settings.SQLite
	secure   *credstore.Keyring
	doc      resource.Document
	logs     *bytes.Buffer
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	keyring.MockInit()
	plain, err := settings.OpenSQLite(settings.InMemory)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = plain.Close()
	})
	gen, err := cell.NewKeyGenerator(cell.SetIterations(1 << 10))
	require.NoError(t, err)

	env := &testEnv{
		settings: plain,
		secure:   credstore.NewKeyring(),
		doc:      resource.Document{},
		logs:     new(bytes.Buffer),
	}
	opts = append([]Option{WithLogger(zerolog.New(env.logs))}, opts...)
	env.store, err = New(cell.NewEngine(gen), env.settings, env.secure, env.doc, opts...)
	require.NoError(t, err)
	return env
}

func mustKey(t *testing.T, s string) secret.Key {
	t.Helper()
	key, err := secret.KeyFromString(s)
	require.NoError(t, err)
	return key
}

func TestNew_MissingBackend(t *testing.T) {
	plain, err := settings.OpenSQLite(settings.InMemory)
	require.NoError(t, err)
	defer func() {
		_ = plain.Close()
	}()
	engine := cell.NewEngine(nil)
	secure := credstore.NewKeyring()
	doc := resource.Document{}

	_, err = New(nil, plain, secure, doc)
	assert.ErrorIs(t, err, ErrMissingBackend)
	_, err = New(engine, nil, secure, doc)
	assert.ErrorIs(t, err, ErrMissingBackend)
	_, err = New(engine, plain, nil, doc)
	assert.ErrorIs(t, err, ErrMissingBackend)
	_, err = New(engine, plain, secure, nil)
	assert.ErrorIs(t, err, ErrMissingBackend)

	_, err = New(engine, plain, secure, doc, WithObfuscationSalt(nil))
	assert.Error(t, err)
	_, err = New(engine, plain, secure, doc, WithSection(""))
	assert.Error(t, err)
	_, err = New(engine, plain, secure, doc, WithSecureIdentifier(""))
	assert.Error(t, err)
}

func TestNew_DefaultLoggerDiscards(t *testing.T) {
	plain, err := settings.OpenSQLite(settings.InMemory)
	require.NoError(t, err)
	defer func() {
		_ = plain.Close()
	}()
	store, err := New(cell.NewEngine(nil), plain, credstore.NewKeyring(), resource.Document{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, store.log.GetLevel())

	store, err = New(cell.NewEngine(nil), plain, credstore.NewKeyring(), resource.Document{}, WithLogger(zerolog.New(&bytes.Buffer{})))
	require.NoError(t, err)
	assert.NotEqual(t, zerolog.Disabled, store.log.GetLevel())
}

func TestSaveUserKey_ReadFromSettings(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.store.ReadUserKeyFromSettings()
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, env.store.SaveUserKey(mustKey(t, "rabbit")))
	key, err := env.store.ReadUserKeyFromSettings()
	require.NoError(t, err)
	text, ok := key.UTF8()
	assert.True(t, ok)
	assert.Equal(t, "rabbit", text)
}

func TestSaveUserKey_ReadFromSecureStore(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.store.ReadUserKeyFromSecureStore()
	assert.ErrorIs(t, err, ErrKeyNotFound)

	firstRun, err := env.store.IsFirstRun()
	require.NoError(t, err)
	assert.True(t, firstRun)

	require.NoError(t, env.store.SaveUserKey(mustKey(t, "rabbit")))
	firstRun, err = env.store.IsFirstRun()
	require.NoError(t, err)
	assert.False(t, firstRun)

	key, err := env.store.ReadUserKeyFromSecureStore()
	require.NoError(t, err)
	assert.True(t, key.Equal(mustKey(t, "rabbit")))
}

func TestReadUserKeyFromSecureStore_StaleOnFirstRun(t *testing.T) {
	env := newTestEnv(t)
	// Left behind by a previous installation.
	require.NoError(t, env.secure.Set([]byte("old password"), UserKeySecureKey, DefaultIdentifier, credstore.WhenUnlocked))

	_, err := env.store.ReadUserKeyFromSecureStore()
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Contains(t, env.logs.String(), "previous installation")

	require.NoError(t, env.settings.SetBool(HasRunSettingsKey, true))
	key, err := env.store.ReadUserKeyFromSecureStore()
	require.NoError(t, err)
	assert.True(t, key.Equal(mustKey(t, "old password")))
}

func TestSaveUserKey_CustomIdentifier(t *testing.T) {
	env := newTestEnv(t, WithSecureIdentifier("other"))
	require.NoError(t, env.store.SaveUserKey(mustKey(t, "rabbit")))

	_, ok, err := env.secure.Get(UserKeySecureKey, DefaultIdentifier)
	require.NoError(t, err)
	assert.False(t, ok)
	val, ok, err := env.secure.Get(UserKeySecureKey, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("rabbit"), val)
}

func TestClearUserKey(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SaveUserKey(mustKey(t, "rabbit")))
	require.NoError(t, env.store.ClearUserKey())

	_, err := env.store.ReadUserKeyFromSettings()
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = env.store.ReadUserKeyFromSecureStore()
	assert.ErrorIs(t, err, ErrKeyNotFound)
	firstRun, err := env.store.IsFirstRun()
	require.NoError(t, err)
	assert.False(t, firstRun)
}

// recorder logs the order of writes across both backends, and can fail a named operation.
type recorder struct {
	calls  []string
	failOn string
	plain  settings.Store
	secure credstore.Store
}

var errInjected = errors.New("injected failure")

func (r *recorder) record(name string) error {
	r.calls = append(r.calls, name)
	if name == r.failOn {
		return errInjected
	}
	return nil
}

type recordingSettings struct{ *recorder }

func (s recordingSettings) SetBytes(key string, value []byte) error {
	if err := s.record("settings.SetBytes"); err != nil {
		return err
	}
	return s.plain.SetBytes(key, value)
}

func (s recordingSettings) SetBool(key string, value bool) error {
	if err := s.record("settings.SetBool"); err != nil {
		return err
	}
	return s.plain.SetBool(key, value)
}

func (s recordingSettings) Bytes(key string) ([]byte, bool, error) {
	return s.plain.Bytes(key)
}

func (s recordingSettings) Bool(key string) (bool, error) {
	return s.plain.Bool(key)
}

func (s recordingSettings) Remove(key string) error {
	return s.plain.Remove(key)
}

type recordingSecure struct{ *recorder }

func (s recordingSecure) Set(value []byte, key, identifier string, access credstore.Accessibility) error {
	if err := s.record("secure.Set"); err != nil {
		return err
	}
	return s.secure.Set(value, key, identifier, access)
}

func (s recordingSecure) Get(key, identifier string) ([]byte, bool, error) {
	return s.secure.Get(key, identifier)
}

func (s recordingSecure) Remove(key, identifier string) error {
	return s.secure.Remove(key, identifier)
}

func newRecordingStore(t *testing.T, failOn string) (*Store, *recorder) {
	t.Helper()
	keyring.MockInit()
	plain, err := settings.OpenSQLite(settings.InMemory)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = plain.Close()
	})
	rec := &recorder{failOn: failOn, plain: plain, secure: credstore.NewKeyring()}
	store, err := New(cell.NewEngine(nil), recordingSettings{rec}, recordingSecure{rec}, resource.Document{})
	require.NoError(t, err)
	return store, rec
}

func TestSaveUserKey_Order(t *testing.T) {
	store, rec := newRecordingStore(t, "")
	require.NoError(t, store.SaveUserKey(mustKey(t, "rabbit")))
	assert.Equal(t, []string{"settings.SetBytes", "secure.Set", "settings.SetBool"}, rec.calls)
}

func TestSaveUserKey_StopsAtFirstFailure(t *testing.T) {
	tests := map[string][]string{
		"settings.SetBytes": {"settings.SetBytes"},
		"secure.Set":        {"settings.SetBytes", "secure.Set"},
		"settings.SetBool":  {"settings.SetBytes", "secure.Set", "settings.SetBool"},
	}
	for failOn, expected := range tests {
		t.Run(failOn, func(t *testing.T) {
			store, rec := newRecordingStore(t, failOn)
			err := store.SaveUserKey(mustKey(t, "rabbit"))
			assert.ErrorIs(t, err, errInjected)
			assert.Equal(t, expected, rec.calls)

			firstRun, err := store.IsFirstRun()
			require.NoError(t, err)
			assert.True(t, firstRun, "A failed save should not mark the first run as complete")
		})
	}
}
