package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/saylorsolutions/secretcell/cmd/internal"
	"github.com/saylorsolutions/secretcell/internal/config"
	"github.com/saylorsolutions/secretcell/internal/logger"
	"github.com/saylorsolutions/secretcell/pkg/cell"
	"github.com/saylorsolutions/secretcell/pkg/credstore"
	"github.com/saylorsolutions/secretcell/pkg/keystore"
	"github.com/saylorsolutions/secretcell/pkg/resource"
	"github.com/saylorsolutions/secretcell/pkg/secret"
	"github.com/saylorsolutions/secretcell/pkg/settings"
	"github.com/saylorsolutions/secretcell/pkg/xor"
	flag "github.com/spf13/pflag"
)

const defaultSaltLen = 32

var (
	errUsage = errors.New("invalid usage")
)

const usageText = `
secretcell demonstrates three ways of protecting an API token in configuration (plaintext, obfuscated, and encrypted), and saving a user key to both plain settings and the OS keyring.

USAGE:  secretcell [FLAGS] COMMAND [ARGS]

COMMANDS:
    save-key PASSWORD      Saves PASSWORD as the user key in plain settings and the OS keyring.
    read-key               Reads the user key back from both plain settings and the OS keyring.
    clear-key              Removes the user key from both plain settings and the OS keyring.
    read-tokens            Reads the API token from each protection tier of the resource file.
    gen-tokens TOKEN       Prints the obfuscated and encrypted forms of TOKEN. Use -w to write them to the resource file.
    encrypt KEY MESSAGE    Encrypts MESSAGE with KEY and prints the sealed text form.
    decrypt KEY TEXT       Decrypts the sealed text form with KEY.
    gen-salt [LENGTH]      Generates a random obfuscation salt, printed as hex. Pass it with --obfuscation-salt or SECRETCELL_OBFUSCATION_SALT.

FLAGS:
%s
SECURITY:
    Obfuscation is not encryption! Anyone with the program can reveal an obfuscated token.
Encrypted tokens are only as secret as the passphrase compiled into the program, but they can't be altered without detection.
`

type app struct {
	cfg    *config.Config
	out    io.Writer
	log    zerolog.Logger
	engine *cell.Engine
	plain  *settings.SQLite
}

func run(args []string, stdout, stderr io.Writer, environ map[string]string) error {
	cfg, err := config.FromEnv(environ)
	if err != nil {
		return err
	}
	var (
		helpFlag    bool
		versionFlag bool
		writeFlag   bool
	)
	flags := flag.NewFlagSet("secretcell", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.BoolVar(&versionFlag, "version", false, "Prints the version.")
	flags.BoolVarP(&writeFlag, "write", "w", false, "Write generated tokens to the resource file (gen-tokens only).")
	cfg.BindFlags(flags)
	flags.Usage = func() {
		_, _ = fmt.Fprintf(stdout, usageText, flags.FlagUsages())
	}

	if len(args) == 0 {
		flags.Usage()
		return nil
	}
	if err := flags.Parse(args); err != nil {
		flags.Usage()
		return fmt.Errorf("error parsing flags: %w", err)
	}
	if helpFlag {
		flags.Usage()
		return nil
	}
	if versionFlag {
		internal.Fecho(stdout, "secretcell %s", version)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	gen, err := cfg.KeyGenerator()
	if err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		out:    stdout,
		log:    logger.Console(stderr, "cli", cfg.Verbose),
		engine: cell.NewEngine(gen),
	}
	defer a.close()

	cmdArgs := flags.Args()
	if len(cmdArgs) == 0 {
		return fmt.Errorf("%w: missing COMMAND", errUsage)
	}
	command, cmdArgs := cmdArgs[0], cmdArgs[1:]
	switch command {
	case "save-key":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%w: save-key requires PASSWORD", errUsage)
		}
		return a.saveKey(cmdArgs[0])
	case "read-key":
		return a.readKey()
	case "clear-key":
		return a.clearKey()
	case "read-tokens":
		return a.readTokens()
	case "gen-tokens":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%w: gen-tokens requires TOKEN", errUsage)
		}
		return a.genTokens(cmdArgs[0], writeFlag)
	case "encrypt":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%w: encrypt requires KEY and MESSAGE", errUsage)
		}
		return a.encrypt(cmdArgs[0], cmdArgs[1])
	case "decrypt":
		if len(cmdArgs) != 2 {
			return fmt.Errorf("%w: decrypt requires KEY and TEXT", errUsage)
		}
		return a.decrypt(cmdArgs[0], cmdArgs[1])
	case "gen-salt":
		length := defaultSaltLen
		if len(cmdArgs) > 0 {
			length, err = strconv.Atoi(cmdArgs[0])
			if err != nil {
				return fmt.Errorf("%w: LENGTH must be a number", errUsage)
			}
			if length < 1 || length > xor.MaxSaltLength {
				return fmt.Errorf("%w: LENGTH must be between 1 and %d", errUsage, xor.MaxSaltLength)
			}
		}
		return a.genSalt(length)
	default:
		return fmt.Errorf("%w: unknown command '%s'", errUsage, command)
	}
}

func (a *app) close() {
	if a.plain != nil {
		if err := a.plain.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close settings database")
		}
	}
}

// loadDocument reads the resource file, or returns an empty document if it doesn't exist yet.
func (a *app) loadDocument() (resource.Document, error) {
	f, err := os.Open(a.cfg.ResourceFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.log.Debug().Str("path", a.cfg.ResourceFile).Msg("Resource file doesn't exist, using an empty document")
			return resource.Document{}, nil
		}
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return resource.Parse(f)
}

func (a *app) keystore() (*keystore.Store, resource.Document, error) {
	doc, err := a.loadDocument()
	if err != nil {
		return nil, nil, err
	}
	if a.plain == nil {
		a.plain, err = settings.OpenSQLite(a.cfg.SettingsDSN)
		if err != nil {
			return nil, nil, err
		}
	}
	opts, err := a.cfg.StoreOptions()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, keystore.WithLogger(a.log))
	store, err := keystore.New(a.engine, a.plain, credstore.NewKeyring(), doc, opts...)
	if err != nil {
		return nil, nil, err
	}
	return store, doc, nil
}

func (a *app) saveKey(password string) error {
	key, err := secret.KeyFromString(password)
	if err != nil {
		return err
	}
	store, _, err := a.keystore()
	if err != nil {
		return err
	}
	if err := store.SaveUserKey(key); err != nil {
		return err
	}
	internal.Fecho(a.out, "User key saved to settings and keyring")
	return nil
}

func (a *app) printKey(source string, key secret.Key, err error) {
	switch {
	case errors.Is(err, keystore.ErrKeyNotFound):
		internal.Fecho(a.out, "%s: no user key", source)
	case err != nil:
		internal.Fecho(a.out, "%s: error: %v", source, err)
	default:
		if text, ok := key.UTF8(); ok {
			internal.Fecho(a.out, "%s: %s", source, text)
			return
		}
		internal.Fecho(a.out, "%s: (binary) %s", source, key.Text())
	}
}

func (a *app) readKey() error {
	store, _, err := a.keystore()
	if err != nil {
		return err
	}
	key, err := store.ReadUserKeyFromSettings()
	a.printKey("settings", key, err)
	key, err = store.ReadUserKeyFromSecureStore()
	a.printKey("keyring", key, err)
	return nil
}

func (a *app) clearKey() error {
	store, _, err := a.keystore()
	if err != nil {
		return err
	}
	if err := store.ClearUserKey(); err != nil {
		return err
	}
	internal.Fecho(a.out, "User key removed from settings and keyring")
	return nil
}

func (a *app) readTokens() error {
	store, _, err := a.keystore()
	if err != nil {
		return err
	}
	for _, result := range store.ReadAPITokens() {
		if result.Err != nil {
			internal.Fecho(a.out, "%s: error: %v", result.Tier, result.Err)
			continue
		}
		text, _ := result.Token.UTF8()
		internal.Fecho(a.out, "%s: %s", result.Tier, text)
	}
	return nil
}

func (a *app) genTokens(token string, write bool) error {
	store, doc, err := a.keystore()
	if err != nil {
		return err
	}
	generated, err := store.GenerateAPITokens(token)
	if err != nil {
		return err
	}
	internal.Fecho(a.out, "%s: %s", keystore.ObfuscatedTokenField, generated.Obfuscated)
	internal.Fecho(a.out, "%s: %s", keystore.EncryptedTokenField, generated.Encrypted)
	if !write {
		return nil
	}
	doc.Set(a.cfg.Section, keystore.PlaintextTokenField, token)
	doc.Set(a.cfg.Section, keystore.ObfuscatedTokenField, generated.Obfuscated)
	doc.Set(a.cfg.Section, keystore.EncryptedTokenField, generated.Encrypted)
	if err := resource.SaveFile(a.cfg.ResourceFile, doc); err != nil {
		return err
	}
	a.log.Info().Str("path", a.cfg.ResourceFile).Msg("Wrote tokens to resource file")
	return nil
}

func (a *app) encrypt(keyText, message string) error {
	key, err := secret.KeyFromString(keyText)
	if err != nil {
		return err
	}
	sealed, err := a.engine.Encrypt(message, key)
	if err != nil {
		return err
	}
	internal.Fecho(a.out, "%s", sealed.Text())
	return nil
}

func (a *app) decrypt(keyText, text string) error {
	key, err := secret.KeyFromString(keyText)
	if err != nil {
		return err
	}
	sealed, err := secret.EncryptedDataFromText(text)
	if err != nil {
		return err
	}
	message, err := a.engine.Decrypt(sealed, key)
	if err != nil {
		return err
	}
	internal.Fecho(a.out, "%s", message)
	return nil
}

func (a *app) genSalt(length int) error {
	salt, err := xor.GenSalt(length)
	if err != nil {
		return err
	}
	internal.Fecho(a.out, "%s", hex.EncodeToString(salt))
	return nil
}
