/*
Package keystore decides where application secrets are read from and written to.

It covers two concerns:
  - A user supplied key (such as a password) that is saved to both plain settings and the secure credential store.
  - API tokens embedded in structured configuration, in one of three protection tiers: plaintext, obfuscated, or encrypted.

# User keys

SaveUserKey writes the same bytes to plain settings, then to the secure store, then records that the application has run.
The secure store may keep values across an uninstall, so a value found there before anything has been saved by this installation is treated as stale.
ReadUserKeyFromSecureStore logs and ignores stale values, returning ErrKeyNotFound.

# API tokens

Plaintext tokens are used as-is, and provide no protection at all.
Obfuscated tokens are XOR screened with a salt compiled into the program, which only stops casual inspection.
Encrypted tokens are sealed with the cell package under a passphrase compiled into the program.
This provides integrity, but confidentiality is only as good as the secrecy of the program binary.

Any value that can't be decoded or decrypted is reported with ErrTokenUnreadable, wrapping the reason.
A missing value is reported with resource.ErrConfigKeyMissing.
*/
package keystore
