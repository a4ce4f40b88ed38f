/*
Package cell provides authenticated encryption of short messages under a caller-supplied key, in the style of a sealed secure cell.
The key may be any non-empty byte sequence (like a password), since a strong AES key is derived from it internally with scrypt.

# How it works:

On every Encrypt a random salt is generated, and the supplied key is stretched into an AES key with scrypt using the Engine's KeyGenerator settings.
The message is then sealed with AES-GCM under a random nonce, which provides both confidentiality and integrity.

The sealed payload is laid out like this:

	header (KDF parameters) | nonce | ciphertext + tag | salt

The header records the KDF parameters used, so a payload can always be opened with the same key even if the Engine defaults change later.
Decrypt validates the header, re-derives the AES key from the supplied key and the trailing salt, and opens the GCM payload.
Any tampering with the header, nonce, ciphertext, tag, or salt will cause Decrypt to fail with ErrDecryption.

# General guidelines:
  - There is no associated data, so a sealed payload is not bound to any context. Track which key belongs to which payload yourself.
  - There is no replay protection. A valid payload will always open with the right key.
  - Use SetShortDelayIterations (the default) for interactive use, and only use SetIterations if you know what you're doing.
*/
package cell
