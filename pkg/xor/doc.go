/*
Package xor provides light-weight obfuscation of lower sensitivity values, such as API tokens embedded in configuration.

Note that this is NOT encryption, since it is easily reversible by anyone who recovers the salt.
There is no integrity protection either, a modified payload will be revealed as modified plain text (or fail UTF-8 validation).
As such, it is NOT recommended for security critical use, see the cell package for authenticated encryption.

# How it works:

A salt is provided to NewObfuscator, and each byte of the input is XORed with the salt byte at the same position.
When the last salt byte is used, the first will be used again, operating like a ring buffer.
Since XOR is its own inverse, the same pass with the same salt recovers the original bytes.

# General guidelines:
  - Longer salts hide repeating patterns better, but a short payload only uses a prefix of the salt anyway.
  - Securely generated salts (like with GenSalt) are better than memorable strings.
  - The salt must be identical to reverse the process, so it's usually compiled into the program.
*/
package xor
