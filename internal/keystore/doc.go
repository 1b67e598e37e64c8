// ABOUTME: Passphrase-encrypted on-disk storage for identity keys
// ABOUTME: Backs the key-file login provider used by the console

// Package keystore persists identity keys encrypted at rest.
package keystore
