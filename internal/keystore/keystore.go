// ABOUTME: Encrypted identity key files using argon2id key derivation and chacha20poly1305
// ABOUTME: Save/Load round-trip an ed25519 seed under a passphrase

package keystore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/2389/hero-console/internal/identity"
)

const (
	saltBytes = 16
	keyBytes  = 32

	argonTime    = 1
	argonMemory  = 1 << 16
	argonThreads = 4
)

// ErrWrongPassphrase indicates the key file could not be decrypted with
// the supplied passphrase.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// keyFile is the serialized form of an encrypted identity.
type keyFile struct {
	Version    int    `json:"version"`
	Principal  string `json:"principal"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Save encrypts the identity's key seed under the passphrase and writes
// it to path. Parent directories are created if needed; the file is
// written with owner-only permissions.
func Save(path string, id *identity.Identity, passphrase string) error {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	aead, err := chacha20poly1305.New(deriveKey(passphrase, salt))
	if err != nil {
		return fmt.Errorf("initializing cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	kf := keyFile{
		Version:    1,
		Principal:  id.Principal().String(),
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, id.PrivateKey().Seed(), nil),
	}
	data, err := json.MarshalIndent(&kf, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// Load reads an encrypted key file and decrypts it with the passphrase.
func Load(path string, passphrase string) (*identity.Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("decoding key file: %w", err)
	}
	if len(kf.Salt) != saltBytes {
		return nil, fmt.Errorf("malformed key file: bad salt length %d", len(kf.Salt))
	}

	aead, err := chacha20poly1305.New(deriveKey(passphrase, kf.Salt))
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	// Open panics on a wrong-length nonce rather than returning an error.
	if len(kf.Nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("malformed key file: bad nonce length %d", len(kf.Nonce))
	}
	seed, err := aead.Open(nil, kf.Nonce, kf.Ciphertext, nil)
	if err != nil {
		return nil, ErrWrongPassphrase
	}

	return identity.FromSeed(seed), nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, keyBytes)
}

// FileProvider is an identity.Provider that loads an encrypted key file.
// The passphrase is supplied by a callback so the interactive prompt
// stays in presentation code.
type FileProvider struct {
	Path       string
	Passphrase func() (string, error)
}

// Login implements identity.Provider.
func (p *FileProvider) Login(ctx context.Context) (*identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pass, err := p.Passphrase()
	if err != nil {
		return nil, err
	}
	return Load(p.Path, pass)
}
