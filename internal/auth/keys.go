// Package auth provides password hashing and bearer token issuance.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HS256 signing secret size.
	keyLength   = 32
	keyFileName = "auth.key"
)

// LoadOrGenerateKey returns the token signing key stored hex-encoded in
// <dataPath>/auth.key, generating and saving a new one if the file is absent.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	key, err := readKey(keyPath)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if key, err = generateKey(); err != nil {
		return nil, err
	}
	if err := writeKey(dataPath, keyPath, key); err != nil {
		return nil, err
	}
	return key, nil
}

func readKey(path string) ([]byte, error) {
	//#nosec G304 -- path is derived from the configured data path
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	encoded := strings.TrimSpace(string(raw))
	if len(encoded) != hex.EncodedLen(keyLength) {
		return nil, fmt.Errorf("auth key %s: expected %d hex chars, got %d",
			path, hex.EncodedLen(keyLength), len(encoded))
	}
	key, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("auth key %s: %w", path, err)
	}
	return key, nil
}

func generateKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}
	return key, nil
}

func writeKey(dir, path string, key []byte) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return fmt.Errorf("save auth key: %w", err)
	}
	return nil
}
