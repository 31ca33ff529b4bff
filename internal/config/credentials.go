package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"

	"github.com/soulproto/soul/internal/aead"
)

// ErrInsecurePermissions is returned when .env has overly permissive
// permissions and SOUL_SECRET_KEY is not set to cover it with envelope
// encryption instead.
var ErrInsecurePermissions = fmt.Errorf("env file has insecure permissions")

// LoadEnv loads process environment variables from a soul directory's
// .env (plaintext, checked for safe permissions) or .env.enc (AES-256-GCM,
// decrypted with SOUL_SECRET_KEY) if either is present. Missing files are
// not an error.
func LoadEnv(soulRoot string) error {
	encPath := filepath.Join(soulRoot, ".env.enc")
	if _, err := os.Stat(encPath); err == nil {
		return loadEncryptedEnv(encPath)
	}

	plainPath := filepath.Join(soulRoot, ".env")
	if _, err := os.Stat(plainPath); err == nil {
		if err := checkPermissions(plainPath); err != nil {
			return err
		}
		return godotenv.Load(plainPath)
	}

	return nil
}

// checkPermissions enforces owner-only read/write on Unix; Windows ACLs are
// not modeled here, matching the teacher's own Unix-only permission check.
func checkPermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		return fmt.Errorf("%w: %s has mode %04o (must not be group/other readable)", ErrInsecurePermissions, path, mode)
	}
	return nil
}

func loadEncryptedEnv(path string) error {
	keyHex := os.Getenv("SOUL_SECRET_KEY")
	if keyHex == "" {
		return fmt.Errorf("config: %s present but SOUL_SECRET_KEY is not set", path)
	}
	key, err := decodeKey(keyHex)
	if err != nil {
		return fmt.Errorf("config: SOUL_SECRET_KEY: %w", err)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	plaintext, err := aead.Open(key, blob, nil)
	if err != nil {
		return fmt.Errorf("config: decrypt %s: %w", path, err)
	}

	env, err := godotenv.Unmarshal(string(plaintext))
	if err != nil {
		return fmt.Errorf("config: parse decrypted %s: %w", path, err)
	}
	for k, v := range env {
		if _, set := os.LookupEnv(k); !set {
			os.Setenv(k, v)
		}
	}
	return nil
}

func decodeKey(hexOrRaw string) ([]byte, error) {
	if len(hexOrRaw) == aead.KeySize {
		return []byte(hexOrRaw), nil
	}
	decoded, err := hex.DecodeString(hexOrRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(decoded) != aead.KeySize {
		return nil, fmt.Errorf("key must decode to %d bytes, got %d", aead.KeySize, len(decoded))
	}
	return decoded, nil
}
