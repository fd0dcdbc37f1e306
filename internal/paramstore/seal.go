package paramstore

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

const sealedPrefix = "age:"

// Sealer encrypts secure values to a single x25519 identity.
type Sealer struct {
	identity *age.X25519Identity
}

// NewSealer parses an AGE-SECRET-KEY-1... identity string.
func NewSealer(identity string) (*Sealer, error) {
	parsed, err := age.ParseX25519Identity(strings.TrimSpace(identity))
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	return &Sealer{identity: parsed}, nil
}

// Seal returns the prefixed base64 ciphertext of plaintext.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as is.
func (s *Sealer) Open(stored string) (string, error) {
	if !IsSealed(stored) {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading plaintext: %w", err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether a stored value was produced by Seal.
func IsSealed(stored string) bool {
	return strings.HasPrefix(stored, sealedPrefix)
}
