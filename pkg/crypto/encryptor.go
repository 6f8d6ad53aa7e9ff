// Package crypto seals sensitive column values with age.
package crypto

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"filippo.io/age"
)

// Encryptor seals values for the current key and opens values sealed for the
// current key or any retired one, so ENCRYPTION_KEY can be rotated without
// re-encrypting every row at once.
type Encryptor struct {
	recipient  *age.X25519Recipient
	identities []age.Identity
}

// NewEncryptor parses key, an age identity ("AGE-SECRET-KEY-1..."), plus any
// retired identities. An empty key generates a throwaway identity that is
// only good for tests and development.
func NewEncryptor(key string, retired ...string) (*Encryptor, error) {
	current, err := identity(key)
	if err != nil {
		return nil, err
	}

	e := &Encryptor{
		recipient:  current.Recipient(),
		identities: []age.Identity{current},
	}
	for i, k := range retired {
		if k == "" {
			continue
		}
		old, err := age.ParseX25519Identity(k)
		if err != nil {
			return nil, fmt.Errorf("parsing retired identity %d: %w", i+1, err)
		}
		e.identities = append(e.identities, old)
	}
	return e, nil
}

func identity(key string) (*age.X25519Identity, error) {
	if key == "" {
		id, err := age.GenerateX25519Identity()
		if err != nil {
			return nil, fmt.Errorf("generating identity: %w", err)
		}
		return id, nil
	}
	id, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}
	return id, nil
}

// GenerateKey returns a fresh identity suitable for ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	id, err := identity("")
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SealString encrypts s into base64 text for a text column. The empty string
// stays empty so optional fields remain optional.
func (e *Encryptor) SealString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, e.recipient)
	if err != nil {
		return "", fmt.Errorf("creating encryptor: %w", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing encryptor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// OpenString reverses SealString with whichever identity matches.
func (e *Encryptor) OpenString(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("decoding base64: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), e.identities...)
	if err != nil {
		return "", fmt.Errorf("creating decryptor: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading plaintext: %w", err)
	}
	return string(plaintext), nil
}

// PublicKey is the recipient ("age1...") new values are sealed for.
func (e *Encryptor) PublicKey() string {
	return e.recipient.String()
}
