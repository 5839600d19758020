package testutil

import (
	"plate-go/internal/encryption"
)

// NewTestEncryptor creates a deterministic encryptor unlocked by passphrase.
func NewTestEncryptor(passphrase string) *encryption.TestEncryptor {
	e := encryption.NewTestEncryptor()
	e.Setup(passphrase)
	return e
}
