package encryption

import (
	"bytes"
	"errors"
	"testing"

	"plate-go/internal/plate"
)

func TestTestEncryptor_RoundTrip(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	if err := e.Setup("secret"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	input := []byte(`{"date":"2024-01-15"}`)
	var encrypted bytes.Buffer
	if err := e.Encrypt(bytes.NewReader(input), &encrypted); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !bytes.HasPrefix(encrypted.Bytes(), testHeader) {
		t.Error("encrypted output does not start with test header")
	}

	dc, err := e.Unlock("secret")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var decrypted bytes.Buffer
	if err := dc.Decrypt(&encrypted, &decrypted); err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(decrypted.Bytes(), input) {
		t.Errorf("round-trip = %q, want %q", decrypted.Bytes(), input)
	}
}

func TestTestEncryptor_WrongPassphrase(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	e.Setup("secret")
	if _, err := e.Unlock("guess"); !errors.Is(err, plate.ErrWrongPassphrase) {
		t.Errorf("Unlock() error = %v, want ErrWrongPassphrase", err)
	}
}

func TestTestDecryptionContext_BadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "invalid header", input: []byte("NOT_VALID_HEADER_data")},
		{name: "truncated header", input: []byte("PLA")},
		{name: "empty", input: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := &TestDecryptionContext{}
			if err := dc.Decrypt(bytes.NewReader(tt.input), &bytes.Buffer{}); err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}
