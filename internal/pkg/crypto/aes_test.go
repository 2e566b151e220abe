package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	e, err := NewEncryptorFromHex(key)
	require.NoError(t, err)
	return e
}

func TestEncryptor_SealOpen(t *testing.T) {
	e := newTestEncryptor(t)
	plaintext := []byte(`{"candidates":[]}`)

	sealed, err := e.Seal(plaintext)
	require.NoError(t, err)
	require.False(t, bytes.Contains(sealed, plaintext))

	again, err := e.Seal(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, sealed, again)

	opened, err := e.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestEncryptor_OpenErrors(t *testing.T) {
	e := newTestEncryptor(t)
	sealed, err := e.Seal([]byte("ledger"))
	require.NoError(t, err)

	_, err = e.Open(sealed[:NonceSize])
	require.ErrorIs(t, err, ErrInvalidCiphertext)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0xff
	_, err = e.Open(tampered)
	require.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = newTestEncryptor(t).Open(sealed)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestParseHexKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", strings.Repeat("ab", KeySize), false},
		{"surrounding space", "  " + strings.Repeat("0f", KeySize) + "\n", false},
		{"short", "abcd", true},
		{"not hex", strings.Repeat("zz", KeySize), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParseHexKey(tt.key)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidHexKey)
				return
			}
			require.NoError(t, err)
			require.Len(t, key, KeySize)
		})
	}
}

func TestNewEncryptor_KeySize(t *testing.T) {
	_, err := NewEncryptor(make([]byte, 16))
	require.ErrorIs(t, err, ErrInvalidKeySize)
}
