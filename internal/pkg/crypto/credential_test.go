package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLegacyDeriver(t *testing.T) {
	d := LegacyDeriver{}

	// Matches the browser's btoa("secret").
	require.Equal(t, "c2VjcmV0", d.Derive("secret"))
	require.Equal(t, SchemeLegacy, d.Name())
}

func TestDerivers_Deterministic(t *testing.T) {
	derivers := []Deriver{
		LegacyDeriver{},
		NewSHA256Deriver("pepper"),
		NewArgon2Deriver("pepper-pepper", Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16}),
	}

	for _, d := range derivers {
		t.Run(d.Name(), func(t *testing.T) {
			a := d.Derive("correct horse")
			b := d.Derive("correct horse")
			c := d.Derive("battery staple")

			require.NotEmpty(t, a)
			require.Equal(t, a, b)
			require.NotEqual(t, a, c)
		})
	}
}

func TestSHA256Deriver_PepperMatters(t *testing.T) {
	a := NewSHA256Deriver("one").Derive("pw")
	b := NewSHA256Deriver("two").Derive("pw")
	require.NotEqual(t, a, b)
	require.Len(t, a, 64)
}

func TestNewDeriver(t *testing.T) {
	tests := []struct {
		scheme  string
		pepper  string
		want    string
		wantErr bool
	}{
		{scheme: "legacy", want: SchemeLegacy},
		{scheme: "SHA256", pepper: "p", want: SchemeSHA256},
		{scheme: "argon2id", pepper: "p", want: SchemeArgon2id},
		{scheme: "", pepper: "p", want: SchemeArgon2id},
		{scheme: "argon2id", wantErr: true},
		{scheme: "md5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			d, err := NewDeriver(tt.scheme, tt.pepper)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, d.Name())
		})
	}
}

func TestAdminCredential(t *testing.T) {
	admin, err := NewAdminCredential("Obakeng@Admin", "Obakeng@Admin", bcrypt.MinCost)
	require.NoError(t, err)

	require.Equal(t, "Obakeng@Admin", admin.Username())
	require.True(t, admin.Matches("Obakeng@Admin", "Obakeng@Admin"))
	require.False(t, admin.Matches("obakeng@admin", "Obakeng@Admin"))
	require.False(t, admin.Matches("Obakeng@Admin", "wrong"))
	require.False(t, admin.Matches("", ""))

	var nilAdmin *AdminCredential
	require.False(t, nilAdmin.Matches("Obakeng@Admin", "Obakeng@Admin"))
}

func TestNewAdminCredential_Empty(t *testing.T) {
	_, err := NewAdminCredential("", "pw", bcrypt.MinCost)
	require.Error(t, err)

	_, err = NewAdminCredential("admin", "", bcrypt.MinCost)
	require.Error(t, err)
}
