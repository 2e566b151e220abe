// Package crypto provides credential utilities for the E-Day ledger.
// Voter ids are derived deterministically from the raw credential, so every
// scheme here is a pure function of its input and configuration.
package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Scheme names accepted by NewDeriver.
const (
	SchemeLegacy   = "legacy"
	SchemeSHA256   = "sha256"
	SchemeArgon2id = "argon2id"
)

// Deriver turns a raw credential into a voter id.
// Implementations must be deterministic: the same input always yields the same id.
type Deriver interface {
	// Name returns the scheme name.
	Name() string

	// Derive returns the id for the raw credential.
	Derive(raw string) string
}

// LegacyDeriver encodes the credential with standard base64.
// The encoding is reversible: anyone who can read the user set can recover
// the password. It exists so data written by the browser demo stays readable.
type LegacyDeriver struct{}

// Name returns the scheme name.
func (LegacyDeriver) Name() string { return SchemeLegacy }

// Derive returns base64(raw).
func (LegacyDeriver) Derive(raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// SHA256Deriver hashes the credential with a fixed pepper.
type SHA256Deriver struct {
	pepper []byte
}

// NewSHA256Deriver creates a SHA-256 deriver.
func NewSHA256Deriver(pepper string) *SHA256Deriver {
	return &SHA256Deriver{pepper: []byte(pepper)}
}

// Name returns the scheme name.
func (d *SHA256Deriver) Name() string { return SchemeSHA256 }

// Derive returns hex(sha256(pepper || raw)).
func (d *SHA256Deriver) Derive(raw string) string {
	h := sha256.New()
	h.Write(d.pepper)
	h.Write([]byte(raw))
	return hex.EncodeToString(h.Sum(nil))
}

// Argon2Params tunes the Argon2id deriver.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params returns parameters sized for an interactive login.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  19 * 1024,
		Threads: 2,
		KeyLen:  32,
	}
}

// Argon2Deriver derives ids with Argon2id, using the pepper as salt.
type Argon2Deriver struct {
	salt   []byte
	params Argon2Params
}

// NewArgon2Deriver creates an Argon2id deriver.
func NewArgon2Deriver(pepper string, params Argon2Params) *Argon2Deriver {
	return &Argon2Deriver{salt: []byte(pepper), params: params}
}

// Name returns the scheme name.
func (d *Argon2Deriver) Name() string { return SchemeArgon2id }

// Derive returns the base64url Argon2id key of raw.
func (d *Argon2Deriver) Derive(raw string) string {
	key := argon2.IDKey([]byte(raw), d.salt, d.params.Time, d.params.Memory, d.params.Threads, d.params.KeyLen)
	return base64.RawURLEncoding.EncodeToString(key)
}

// NewDeriver builds the deriver for a scheme name.
func NewDeriver(scheme, pepper string) (Deriver, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case SchemeLegacy:
		return LegacyDeriver{}, nil
	case SchemeSHA256:
		return NewSHA256Deriver(pepper), nil
	case SchemeArgon2id, "":
		if pepper == "" {
			return nil, fmt.Errorf("argon2id scheme requires a non-empty pepper")
		}
		return NewArgon2Deriver(pepper, DefaultArgon2Params()), nil
	default:
		return nil, fmt.Errorf("unknown credential scheme %q", scheme)
	}
}

// Ensure the derivers implement Deriver.
var (
	_ Deriver = LegacyDeriver{}
	_ Deriver = (*SHA256Deriver)(nil)
	_ Deriver = (*Argon2Deriver)(nil)
)
