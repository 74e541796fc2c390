package core

import (
	"errors"

	"github.com/awnumar/memguard"
)

// AdminSecret holds the single static administrator credential sealed in a
// memguard enclave.
type AdminSecret struct {
	enclave *memguard.Enclave
}

func NewAdminSecret(secret string) (*AdminSecret, error) {
	if secret == "" {
		return nil, errors.New("admin secret is required")
	}
	return &AdminSecret{enclave: memguard.NewEnclave([]byte(secret))}, nil
}

// Matches compares candidate against the secret in constant time.
func (a *AdminSecret) Matches(candidate string) bool {
	if a == nil || candidate == "" {
		return false
	}
	buf, err := a.enclave.Open()
	if err != nil {
		return false
	}
	defer buf.Destroy()
	return buf.EqualTo([]byte(candidate))
}
