package crypto

import "crypto/sha256"

// DoubleSHA256Provider hashes the header with SHA-256 and hashes that digest again.
type DoubleSHA256Provider struct{}

func (DoubleSHA256Provider) Name() string { return HashSHA256d }

func (DoubleSHA256Provider) HeaderHash(input []byte) ([32]byte, error) {
	first := sha256.Sum256(input)
	return sha256.Sum256(first[:]), nil
}
