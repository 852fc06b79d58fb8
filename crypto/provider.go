package crypto

import (
	"fmt"
	"strings"
)

// HashProvider is the narrow hashing interface used by consensus code to digest
// the 80-byte block header preimage.
type HashProvider interface {
	Name() string
	HeaderHash(input []byte) ([32]byte, error)
}

const (
	HashSHA256d  = "sha256d"
	HashSHA3_256 = "sha3-256"
)

// ProviderByName resolves a configured header hash name.
func ProviderByName(name string) (HashProvider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HashSHA256d:
		return DoubleSHA256Provider{}, nil
	case HashSHA3_256:
		return SHA3Provider{}, nil
	default:
		return nil, fmt.Errorf("unknown header hash %q", name)
	}
}
