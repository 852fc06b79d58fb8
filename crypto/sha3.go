package crypto

import "golang.org/x/crypto/sha3"

// SHA3Provider is a single-pass SHA3-256 header hash for networks that do not use
// the double SHA-256 header digest.
type SHA3Provider struct{}

func (SHA3Provider) Name() string { return HashSHA3_256 }

func (SHA3Provider) HeaderHash(input []byte) ([32]byte, error) {
	h := sha3.New256()
	_, _ = h.Write(input)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}
