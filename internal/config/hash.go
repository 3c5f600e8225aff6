package config

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashLength is the number of hex characters kept from a file digest.
const HashLength = 7

// Hash returns the first HashLength hex characters of the BLAKE2b-256 digest of data.
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])[:HashLength]
}
