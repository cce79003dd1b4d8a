package project

import "crypto/sha256"

// Digest is a SHA-256 content hash.
type Digest [sha256.Size]byte

// HashBytes digests a byte slice.
func HashBytes(b []byte) Digest {
	return sha256.Sum256(b)
}
