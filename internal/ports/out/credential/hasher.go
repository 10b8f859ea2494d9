package credential

// Hasher turns secrets into digests and checks secrets against digests.
type Hasher interface {
	Hash(secret string) (string, error)

	// Verify reports whether secret matches digest. A mismatch is (false, nil);
	// an error means the digest could not be checked at all.
	Verify(secret, digest string) (bool, error)
}
