package address

// PublicKeyMaterial is the reply of the remote signer for a derivation request.
// It is transient: derive the address from it and drop it.
type PublicKeyMaterial struct {
	PublicKey []byte // SEC1, compressed (33 bytes) or uncompressed (65 bytes)
	ChainCode []byte
}

const (
	compressedKeyLength   = 33
	uncompressedKeyLength = 65
	uncompressedMarker    = 0x04
	addressHashOffset     = 12 // keccak256 is 32 bytes, the address is the low-order 20
)
