package address

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

// DeriveAddress derives an EVM address from SEC1-encoded public key material.
// The returned common.Address renders the EIP-55 checksummed form through Hex().
func DeriveAddress(material *PublicKeyMaterial) (common.Address, error) {
	if material == nil {
		return common.Address{}, walleterr.New(walleterr.KindMalformedKey, "address.DeriveAddress", "public key material is missing")
	}

	pubKey, err := ParsePublicKey(material.PublicKey)
	if err != nil {
		return common.Address{}, err
	}

	uncompressed := pubKey.SerializeUncompressed()
	if len(uncompressed) != uncompressedKeyLength || uncompressed[0] != uncompressedMarker {
		return common.Address{}, walleterr.New(walleterr.KindMalformedKey, "address.DeriveAddress", "uncompressed public key is missing the 0x04 marker")
	}

	hash := crypto.Keccak256(uncompressed[1:])

	return common.BytesToAddress(hash[addressHashOffset:]), nil
}

// ParsePublicKey parses a compressed or uncompressed SEC1 secp256k1 point.
// Hybrid encodings are rejected, as are points that are not on the curve.
func ParsePublicKey(raw []byte) (*btcec.PublicKey, error) {
	switch {
	case len(raw) == compressedKeyLength && (raw[0] == 0x02 || raw[0] == 0x03):
	case len(raw) == uncompressedKeyLength && raw[0] == uncompressedMarker:
	default:
		if len(raw) == 0 {
			return nil, walleterr.New(walleterr.KindMalformedKey, "address.ParsePublicKey", "public key is empty")
		}
		return nil, walleterr.Newf(walleterr.KindMalformedKey, "address.ParsePublicKey",
			"unsupported public key format: len=%d prefix=0x%02x", len(raw), raw[0])
	}

	key, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.KindMalformedKey, "address.ParsePublicKey", err)
	}

	return key, nil
}

// FromHex parses a hex address strictly, rejecting anything that is not 20 bytes
// or that fails the EIP-55 checksum when mixed case is used.
func FromHex(s string) (common.Address, error) {
	var addr common.Address
	if err := addr.UnmarshalText([]byte(s)); err != nil {
		return common.Address{}, walleterr.Newf(walleterr.KindConfig, "address.FromHex", "invalid address %q", s)
	}

	if hasMixedCase(s) && addr.Hex() != s {
		return common.Address{}, walleterr.Newf(walleterr.KindConfig, "address.FromHex", "address %q fails checksum", s)
	}

	return addr, nil
}

func hasMixedCase(s string) bool {
	var lower, upper bool
	for _, r := range s[min(2, len(s)):] {
		switch {
		case r >= 'a' && r <= 'f':
			lower = true
		case r >= 'A' && r <= 'F':
			upper = true
		}
	}
	return lower && upper
}
