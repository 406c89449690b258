package devsigner

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
)

// Account keys live below m/44'/60'/0'/0; the last index is taken from the key name and
// derivation context so every caller gets its own key.
const accountPath = "m/44'/60'/0'/0"

const hardenedBit = 0x80000000

// contextIndex is the first 4 bytes of Keccak-256(keyName || derivationContext), unhardened.
func contextIndex(keyName string, derivationContext []byte) uint32 {
	h := crypto.Keccak256([]byte(keyName), derivationContext)
	return binary.BigEndian.Uint32(h[:4]) &^ hardenedBit
}

// DerivationPath returns the BIP-32 path used for keyName and derivationContext.
func DerivationPath(keyName string, derivationContext []byte) string {
	return fmt.Sprintf("%s/%d", accountPath, contextIndex(keyName, derivationContext))
}

func deriveKey(seed []byte, path string) (*bip32.Key, error) {
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	indices, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	key := masterKey
	for _, index := range indices {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}

	return key, nil
}

// parsePath parses "m/44'/60'/0'/0/7" into child indices.
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, errors.Errorf("invalid BIP-32 path: %s", path)
	}

	indices := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		index, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, errors.Errorf("invalid path segment %q in %s", part, path)
		}

		if hardened {
			index |= hardenedBit
		}
		indices = append(indices, uint32(index))
	}

	return indices, nil
}

// PublicKeyAt returns the compressed public key at path.
func PublicKeyAt(seed []byte, path string) ([]byte, error) {
	key, err := deriveKey(seed, path)
	if err != nil {
		return nil, err
	}

	return key.PublicKey().Key, nil
}
